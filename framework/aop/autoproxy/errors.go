package autoproxy

import "errors"

var (
	ErrInvalidArgument     = errors.New("autoproxy: invalid argument")
	ErrNoProxyFactory      = errors.New("autoproxy: no proxy factory configured")
	ErrInterceptorNotFound = errors.New("autoproxy: interceptor not found")
	ErrUnknownMatcher      = errors.New("autoproxy: unknown matcher")
)
