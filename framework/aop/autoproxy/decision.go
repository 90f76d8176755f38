package autoproxy

// Decision is the outcome of asking whether a component should be proxied.
type Decision int

const (
	// DoNotProxy leaves the component as created.
	DoNotProxy Decision = iota
	// ProxyWithoutAdditionalInterceptors proxies the component with only the
	// common interceptors configured on the Creator.
	ProxyWithoutAdditionalInterceptors
)

// ShouldProxy reports whether d asks for a proxy.
func (d Decision) ShouldProxy() bool { return d == ProxyWithoutAdditionalInterceptors }

// String returns the string representation of a Decision.
func (d Decision) String() string {
	switch d {
	case DoNotProxy:
		return "do_not_proxy"
	case ProxyWithoutAdditionalInterceptors:
		return "proxy"
	default:
		return "unknown"
	}
}
