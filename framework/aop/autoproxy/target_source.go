package autoproxy

import "reflect"

// TargetSource supplies the object a proxy delegates to.
type TargetSource interface {
	TargetType() reflect.Type
	Target() (any, error)
}

// SingletonTargetSource always returns the same target.
type SingletonTargetSource struct {
	target any
}

// NewSingletonTargetSource wraps an existing instance.
func NewSingletonTargetSource(target any) *SingletonTargetSource {
	return &SingletonTargetSource{target: target}
}

func (s *SingletonTargetSource) TargetType() reflect.Type { return reflect.TypeOf(s.target) }
func (s *SingletonTargetSource) Target() (any, error)     { return s.target, nil }

// TargetSourceCreator provides a custom TargetSource for a component, or nil
// to leave the default in place.
type TargetSourceCreator interface {
	TargetSourceFor(t reflect.Type, name string) TargetSource
}

// TargetSourceCreatorFunc adapts a function into a TargetSourceCreator.
type TargetSourceCreatorFunc func(t reflect.Type, name string) TargetSource

func (f TargetSourceCreatorFunc) TargetSourceFor(t reflect.Type, name string) TargetSource {
	return f(t, name)
}
