package container

import (
	"reflect"
	"strings"
)

// FactoryPrefix marks a request for the factory object itself rather than the
// object it produces.
//
//	c.Make("&connectionFactory") // the FactoryObject
//	c.Make("connectionFactory")  // the product of GetObject()
const FactoryPrefix = "&"

// FactoryObject is implemented by components that produce other objects on
// behalf of the container. Resolving the component's name yields the product;
// resolving FactoryPrefix+name yields the factory.
type FactoryObject interface {
	// GetObject returns the product. Called on every Make unless IsSingleton.
	GetObject() (any, error)

	// ObjectType reports the product type, or nil when not known in advance.
	ObjectType() reflect.Type

	// IsSingleton reports whether the product is cached after the first call.
	IsSingleton() bool
}

var factoryObjectType = reflect.TypeOf((*FactoryObject)(nil)).Elem()

// IsFactoryType reports whether t has the FactoryObject capability.
func IsFactoryType(t reflect.Type) bool {
	return t != nil && t.Implements(factoryObjectType)
}

// IsFactoryDereference reports whether name asks for the factory itself.
func IsFactoryDereference(name string) bool {
	return strings.HasPrefix(name, FactoryPrefix)
}

// TransformedName strips any leading factory prefixes from name.
func TransformedName(name string) string {
	for strings.HasPrefix(name, FactoryPrefix) {
		name = name[len(FactoryPrefix):]
	}
	return name
}

// FactoryFunc adapts a plain function into a FactoryObject.
//
//	c.Singleton("clock", func(*container.Container) any {
//	    return container.FactoryFunc[*Clock]{New: NewClock, Shared: true}
//	})
type FactoryFunc[T any] struct {
	New    func() (T, error)
	Shared bool
}

func (f FactoryFunc[T]) GetObject() (any, error) { return f.New() }
func (f FactoryFunc[T]) ObjectType() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }
func (f FactoryFunc[T]) IsSingleton() bool        { return f.Shared }
