package ioc

import (
	"fmt"
	"reflect"
)

// Deferred is the value a Context returns for a FactoryKind container
// reference. It captures the bound provider and the resolving Context;
// every call to Get performs the same lookup a direct reference would, so
// caching is left to the provider's scope.
type Deferred struct {
	ctx      *Context
	provider Provider
	identity Identity
}

// Get builds the wrapped component.
func (d Deferred) Get() (any, error) {
	if d.provider == nil {
		return nil, ResolutionError{Identity: d.identity, Cause: ErrUnavailable}
	}
	return d.ctx.build(d.identity, d.provider)
}

// Identity returns the identity of the wrapped component.
func (d Deferred) Identity() Identity {
	return d.identity
}

// Factory is the typed form of Deferred. Constructor parameters, fields and
// method parameters declared as Factory[T] receive a factory for the T
// binding instead of a T, which lets two components depend on each other
// as long as one side goes through a Factory.
//
//	type Ship struct {
//		Pilot ioc.Factory[*Pilot] `inject:""`
//	}
//
//	pilot, err := ship.Pilot.Get()
type Factory[T any] struct {
	deferred Deferred
}

// Get builds the component.
func (f Factory[T]) Get() (T, error) {
	var zero T

	instance, err := f.deferred.Get()
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("factory %s: expected type %s, got %T",
			f.deferred.identity, formatType(reflect.TypeFor[T]()), instance)
	}

	return typed, nil
}

// MustGet builds the component, panicking on error.
func (f Factory[T]) MustGet() T {
	instance, err := f.Get()
	if err != nil {
		panic(fmt.Sprintf("factory %s failed: %v", f.deferred.identity, err))
	}
	return instance
}

// Identity returns the identity of the wrapped component.
func (f Factory[T]) Identity() Identity {
	return f.deferred.identity
}

func (Factory[T]) componentType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (Factory[T]) fromDeferred(d Deferred) any {
	return Factory[T]{deferred: d}
}

// factoryAdapter is implemented by every Factory[T].
type factoryAdapter interface {
	componentType() reflect.Type
	fromDeferred(d Deferred) any
}

var factoryAdapterType = reflect.TypeFor[factoryAdapter]()

// isFactoryType reports whether t is a Factory[T].
func isFactoryType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.Implements(factoryAdapterType)
}

// adaptDeferred converts a Deferred to the Factory[T] type t. Other
// values are returned unchanged.
func adaptDeferred(t reflect.Type, value any) any {
	d, ok := value.(Deferred)
	if !ok || !isFactoryType(t) {
		return value
	}
	return reflect.Zero(t).Interface().(factoryAdapter).fromDeferred(d)
}
