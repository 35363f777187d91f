package ioc

import (
	"reflect"
	"sync/atomic"
)

// defaultSource holds the ReflectSource used by configs created without
// WithReflectSource, WithMetadataSource or WithObjectConstructor.
var defaultSource atomic.Pointer[ReflectSource]

func init() {
	defaultSource.Store(NewReflectSource())
}

// SetDefaultReflectSource sets the ReflectSource used by NewConfig and the
// package-level Describe. This is similar to slog.SetDefault.
//
// Configs that were already created keep the source they started with.
// Passing nil is a no-op.
func SetDefaultReflectSource(source *ReflectSource) {
	if source != nil {
		defaultSource.Store(source)
	}
}

// DefaultReflectSource returns the current default ReflectSource.
func DefaultReflectSource() *ReflectSource {
	return defaultSource.Load()
}

// Describe records constructors, methods and defaults of T in the default
// ReflectSource.
//
//	err := ioc.Describe[*Ship](
//		ioc.InjectConstructor(NewShip),
//		ioc.InjectMethod("Launch"),
//		ioc.DefaultScope(ioc.Singleton),
//	)
func Describe[T any](opts ...DescribeOption) error {
	return DefaultReflectSource().Describe(reflect.TypeFor[T](), opts...)
}
