package ioc

import "reflect"

// MetadataSource describes the injection points of concrete types.
//
// How the points are discovered is up to the source: runtime reflection
// (see ReflectSource), generated code or explicit registration. The
// injection provider only depends on the returned TypeMetadata.
type MetadataSource interface {
	Metadata(t reflect.Type) (*TypeMetadata, error)
}

// ObjectConstructor performs the allocation and mutation described by the
// points of a TypeMetadata. The Handle fields of the points are opaque to
// the injection provider and are passed back to the constructor unchanged.
type ObjectConstructor interface {
	Construct(ctor *ConstructorPoint, args []any) (any, error)
	Assign(instance any, field *FieldPoint, value any) error
	Call(instance any, method *MethodPoint, args []any) error
}

// TypeMetadata describes a concrete implementation type.
type TypeMetadata struct {
	Type reflect.Type

	// Abstract marks types that cannot be instantiated.
	Abstract bool

	// Scope is the intrinsic default scope, or nil. An explicit scope
	// tag at bind time overrides it.
	Scope Scope

	// Constructors lists every declared constructor. At most one may be
	// marked for injection; otherwise one taking no parameters is used.
	Constructors []*ConstructorPoint

	// Levels describes the type hierarchy, leaf level first.
	Levels []*Level
}

// ConstructorPoint describes a constructor.
type ConstructorPoint struct {
	Params []Ref
	Inject bool
	Handle any
}

// Level is one type in a hierarchy with the fields and methods it declares
// itself.
type Level struct {
	Type    reflect.Type
	Fields  []*FieldPoint
	Methods []*MethodPoint
}

// FieldPoint describes a field marked for injection.
type FieldPoint struct {
	Owner     reflect.Type
	Name      string
	Ref       Ref
	Immutable bool
	Handle    any
}

// MethodPoint describes a method declared on a level. Methods are listed
// whether or not they are marked for injection, so that an unmarked
// override can suppress a marked ancestor method.
type MethodPoint struct {
	Owner reflect.Type
	Name  string

	// Params are the injection references, one per parameter.
	Params []Ref

	// ParamTypes is the parameter signature used to detect overrides.
	ParamTypes []reflect.Type

	Inject     bool
	TypeParams int
	Handle     any
}

// sameSignature reports whether m and other override each other.
func (m *MethodPoint) sameSignature(other *MethodPoint) bool {
	if m.Name != other.Name || len(m.ParamTypes) != len(other.ParamTypes) {
		return false
	}
	for i, t := range m.ParamTypes {
		if other.ParamTypes[i] != t {
			return false
		}
	}
	return true
}
