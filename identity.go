package ioc

import (
	"fmt"
	"reflect"
)

// Qualifier distinguishes multiple bindings of the same declared type.
//
// Qualifiers are compared by value with ==, so their dynamic type must be
// comparable. Any type can serve as a qualifier by implementing the marker
// method:
//
//	type Primary struct{}
//
//	func (Primary) Qualifier() string { return "primary" }
type Qualifier interface {
	Qualifier() string
}

// comparableQualifier reports whether q can be part of an Identity used as
// a map key. The nil qualifier is comparable.
func comparableQualifier(q Qualifier) bool {
	return q == nil || reflect.TypeOf(q).Comparable()
}

// Named is a string qualifier. Struct fields tagged `inject:"name=x"`
// resolve the binding qualified with Named("x").
type Named string

// Qualifier implements Qualifier.
func (n Named) Qualifier() string { return string(n) }

// String returns the name.
func (n Named) String() string { return string(n) }

// Identity identifies a bindable component: a declared type and an optional
// qualifier. A nil Qualifier means the default, unqualified binding.
//
// Identity is comparable and used directly as a map key.
type Identity struct {
	Type      reflect.Type
	Qualifier Qualifier
}

// IdentityOf returns the unqualified identity of T.
func IdentityOf[T any]() Identity {
	return Identity{Type: reflect.TypeFor[T]()}
}

// With returns a copy of id carrying the qualifier q.
func (id Identity) With(q Qualifier) Identity {
	id.Qualifier = q
	return id
}

// String returns a short, human-readable form of the identity.
func (id Identity) String() string {
	if id.Qualifier != nil {
		return fmt.Sprintf("%s[%s]", formatType(id.Type), id.Qualifier.Qualifier())
	}
	return formatType(id.Type)
}

// ContainerKind names the indirection a container reference asks for.
type ContainerKind int

const (
	// FactoryKind requests a Deferred (or typed Factory) that builds the
	// component when invoked, rather than the component itself.
	FactoryKind ContainerKind = iota + 1

	// SliceKind asks for every binding of a type. It has no resolution
	// support, so such refs always resolve to empty. RefFor never infers
	// it; a []T injection point is a direct reference to the []T binding.
	SliceKind
)

func (k ContainerKind) String() string {
	switch k {
	case FactoryKind:
		return "Factory"
	case SliceKind:
		return "Slice"
	default:
		return fmt.Sprintf("ContainerKind(%d)", int(k))
	}
}

// Ref is a reference to a component. It is either a direct reference to an
// identity or a container reference wrapping one. Container references are
// never followed during cycle detection: the component is built later,
// when the container is invoked.
type Ref struct {
	Identity Identity
	Kind     ContainerKind // zero for direct references
}

// Direct returns a direct reference to id.
func Direct(id Identity) Ref {
	return Ref{Identity: id}
}

// Container returns a container reference of the given kind wrapping id.
func Container(kind ContainerKind, id Identity) Ref {
	return Ref{Identity: id, Kind: kind}
}

// IsContainer reports whether r is a container reference.
func (r Ref) IsContainer() bool {
	return r.Kind != 0
}

func (r Ref) String() string {
	if r.IsContainer() {
		return fmt.Sprintf("%s<%s>", r.Kind, r.Identity)
	}
	return r.Identity.String()
}

// RefFor infers the reference an injection point of type t declares.
//
//   - Factory[T] becomes Container(FactoryKind, T)
//   - anything else is a direct reference to t
//
// The qualifier applies to the wrapped identity.
func RefFor(t reflect.Type, q Qualifier) Ref {
	if isFactoryType(t) {
		adapter := reflect.Zero(t).Interface().(factoryAdapter)
		return Container(FactoryKind, Identity{Type: adapter.componentType(), Qualifier: q})
	}

	return Direct(Identity{Type: t, Qualifier: q})
}
