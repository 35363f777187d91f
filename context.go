package ioc

import (
	"fmt"
	"io"
	"reflect"
	"slices"

	"github.com/google/uuid"
	"github.com/junioryono/ioc/internal/graph"
)

// Context is the validated, read-only view of a committed Config.
//
// Every identity reachable from a binding was proven bound and free of
// direct cycles by Commit, so Get never reports missing or cyclic
// dependencies. Context is safe for concurrent use; the built-in scopes
// guard their caches.
type Context struct {
	id       uuid.UUID
	bindings map[Identity]*binding
	order    []Identity
	graph    *graph.DependencyGraph
}

func newContext(bindings map[Identity]*binding, order []Identity, g *graph.DependencyGraph) *Context {
	return &Context{
		id:       uuid.New(),
		bindings: bindings,
		order:    slices.Clone(order),
		graph:    g,
	}
}

// ID returns the unique identifier of this Context.
func (c *Context) ID() uuid.UUID {
	return c.id
}

// Get resolves ref.
//
// For a direct reference, ok is false when the identity is not bound;
// otherwise the bound provider builds the instance. For a container
// reference, ok is false when the kind is not FactoryKind or when the
// wrapped identity is not bound; otherwise a Deferred is returned that
// performs the direct lookup when invoked.
//
// err is a ResolutionError when the provider failed to build the
// instance.
func (c *Context) Get(ref Ref) (instance any, ok bool, err error) {
	b, bound := c.bindings[ref.Identity]

	if ref.IsContainer() {
		if ref.Kind != FactoryKind || !bound {
			return nil, false, nil
		}
		return Deferred{ctx: c, provider: b.provider, identity: ref.Identity}, true, nil
	}

	if !bound {
		return nil, false, nil
	}

	instance, err = c.build(ref.Identity, b.provider)
	if err != nil {
		return nil, false, err
	}

	return instance, true, nil
}

func (c *Context) build(id Identity, provider Provider) (any, error) {
	instance, err := provider.Get(c)
	if err != nil {
		return nil, ResolutionError{Identity: id, Cause: err}
	}
	return instance, nil
}

// Contains reports whether id is bound.
func (c *Context) Contains(id Identity) bool {
	_, ok := c.bindings[id]
	return ok
}

// Bindings returns every bound identity in registration order.
func (c *Context) Bindings() []Identity {
	return slices.Clone(c.order)
}

// Provider returns the provider bound to id.
func (c *Context) Provider(id Identity) (Provider, bool) {
	b, ok := c.bindings[id]
	if !ok {
		return nil, false
	}
	return b.provider, true
}

// GraphFormat selects the output of WriteGraph.
type GraphFormat int

const (
	// GraphDOT renders the graph in Graphviz DOT format.
	GraphDOT GraphFormat = iota

	// GraphTable renders one row per component in dependency order.
	GraphTable
)

// WriteGraph writes the validated dependency graph to w. Container
// references are drawn dashed in DOT output and prefixed with "~" in the
// table.
func (c *Context) WriteGraph(w io.Writer, format GraphFormat) error {
	v := graph.NewVisualizer(c.graph)

	switch format {
	case GraphDOT:
		return v.WriteDOT(w)
	case GraphTable:
		return v.WriteTable(w)
	default:
		return fmt.Errorf("unknown graph format %d", format)
	}
}

// Resolve resolves the unqualified binding of T. ok is false when T is not
// bound. When T is a Factory type, the factory for its component is
// returned.
//
// Example:
//
//	logger, ok, err := ioc.Resolve[Logger](ctx)
func Resolve[T any](c *Context) (T, bool, error) {
	return ResolveQualified[T](c, nil)
}

// ResolveQualified resolves the binding of T qualified with q.
func ResolveQualified[T any](c *Context, q Qualifier) (T, bool, error) {
	var zero T

	t := reflect.TypeFor[T]()
	ref := Direct(Identity{Type: t, Qualifier: q})
	if isFactoryType(t) {
		ref = RefFor(t, q)
	}

	instance, ok, err := c.Get(ref)
	if err != nil || !ok {
		return zero, ok, err
	}

	instance = adaptDeferred(t, instance)
	if instance == nil {
		return zero, true, nil
	}

	typed, isT := instance.(T)
	if !isT {
		return zero, true, fmt.Errorf("resolve %s: got %T", formatType(t), instance)
	}

	return typed, true, nil
}

// MustResolve resolves T and panics if it is not bound or fails to build.
func MustResolve[T any](c *Context) T {
	instance, ok, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	if !ok {
		panic(fmt.Sprintf("ioc: %s is not bound", formatType(reflect.TypeFor[T]())))
	}
	return instance
}
