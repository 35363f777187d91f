package ioc

// Provider is a construction strategy for a bound component.
//
// Get builds (or returns a cached) instance, resolving dependencies through
// the Context. Dependencies lists the references the provider will request;
// it is consulted only by Commit to validate the graph, never during
// resolution.
type Provider interface {
	Get(ctx *Context) (any, error)
	Dependencies() []Ref
}

// instanceProvider returns a pre-built value.
type instanceProvider struct {
	instance any
}

func (p *instanceProvider) Get(*Context) (any, error) {
	return p.instance, nil
}

func (p *instanceProvider) Dependencies() []Ref {
	return nil
}

// ProviderFunc adapts a function with no declared dependencies to a
// Provider. It is mostly useful for custom scope decorators and tests.
type ProviderFunc func(ctx *Context) (any, error)

func (f ProviderFunc) Get(ctx *Context) (any, error) {
	return f(ctx)
}

func (f ProviderFunc) Dependencies() []Ref {
	return nil
}
