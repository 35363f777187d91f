package ioc

import (
	"fmt"
	"sync"
)

// Scope is a binding tag selecting an instance-caching policy. ScopeName
// selects the DecoratorFactory registered under that name.
type Scope interface {
	ScopeName() string
}

type singletonScope struct{}

func (singletonScope) ScopeName() string { return "singleton" }

// Singleton builds a component once and returns the same instance for the
// lifetime of the Context.
var Singleton Scope = singletonScope{}

// Pooled keeps up to Size instances. They are built on demand until the
// pool is full, then handed out round-robin.
type Pooled struct {
	Size int
}

func (Pooled) ScopeName() string { return "pooled" }

// NamedScope references a custom scope registered with Config.RegisterScope.
type NamedScope string

func (s NamedScope) ScopeName() string { return string(s) }

// DecoratorFactory wraps a provider with the caching policy of a scope.
// The scope tag given at bind time is passed along so parameterized scopes
// can read their settings. Decorators must forward Dependencies unchanged.
type DecoratorFactory func(scope Scope, provider Provider) (Provider, error)

// singletonProvider caches the first instance built.
type singletonProvider struct {
	provider Provider

	mu       sync.Mutex
	instance any
	built    bool
}

func decorateSingleton(_ Scope, provider Provider) (Provider, error) {
	return &singletonProvider{provider: provider}, nil
}

func (p *singletonProvider) Get(ctx *Context) (any, error) {
	p.mu.Lock()
	if p.built {
		instance := p.instance
		p.mu.Unlock()
		return instance, nil
	}
	p.mu.Unlock()

	// Build outside the lock; the provider may resolve other scoped
	// components.
	instance, err := p.provider.Get(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.built {
		p.instance = instance
		p.built = true
	}

	return p.instance, nil
}

func (p *singletonProvider) Dependencies() []Ref {
	return p.provider.Dependencies()
}

// pooledProvider grows a pool up to size, then returns members by call
// counter modulo size.
type pooledProvider struct {
	provider Provider
	size     int

	mu      sync.Mutex
	pool    []any
	counter int
}

func decoratePooled(scope Scope, provider Provider) (Provider, error) {
	var pooled Pooled
	switch s := scope.(type) {
	case Pooled:
		pooled = s
	case *Pooled:
		if s == nil {
			return nil, fmt.Errorf("%w: nil pooled scope", ErrIllegalTag)
		}
		pooled = *s
	default:
		return nil, fmt.Errorf("%w: pooled scope requires a Pooled tag, got %T", ErrIllegalTag, scope)
	}

	if pooled.Size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPoolSize, pooled.Size)
	}

	return &pooledProvider{provider: provider, size: pooled.Size}, nil
}

func (p *pooledProvider) Get(ctx *Context) (any, error) {
	p.mu.Lock()
	n := p.counter
	p.counter++
	if len(p.pool) >= p.size {
		instance := p.pool[n%p.size]
		p.mu.Unlock()
		return instance, nil
	}
	p.mu.Unlock()

	instance, err := p.provider.Get(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pool) < p.size {
		p.pool = append(p.pool, instance)
		return instance, nil
	}

	return p.pool[n%p.size], nil
}

func (p *pooledProvider) Dependencies() []Ref {
	return p.provider.Dependencies()
}
