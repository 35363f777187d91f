package ioc

import (
	"fmt"
	"reflect"
)

// Config is the binding registry. Components are bound to identities,
// then Commit validates the whole graph and produces a Context.
//
// Config is NOT thread-safe. It should be configured in a single goroutine
// before committing.
//
// Example:
//
//	config := ioc.NewConfig()
//	_ = ioc.Bind[Logger](config, NewConsoleLogger())
//	_ = ioc.BindType[Repository, *SQLRepository](config, ioc.Singleton)
//
//	ctx, err := config.Commit()
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	opts   *configOptions
	plans  *planCache
	scopes map[string]DecoratorFactory

	bindings map[Identity]*binding
	order    []Identity // registration order, keeps diagnostics deterministic

	committed bool
}

// binding is a registered provider with the details used for diagnostics.
type binding struct {
	identity Identity
	provider Provider
	impl     reflect.Type // nil for instance bindings
	scope    string       // scope name, empty when unscoped
}

// NewConfig creates an empty Config. The "singleton" and "pooled" scopes
// are registered by default.
func NewConfig(opts ...Option) *Config {
	o := defaultConfigOptions()
	for _, opt := range opts {
		if opt != nil {
			opt.apply(o)
		}
	}

	return &Config{
		opts:  o,
		plans: newPlanCache(o.source),
		scopes: map[string]DecoratorFactory{
			Singleton.ScopeName(): decorateSingleton,
			Pooled{}.ScopeName():  decoratePooled,
		},
		bindings: make(map[Identity]*binding),
	}
}

// Bind binds a pre-built instance to the declared type. The instance has no
// dependencies and is returned as is on every lookup.
//
// Tags may be qualifiers; the instance is then bound once per qualifier
// instead of to the unqualified identity. Instance bindings cannot carry a
// scope.
func (c *Config) Bind(declared reflect.Type, instance any, tags ...any) error {
	if c.committed {
		return ErrAlreadyCommitted
	}
	if declared == nil {
		return IllegalComponentError{Cause: ErrTypeNil}
	}
	if isNil(instance) {
		return IllegalComponentError{Type: declared, Cause: ErrNilInstance}
	}

	instanceType := reflect.TypeOf(instance)
	if !instanceType.AssignableTo(declared) {
		return IllegalComponentError{
			Type:  instanceType,
			Cause: fmt.Errorf("%w: %s", ErrNotAssignable, formatType(declared)),
		}
	}

	qualifiers, scope, err := c.parseTags(tags)
	if err != nil {
		return IllegalComponentError{Type: instanceType, Cause: err}
	}
	if scope != nil {
		return IllegalComponentError{
			Type:  instanceType,
			Cause: fmt.Errorf("%w: instance bindings cannot be scoped (%s)", ErrIllegalTag, scope.ScopeName()),
		}
	}

	c.register(declared, qualifiers, &binding{
		provider: &instanceProvider{instance: instance},
	})

	return nil
}

// BindType binds the implementation type impl to the declared type. The
// component is built by an injection provider following impl's injection
// points.
//
// Tags may be qualifiers and at most one scope. With qualifiers the
// binding is registered once per qualifier, and all of them share one
// provider and therefore one scope cache. An explicit scope overrides the
// default scope impl declares.
func (c *Config) BindType(declared, impl reflect.Type, tags ...any) error {
	if c.committed {
		return ErrAlreadyCommitted
	}
	if declared == nil || impl == nil {
		return IllegalComponentError{Type: impl, Cause: ErrTypeNil}
	}

	qualifiers, scope, err := c.parseTags(tags)
	if err != nil {
		return IllegalComponentError{Type: impl, Cause: err}
	}

	plan, err := c.plans.plan(impl)
	if err != nil {
		return IllegalComponentError{Type: impl, Cause: err}
	}

	if !impl.AssignableTo(declared) {
		return IllegalComponentError{
			Type:  impl,
			Cause: fmt.Errorf("%w: %s", ErrNotAssignable, formatType(declared)),
		}
	}

	if scope == nil {
		scope = plan.scope
	}

	var provider Provider = newInjectionProvider(plan, c.opts.objects)
	var scopeName string

	if scope != nil {
		scopeName = scope.ScopeName()

		factory, ok := c.scopes[scopeName]
		if !ok {
			return IllegalComponentError{Type: impl, Cause: fmt.Errorf("%w: %q", ErrUnknownScope, scopeName)}
		}

		provider, err = factory(scope, provider)
		if err != nil {
			return IllegalComponentError{Type: impl, Cause: err}
		}
	}

	c.register(declared, qualifiers, &binding{
		provider: provider,
		impl:     impl,
		scope:    scopeName,
	})

	return nil
}

// RegisterScope registers a decorator factory under name. Bindings tagged
// with a Scope whose ScopeName is name are wrapped by the factory.
// Registering a name again replaces the previous factory, including the
// built-in "singleton" and "pooled" scopes.
func (c *Config) RegisterScope(name string, factory DecoratorFactory) error {
	if c.committed {
		return ErrAlreadyCommitted
	}
	if name == "" {
		return ErrScopeNameEmpty
	}
	if factory == nil {
		return ErrDecoratorNil
	}

	if _, exists := c.scopes[name]; exists {
		c.opts.logger.Debug("scope replaced", "scope", name)
	} else {
		c.opts.logger.Debug("scope registered", "scope", name)
	}

	c.scopes[name] = factory
	return nil
}

// Contains reports whether id is bound.
func (c *Config) Contains(id Identity) bool {
	_, ok := c.bindings[id]
	return ok
}

// Len returns the number of bound identities.
func (c *Config) Len() int {
	return len(c.order)
}

// Commit validates the dependency graph and returns the Context. It fails
// with a MissingDependencyError when a declared dependency is not bound,
// and with a CyclicDependencyError when components depend on each other
// through direct references only.
//
// A Config can be committed once. After a successful commit, Bind,
// BindType, RegisterScope and Commit return ErrAlreadyCommitted.
func (c *Config) Commit() (*Context, error) {
	if c.committed {
		return nil, ErrAlreadyCommitted
	}

	g := c.buildGraph()
	if err := validateGraph(g); err != nil {
		c.opts.logger.Debug("validation failed", "error", err)
		return nil, err
	}

	ctx := newContext(c.bindings, c.order, g)
	c.committed = true

	c.opts.logger.Info("configuration committed",
		"context", ctx.ID(),
		"bindings", len(c.order),
		"plans", c.plans.size(),
	)

	return ctx, nil
}

// parseTags splits tags into qualifiers and a scope. A tag implementing
// both interfaces counts as a scope.
func (c *Config) parseTags(tags []any) ([]Qualifier, Scope, error) {
	var qualifiers []Qualifier
	var scope Scope

	for _, tag := range tags {
		switch t := tag.(type) {
		case Scope:
			if scope != nil {
				return nil, nil, fmt.Errorf("%w: %s and %s", ErrMultipleScopes, scope.ScopeName(), t.ScopeName())
			}
			scope = t
		case Qualifier:
			if !comparableQualifier(t) {
				return nil, nil, fmt.Errorf("%w: qualifier %T is not comparable", ErrIllegalTag, t)
			}
			qualifiers = append(qualifiers, t)
		default:
			return nil, nil, fmt.Errorf("%w: %T", ErrIllegalTag, tag)
		}
	}

	if scope != nil {
		if _, ok := c.scopes[scope.ScopeName()]; !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownScope, scope.ScopeName())
		}
	}

	return qualifiers, scope, nil
}

// register stores b under every qualified identity of declared, or under
// the unqualified identity when there are no qualifiers.
func (c *Config) register(declared reflect.Type, qualifiers []Qualifier, b *binding) {
	ids := []Identity{{Type: declared}}
	if len(qualifiers) > 0 {
		ids = ids[:0]
		for _, q := range qualifiers {
			ids = append(ids, Identity{Type: declared, Qualifier: q})
		}
	}

	for _, id := range ids {
		entry := *b
		entry.identity = id

		if _, exists := c.bindings[id]; exists {
			c.opts.logger.Warn("binding replaced", "identity", id.String())
		} else {
			c.order = append(c.order, id)
		}

		c.bindings[id] = &entry

		c.opts.logger.Debug("component bound",
			"identity", id.String(),
			"implementation", formatType(b.impl),
			"scope", b.scope,
		)
	}
}

// Bind binds instance to T. See Config.Bind.
func Bind[T any](c *Config, instance T, tags ...any) error {
	return c.Bind(reflect.TypeFor[T](), instance, tags...)
}

// BindType binds the implementation type I to T. See Config.BindType.
func BindType[T, I any](c *Config, tags ...any) error {
	return c.BindType(reflect.TypeFor[T](), reflect.TypeFor[I](), tags...)
}

// isNil reports whether v is nil or a nil pointer, map, slice, func,
// channel or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
