package ioc

import (
	"fmt"
	"reflect"
	"slices"
)

// injectionPlan is the immutable description of how to build a concrete
// type: which constructor to call, which fields to assign (leaf level
// first) and which methods to call (ancestor level first).
type injectionPlan struct {
	typ         reflect.Type
	scope       Scope
	constructor *ConstructorPoint
	fields      []*FieldPoint
	methods     []*MethodPoint
}

// newInjectionPlan validates meta and selects its injection points.
func newInjectionPlan(meta *TypeMetadata) (*injectionPlan, error) {
	if meta.Abstract || meta.Type.Kind() == reflect.Interface {
		return nil, ErrAbstractComponent
	}

	ctor, err := selectConstructor(meta.Constructors)
	if err != nil {
		return nil, err
	}

	fields, err := collectFields(meta.Levels)
	if err != nil {
		return nil, err
	}

	methods, err := collectMethods(meta.Levels)
	if err != nil {
		return nil, err
	}

	plan := &injectionPlan{
		typ:         meta.Type,
		scope:       meta.Scope,
		constructor: ctor,
		fields:      fields,
		methods:     methods,
	}

	// Identities are map keys from Commit on.
	for _, ref := range plan.dependencies() {
		if !comparableQualifier(ref.Identity.Qualifier) {
			return nil, fmt.Errorf("%w: qualifier %T of %s is not comparable",
				ErrIllegalTag, ref.Identity.Qualifier, formatType(ref.Identity.Type))
		}
	}

	return plan, nil
}

func selectConstructor(ctors []*ConstructorPoint) (*ConstructorPoint, error) {
	var marked []*ConstructorPoint
	for _, c := range ctors {
		if c.Inject {
			marked = append(marked, c)
		}
	}

	switch len(marked) {
	case 0:
	case 1:
		return marked[0], nil
	default:
		return nil, fmt.Errorf("%w: found %d", ErrMultipleInjectConstructors, len(marked))
	}

	for _, c := range ctors {
		if len(c.Params) == 0 {
			return c, nil
		}
	}

	return nil, ErrNoConstructor
}

// collectFields returns the injection fields of every level, leaf first.
// Fields never override each other.
func collectFields(levels []*Level) ([]*FieldPoint, error) {
	var fields []*FieldPoint
	for _, level := range levels {
		for _, f := range level.Fields {
			if f.Immutable {
				return nil, fmt.Errorf("%w: %s.%s", ErrImmutableField, formatType(f.Owner), f.Name)
			}
			fields = append(fields, f)
		}
	}
	return fields, nil
}

// collectMethods walks the levels leaf first and keeps every marked method
// that is not overridden, then reverses the result so ancestors run first.
//
// A marked method is dropped when a level below it already contributed a
// marked method with the same signature, or when the leaf level declares
// an unmarked method with the same signature.
func collectMethods(levels []*Level) ([]*MethodPoint, error) {
	if len(levels) == 0 {
		return nil, nil
	}
	leaf := levels[0]

	var methods []*MethodPoint
	for _, level := range levels {
		for _, m := range level.Methods {
			if !m.Inject {
				continue
			}
			if m.TypeParams > 0 {
				return nil, fmt.Errorf("%w: %s.%s", ErrGenericMethod, formatType(m.Owner), m.Name)
			}
			if overriddenByMarked(methods, m) || overriddenByUnmarked(leaf, m) {
				continue
			}
			methods = append(methods, m)
		}
	}

	slices.Reverse(methods)
	return methods, nil
}

func overriddenByMarked(collected []*MethodPoint, m *MethodPoint) bool {
	return slices.ContainsFunc(collected, m.sameSignature)
}

func overriddenByUnmarked(leaf *Level, m *MethodPoint) bool {
	return slices.ContainsFunc(leaf.Methods, func(o *MethodPoint) bool {
		return !o.Inject && o.sameSignature(m)
	})
}

// dependencies returns constructor refs, then field refs, then method
// parameter refs.
func (p *injectionPlan) dependencies() []Ref {
	refs := slices.Clone(p.constructor.Params)
	for _, f := range p.fields {
		refs = append(refs, f.Ref)
	}
	for _, m := range p.methods {
		refs = append(refs, m.Params...)
	}
	return refs
}

// injectionProvider builds instances following an injection plan.
type injectionProvider struct {
	plan    *injectionPlan
	objects ObjectConstructor
	deps    []Ref
}

func newInjectionProvider(plan *injectionPlan, objects ObjectConstructor) *injectionProvider {
	return &injectionProvider{
		plan:    plan,
		objects: objects,
		deps:    plan.dependencies(),
	}
}

func (p *injectionProvider) Get(ctx *Context) (any, error) {
	args, err := p.resolveAll(ctx, p.plan.constructor.Params)
	if err != nil {
		return nil, err
	}

	instance, err := p.objects.Construct(p.plan.constructor, args)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", formatType(p.plan.typ), err)
	}

	for _, f := range p.plan.fields {
		value, err := p.resolve(ctx, f.Ref)
		if err != nil {
			return nil, err
		}
		if err := p.objects.Assign(instance, f, value); err != nil {
			return nil, fmt.Errorf("inject field %s.%s: %w", formatType(f.Owner), f.Name, err)
		}
	}

	for _, m := range p.plan.methods {
		args, err := p.resolveAll(ctx, m.Params)
		if err != nil {
			return nil, err
		}
		if err := p.objects.Call(instance, m, args); err != nil {
			return nil, fmt.Errorf("inject method %s.%s: %w", formatType(m.Owner), m.Name, err)
		}
	}

	return instance, nil
}

func (p *injectionProvider) Dependencies() []Ref {
	return p.deps
}

func (p *injectionProvider) resolveAll(ctx *Context, refs []Ref) ([]any, error) {
	values := make([]any, len(refs))
	for i, ref := range refs {
		value, err := p.resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

func (p *injectionProvider) resolve(ctx *Context, ref Ref) (any, error) {
	value, ok, err := ctx.Get(ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ResolutionError{Identity: ref.Identity, Cause: fmt.Errorf("%w: %s", ErrUnavailable, ref)}
	}
	return value, nil
}
