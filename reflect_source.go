package ioc

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/junioryono/ioc/internal/reflection"
)

// ReflectSource is a MetadataSource and ObjectConstructor built on runtime
// reflection.
//
// Fields are marked for injection with the inject struct tag:
//
//	type Ship struct {
//		Engine *Engine        `inject:""`
//		Pilot  Pilot          `inject:"name=han"`
//		Crew   Factory[*Crew] `inject:""`
//		Cargo  *Cargo         `inject:"-"`
//	}
//
// Go has no annotations on functions, so constructors and methods are
// declared with Describe. A struct type without declared constructors gets
// an implicit zero-argument constructor that allocates the zero value.
//
// The type hierarchy of a struct is the chain formed by its first embedded
// (by value) struct field, recursively. Methods run on the level that
// declares them, so an ancestor's method body is called on the embedded
// value.
type ReflectSource struct {
	analyzer *reflection.Analyzer

	mu           sync.RWMutex
	descriptions map[reflect.Type]*description
}

// description holds what Describe recorded for a struct type.
type description struct {
	ctors   []*ctorDecl
	methods []*methodDecl
	scope   Scope
	fieldQs map[string]Qualifier
}

type ctorDecl struct {
	fn         any
	inject     bool
	qualifiers []Qualifier
	info       *reflection.FuncInfo
}

type methodDecl struct {
	name       string
	inject     bool
	qualifiers []Qualifier
}

// DescribeOption declares constructors, methods and defaults of a type.
type DescribeOption func(*description)

// InjectConstructor declares fn as the injection constructor. fn must
// return the component, optionally followed by an error. The qualifiers
// apply to fn's parameters by position; nil leaves a parameter
// unqualified.
func InjectConstructor(fn any, qualifiers ...Qualifier) DescribeOption {
	return func(d *description) {
		d.ctors = append(d.ctors, &ctorDecl{fn: fn, inject: true, qualifiers: qualifiers})
	}
}

// DeclareConstructor declares fn as a constructor that is not marked for
// injection. Only a declared constructor without parameters is used in
// place of a marked one.
func DeclareConstructor(fn any, qualifiers ...Qualifier) DescribeOption {
	return func(d *description) {
		d.ctors = append(d.ctors, &ctorDecl{fn: fn, qualifiers: qualifiers})
	}
}

// InjectMethod marks the method called name for injection. The method is
// called after field injection with its parameters resolved.
func InjectMethod(name string, qualifiers ...Qualifier) DescribeOption {
	return func(d *description) {
		d.methods = append(d.methods, &methodDecl{name: name, inject: true, qualifiers: qualifiers})
	}
}

// DeclareMethod records that the type declares the method called name
// without marking it for injection. Declaring an unmarked method on the
// leaf type suppresses marked ancestor methods with the same signature.
func DeclareMethod(name string) DescribeOption {
	return func(d *description) {
		d.methods = append(d.methods, &methodDecl{name: name})
	}
}

// DefaultScope sets the scope used when a binding of the type carries no
// scope tag.
func DefaultScope(scope Scope) DescribeOption {
	return func(d *description) {
		d.scope = scope
	}
}

// QualifyField sets the qualifier of the tagged field called name. It
// overrides a name= option in the tag.
func QualifyField(name string, q Qualifier) DescribeOption {
	return func(d *description) {
		if d.fieldQs == nil {
			d.fieldQs = make(map[string]Qualifier)
		}
		d.fieldQs[name] = q
	}
}

// NewReflectSource creates an empty ReflectSource.
func NewReflectSource() *ReflectSource {
	return &ReflectSource{
		analyzer:     reflection.New(),
		descriptions: make(map[reflect.Type]*description),
	}
}

// Describe records constructors, methods and defaults for t. t may be a
// struct type or a pointer to one; both forms share one description.
// Describing a type again replaces its previous description.
func (s *ReflectSource) Describe(t reflect.Type, opts ...DescribeOption) error {
	if t == nil {
		return ErrTypeNil
	}

	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	d := &description{}
	for _, opt := range opts {
		opt(d)
	}

	for name, q := range d.fieldQs {
		if !comparableQualifier(q) {
			return fmt.Errorf("describe %s: %w: qualifier %T of field %s is not comparable",
				formatType(t), ErrIllegalTag, q, name)
		}
	}

	for _, c := range d.ctors {
		if err := checkQualifiers(c.qualifiers); err != nil {
			return fmt.Errorf("describe %s: %w", formatType(t), err)
		}
		info, err := s.analyzer.AnalyzeFunc(c.fn)
		if err != nil {
			return fmt.Errorf("describe %s: %w", formatType(t), err)
		}
		if len(c.qualifiers) > len(info.Params) {
			return fmt.Errorf("describe %s: %d qualifiers for %d constructor parameters",
				formatType(t), len(c.qualifiers), len(info.Params))
		}
		c.info = info
	}

	for _, m := range d.methods {
		if err := checkQualifiers(m.qualifiers); err != nil {
			return fmt.Errorf("describe %s: method %s: %w", formatType(t), m.name, err)
		}
		method, ok := reflect.PointerTo(base).MethodByName(m.name)
		if !ok {
			return fmt.Errorf("describe %s: no method %s", formatType(t), m.name)
		}
		if params := method.Type.NumIn() - 1; len(m.qualifiers) > params {
			return fmt.Errorf("describe %s: %d qualifiers for %d parameters of %s",
				formatType(t), len(m.qualifiers), params, m.name)
		}
	}

	s.mu.Lock()
	s.descriptions[base] = d
	s.mu.Unlock()

	return nil
}

func checkQualifiers(qs []Qualifier) error {
	for _, q := range qs {
		if !comparableQualifier(q) {
			return fmt.Errorf("%w: qualifier %T is not comparable", ErrIllegalTag, q)
		}
	}
	return nil
}

func (s *ReflectSource) description(t reflect.Type) *description {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if d, ok := s.descriptions[t]; ok {
		return d
	}
	return &description{}
}

// Metadata implements MetadataSource.
func (s *ReflectSource) Metadata(t reflect.Type) (*TypeMetadata, error) {
	if t == nil {
		return nil, ErrTypeNil
	}

	meta := &TypeMetadata{Type: t}
	if t.Kind() == reflect.Interface {
		meta.Abstract = true
		return meta, nil
	}

	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	isStruct := base.Kind() == reflect.Struct

	d := s.description(base)
	meta.Scope = d.scope

	for _, c := range d.ctors {
		if c.info.Result != t {
			continue
		}
		meta.Constructors = append(meta.Constructors, &ConstructorPoint{
			Params: paramRefs(c.info.Params, c.qualifiers),
			Inject: c.inject,
			Handle: &ctorHandle{fn: reflect.ValueOf(c.fn), params: c.info.Params},
		})
	}

	if len(d.ctors) == 0 && isStruct {
		meta.Constructors = append(meta.Constructors, &ConstructorPoint{
			Handle: &ctorHandle{zero: t},
		})
	}

	if !isStruct {
		return meta, nil
	}

	info, err := s.analyzer.AnalyzeStruct(base)
	if err != nil {
		var tagErr *reflection.TagError
		if errors.As(err, &tagErr) {
			return nil, fmt.Errorf("%w: %w", ErrIllegalTag, err)
		}
		return nil, err
	}

	// Only a pointer component can be mutated after construction.
	mutable := t.Kind() == reflect.Pointer

	for _, li := range info.Levels {
		level := &Level{Type: li.Type}
		ld := s.description(li.Type)

		for _, f := range li.Fields {
			var q Qualifier
			if f.Tag.Name != "" {
				q = Named(f.Tag.Name)
			}
			if fq, ok := ld.fieldQs[f.Name]; ok {
				q = fq
			}

			level.Fields = append(level.Fields, &FieldPoint{
				Owner:     li.Type,
				Name:      f.Name,
				Ref:       RefFor(f.Type, q),
				Immutable: !mutable || !f.Exported,
				Handle:    &fieldHandle{path: li.Index, index: f.Index},
			})
		}

		for _, md := range ld.methods {
			method, _ := reflect.PointerTo(li.Type).MethodByName(md.name)

			// Skip the receiver.
			params := make([]reflect.Type, method.Type.NumIn()-1)
			for i := range params {
				params[i] = method.Type.In(i + 1)
			}

			if md.inject && !mutable {
				return nil, fmt.Errorf("%w: method %s.%s needs a pointer component",
					ErrImmutableField, formatType(li.Type), md.name)
			}

			level.Methods = append(level.Methods, &MethodPoint{
				Owner:      li.Type,
				Name:       md.name,
				Params:     paramRefs(params, md.qualifiers),
				ParamTypes: params,
				Inject:     md.inject,
				Handle:     &methodHandle{path: li.Index, name: md.name, params: params},
			})
		}

		meta.Levels = append(meta.Levels, level)
	}

	return meta, nil
}

func paramRefs(params []reflect.Type, qualifiers []Qualifier) []Ref {
	refs := make([]Ref, len(params))
	for i, p := range params {
		var q Qualifier
		if i < len(qualifiers) {
			q = qualifiers[i]
		}
		refs[i] = RefFor(p, q)
	}
	return refs
}

type ctorHandle struct {
	fn     reflect.Value
	params []reflect.Type
	zero   reflect.Type // set for the implicit constructor
}

type fieldHandle struct {
	path  []int
	index int
}

type methodHandle struct {
	path   []int
	name   string
	params []reflect.Type
}

// Construct implements ObjectConstructor.
func (s *ReflectSource) Construct(ctor *ConstructorPoint, args []any) (any, error) {
	h, ok := ctor.Handle.(*ctorHandle)
	if !ok {
		return nil, fmt.Errorf("unexpected constructor handle %T", ctor.Handle)
	}

	if h.zero != nil {
		if h.zero.Kind() == reflect.Pointer {
			return reflect.New(h.zero.Elem()).Interface(), nil
		}
		return reflect.Zero(h.zero).Interface(), nil
	}

	in, err := reflection.Arguments(h.params, adaptAll(h.params, args))
	if err != nil {
		return nil, err
	}

	results, err := reflection.Call(h.fn, in)
	if err != nil {
		return nil, err
	}

	return results[0].Interface(), nil
}

// Assign implements ObjectConstructor.
func (s *ReflectSource) Assign(instance any, field *FieldPoint, value any) error {
	h, ok := field.Handle.(*fieldHandle)
	if !ok {
		return fmt.Errorf("unexpected field handle %T", field.Handle)
	}

	level, err := levelValue(instance, h.path)
	if err != nil {
		return err
	}

	target := level.Field(h.index)
	v, err := reflection.Value(target.Type(), adaptDeferred(target.Type(), value))
	if err != nil {
		return err
	}

	target.Set(v)
	return nil
}

// Call implements ObjectConstructor.
func (s *ReflectSource) Call(instance any, method *MethodPoint, args []any) error {
	h, ok := method.Handle.(*methodHandle)
	if !ok {
		return fmt.Errorf("unexpected method handle %T", method.Handle)
	}

	level, err := levelValue(instance, h.path)
	if err != nil {
		return err
	}

	fn := level.Addr().MethodByName(h.name)
	if !fn.IsValid() {
		return fmt.Errorf("no method %s on %s", h.name, formatType(level.Type()))
	}

	in, err := reflection.Arguments(h.params, adaptAll(h.params, args))
	if err != nil {
		return err
	}

	_, err = reflection.Call(fn, in)
	return err
}

// levelValue returns the addressable struct value at path inside instance.
func levelValue(instance any, path []int) (reflect.Value, error) {
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("cannot inject into %T", instance)
	}
	return v.Elem().FieldByIndex(path), nil
}

func adaptAll(types []reflect.Type, values []any) []any {
	adapted := make([]any, len(values))
	for i, v := range values {
		if i < len(types) {
			v = adaptDeferred(types[i], v)
		}
		adapted[i] = v
	}
	return adapted
}
