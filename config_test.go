package ioc_test

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/junioryono/ioc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notATag struct{}

type sliceQualifier []string

func (sliceQualifier) Qualifier() string { return "slice" }

func TestConfig_Bind(t *testing.T) {
	t.Run("resolves the bound instance", func(t *testing.T) {
		t.Parallel()

		logger := &RecordingLogger{Name: "console"}

		c := newConfig(t)
		require.NoError(t, ioc.Bind[Logger](c, logger))

		ctx := commit(t, c)
		assert.Same(t, logger, resolve[Logger](t, ctx))
		assert.Same(t, logger, resolve[Logger](t, ctx))
	})

	t.Run("instance has no dependencies", func(t *testing.T) {
		t.Parallel()

		c := newConfig(t)
		require.NoError(t, ioc.Bind(c, &Ship{}))

		ctx := commit(t, c)
		provider, ok := ctx.Provider(ioc.IdentityOf[*Ship]())
		require.True(t, ok)
		assert.Empty(t, provider.Dependencies())
	})

	tests := []struct {
		name     string
		declared reflect.Type
		instance any
		tags     []any
		wantErr  error
	}{
		{
			name:     "nil instance",
			declared: reflect.TypeFor[Logger](),
			instance: nil,
			wantErr:  ioc.ErrNilInstance,
		},
		{
			name:     "typed nil instance",
			declared: reflect.TypeFor[Logger](),
			instance: (*RecordingLogger)(nil),
			wantErr:  ioc.ErrNilInstance,
		},
		{
			name:     "nil type",
			declared: nil,
			instance: &Engine{},
			wantErr:  ioc.ErrTypeNil,
		},
		{
			name:     "not assignable",
			declared: reflect.TypeFor[Logger](),
			instance: &Engine{},
			wantErr:  ioc.ErrNotAssignable,
		},
		{
			name:     "scope on instance",
			declared: reflect.TypeFor[*Engine](),
			instance: &Engine{},
			tags:     []any{ioc.Singleton},
			wantErr:  ioc.ErrIllegalTag,
		},
		{
			name:     "tag that is neither qualifier nor scope",
			declared: reflect.TypeFor[*Engine](),
			instance: &Engine{},
			tags:     []any{notATag{}},
			wantErr:  ioc.ErrIllegalTag,
		},
		{
			name:     "string tag",
			declared: reflect.TypeFor[*Engine](),
			instance: &Engine{},
			tags:     []any{"primary"},
			wantErr:  ioc.ErrIllegalTag,
		},
		{
			name:     "non comparable qualifier",
			declared: reflect.TypeFor[*Engine](),
			instance: &Engine{},
			tags:     []any{sliceQualifier{"a"}},
			wantErr:  ioc.ErrIllegalTag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := newConfig(t).Bind(tt.declared, tt.instance, tt.tags...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, ioc.IsIllegalComponent(err))
		})
	}
}

func TestConfig_BindType(t *testing.T) {
	tests := []struct {
		name     string
		describe []func(s *ioc.ReflectSource)
		bind     func(c *ioc.Config) error
		wantErr  error
	}{
		{
			name: "interface implementation",
			bind: func(c *ioc.Config) error {
				return ioc.BindType[Logger, Logger](c)
			},
			wantErr: ioc.ErrAbstractComponent,
		},
		{
			name: "not assignable",
			bind: func(c *ioc.Config) error {
				return ioc.BindType[Logger, *Engine](c)
			},
			wantErr: ioc.ErrNotAssignable,
		},
		{
			name: "multiple injection constructors",
			describe: []func(s *ioc.ReflectSource){
				describeType[*Declared](t,
					ioc.InjectConstructor(func() *Declared { return &Declared{Name: "a"} }),
					ioc.InjectConstructor(func() *Declared { return &Declared{Name: "b"} }),
				),
			},
			bind: func(c *ioc.Config) error {
				return ioc.BindType[*Declared, *Declared](c)
			},
			wantErr: ioc.ErrMultipleInjectConstructors,
		},
		{
			name: "no usable constructor",
			describe: []func(s *ioc.ReflectSource){
				describeType[*NoDefault](t, ioc.DeclareConstructor(NewNoDefault)),
			},
			bind: func(c *ioc.Config) error {
				return ioc.BindType[*NoDefault, *NoDefault](c)
			},
			wantErr: ioc.ErrNoConstructor,
		},
		{
			name: "unexported injection field",
			bind: func(c *ioc.Config) error {
				return ioc.BindType[*Locked, *Locked](c)
			},
			wantErr: ioc.ErrImmutableField,
		},
		{
			name: "injection field on a value component",
			bind: func(c *ioc.Config) error {
				return ioc.BindType[Ship, Ship](c)
			},
			wantErr: ioc.ErrImmutableField,
		},
		{
			name: "two scopes",
			bind: func(c *ioc.Config) error {
				return ioc.BindType[*Engine, *Engine](c, ioc.Singleton, ioc.Pooled{Size: 2})
			},
			wantErr: ioc.ErrMultipleScopes,
		},
		{
			name: "unknown scope",
			bind: func(c *ioc.Config) error {
				return ioc.BindType[*Engine, *Engine](c, ioc.NamedScope("request"))
			},
			wantErr: ioc.ErrUnknownScope,
		},
		{
			name: "unknown default scope",
			describe: []func(s *ioc.ReflectSource){
				describeType[*Engine](t, ioc.DefaultScope(ioc.NamedScope("request"))),
			},
			bind: func(c *ioc.Config) error {
				return ioc.BindType[*Engine, *Engine](c)
			},
			wantErr: ioc.ErrUnknownScope,
		},
		{
			name: "illegal tag",
			bind: func(c *ioc.Config) error {
				return ioc.BindType[*Engine, *Engine](c, 42)
			},
			wantErr: ioc.ErrIllegalTag,
		},
		{
			name: "malformed inject tag",
			bind: func(c *ioc.Config) error {
				type badTag struct {
					Engine *Engine `inject:"optional"`
				}
				return ioc.BindType[*badTag, *badTag](c)
			},
			wantErr: ioc.ErrIllegalTag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bind(newConfig(t, tt.describe...))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var illegal ioc.IllegalComponentError
			require.True(t, errors.As(err, &illegal))
		})
	}
}

func TestConfig_Qualifiers(t *testing.T) {
	t.Run("bound only under qualifiers", func(t *testing.T) {
		t.Parallel()

		c := newConfig(t)
		require.NoError(t, ioc.BindType[*Engine, *Engine](c, ioc.Named("v8"), Skywalker{}))

		assert.True(t, c.Contains(ioc.IdentityOf[*Engine]().With(ioc.Named("v8"))))
		assert.True(t, c.Contains(ioc.IdentityOf[*Engine]().With(Skywalker{})))
		assert.False(t, c.Contains(ioc.IdentityOf[*Engine]()))
		assert.Equal(t, 2, c.Len())
	})

	t.Run("qualified bindings resolve independently", func(t *testing.T) {
		t.Parallel()

		primary := &RecordingLogger{Name: "primary"}
		secondary := &RecordingLogger{Name: "secondary"}

		c := newConfig(t)
		require.NoError(t, ioc.Bind[Logger](c, primary, ioc.Named("primary")))
		require.NoError(t, ioc.Bind[Logger](c, secondary, ioc.Named("secondary")))
		bindSelf[*Fleet](t, c)

		ctx := commit(t, c)
		fleet := resolve[*Fleet](t, ctx)
		assert.Same(t, primary, fleet.Primary)
		assert.Same(t, secondary, fleet.Secondary)

		_, ok, err := ioc.Resolve[Logger](ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		named, ok, err := ioc.ResolveQualified[Logger](ctx, ioc.Named("secondary"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Same(t, secondary, named)
	})

	t.Run("qualifier equality is by value", func(t *testing.T) {
		t.Parallel()

		c := newConfig(t)
		require.NoError(t, ioc.Bind(c, &Engine{Cylinders: 8}, Skywalker{}))

		ctx := commit(t, c)
		engine, ok, err := ioc.ResolveQualified[*Engine](ctx, Skywalker{})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 8, engine.Cylinders)
	})
}

func TestConfig_LastWriteWins(t *testing.T) {
	var buf bytes.Buffer

	first := &RecordingLogger{Name: "first"}
	second := &RecordingLogger{Name: "second"}

	c := ioc.NewConfig(ioc.WithReflectSource(ioc.NewReflectSource()), ioc.WithLogger(newDebugLogger(&buf)))
	require.NoError(t, ioc.Bind[Logger](c, first))
	require.NoError(t, ioc.Bind[Logger](c, second))
	assert.Equal(t, 1, c.Len())

	ctx := commit(t, c)
	assert.Same(t, second, resolve[Logger](t, ctx))

	out := buf.String()
	assert.Contains(t, out, "binding replaced")
	assert.Contains(t, out, "component bound")
	assert.Contains(t, out, "configuration committed")
}

func TestConfig_RegisterScope(t *testing.T) {
	t.Parallel()

	passthrough := func(_ ioc.Scope, p ioc.Provider) (ioc.Provider, error) { return p, nil }

	c := newConfig(t)
	assert.ErrorIs(t, c.RegisterScope("", passthrough), ioc.ErrScopeNameEmpty)
	assert.ErrorIs(t, c.RegisterScope("request", nil), ioc.ErrDecoratorNil)
	assert.NoError(t, c.RegisterScope("request", passthrough))
	assert.NoError(t, ioc.BindType[*Engine, *Engine](c, ioc.NamedScope("request")))
}

func TestConfig_Commit(t *testing.T) {
	t.Run("commits once", func(t *testing.T) {
		t.Parallel()

		c := newConfig(t)
		commit(t, c)

		_, err := c.Commit()
		assert.ErrorIs(t, err, ioc.ErrAlreadyCommitted)
		assert.ErrorIs(t, ioc.Bind(c, &Engine{}), ioc.ErrAlreadyCommitted)
		assert.ErrorIs(t, ioc.BindType[*Engine, *Engine](c), ioc.ErrAlreadyCommitted)
		assert.ErrorIs(t, c.RegisterScope("request", nil), ioc.ErrAlreadyCommitted)
	})

	t.Run("failed commit can be fixed", func(t *testing.T) {
		t.Parallel()

		c := newConfig(t)
		bindSelf[*Ship](t, c)

		_, err := c.Commit()
		require.Error(t, err)
		assert.True(t, ioc.IsMissingDependency(err))

		bindSelf[*Engine](t, c)
		ctx := commit(t, c)
		assert.NotNil(t, resolve[*Ship](t, ctx).Engine)
	})
}
