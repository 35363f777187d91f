package ioc_test

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/junioryono/ioc"
	"github.com/stretchr/testify/require"
)

// Test types

type Logger interface {
	Log(msg string)
}

type RecordingLogger struct {
	Name  string
	Lines []string
}

func (l *RecordingLogger) Log(msg string) {
	l.Lines = append(l.Lines, msg)
}

type Engine struct {
	Cylinders int
}

type Ship struct {
	Engine *Engine `inject:""`
}

type Pilot struct {
	Ship *Ship `inject:""`
}

// Qualifiers

type Skywalker struct{}

func (Skywalker) Qualifier() string { return "skywalker" }

type Jedi struct {
	Ship *Ship
}

func NewJedi(ship *Ship) *Jedi {
	return &Jedi{Ship: ship}
}

type Fleet struct {
	Primary   Logger `inject:"name=primary"`
	Secondary Logger `inject:"name=secondary"`
}

// Cycles

type Alpha struct {
	Beta *Beta `inject:""`
}

type Beta struct {
	Alpha *Alpha `inject:""`
}

type CycleA struct {
	B *CycleB `inject:""`
}

type CycleB struct {
	C *CycleC `inject:""`
}

type CycleC struct {
	A *CycleA `inject:""`
}

type Left struct {
	Right ioc.Factory[*Right] `inject:""`
}

type Right struct {
	Left *Left `inject:""`
}

// Constructors

type Service struct {
	Logger Logger
	Engine *Engine
}

func NewService(logger Logger, engine *Engine) *Service {
	return &Service{Logger: logger, Engine: engine}
}

var errBoom = errors.New("boom")

type Failing struct {
	Attempts int
}

func NewFailing() (*Failing, error) {
	return nil, errBoom
}

type Panicking struct {
	Attempts int
}

func NewPanicking() *Panicking {
	panic(errBoom)
}

type Declared struct {
	Name string
}

type NoDefault struct {
	Engine *Engine
}

func NewNoDefault(engine *Engine) *NoDefault {
	return &NoDefault{Engine: engine}
}

type Locked struct {
	engine *Engine `inject:""`
}

// Hierarchies

type SuperClass struct {
	SuperCalled int
}

func (s *SuperClass) Install() { s.SuperCalled++ }

type SubWithUnmarked struct {
	SuperClass
}

func (s *SubWithUnmarked) Install() {}

type SubWithMarked struct {
	SuperClass
	SubCalled int
}

func (s *SubWithMarked) Install() { s.SubCalled++ }

type SubNoOverride struct {
	SuperClass
	Extra int
}

type OrderBase struct {
	Order  []string
	Logger Logger `inject:""`
}

func (b *OrderBase) InstallBase(engine *Engine) {
	b.Order = append(b.Order, "base")
}

type OrderLeaf struct {
	OrderBase
	Engine *Engine `inject:""`
}

func (l *OrderLeaf) InstallLeaf(logger Logger) {
	l.Order = append(l.Order, "leaf")
}

// Factory injection

type Dispatcher struct {
	Factory  ioc.Factory[*Engine]
	Injected ioc.Factory[*Engine]
}

func NewDispatcher(factory ioc.Factory[*Engine]) *Dispatcher {
	return &Dispatcher{Factory: factory}
}

func (d *Dispatcher) SetFactory(factory ioc.Factory[*Engine]) {
	d.Injected = factory
}

// Helpers

// newConfig creates a Config backed by a fresh ReflectSource so tests do not
// share descriptions.
func newConfig(t *testing.T, describe ...func(s *ioc.ReflectSource)) *ioc.Config {
	t.Helper()

	source := ioc.NewReflectSource()
	for _, d := range describe {
		d(source)
	}

	return ioc.NewConfig(ioc.WithReflectSource(source))
}

// describeType is a describe helper for newConfig.
func describeType[T any](t *testing.T, opts ...ioc.DescribeOption) func(s *ioc.ReflectSource) {
	return func(s *ioc.ReflectSource) {
		require.NoError(t, s.Describe(reflect.TypeFor[T](), opts...))
	}
}

// bindSelf binds T to itself.
func bindSelf[T any](t *testing.T, c *ioc.Config, tags ...any) {
	t.Helper()
	require.NoError(t, ioc.BindType[T, T](c, tags...))
}

func commit(t *testing.T, c *ioc.Config) *ioc.Context {
	t.Helper()
	ctx, err := c.Commit()
	require.NoError(t, err)
	return ctx
}

func resolve[T any](t *testing.T, ctx *ioc.Context) T {
	t.Helper()
	instance, ok, err := ioc.Resolve[T](ctx)
	require.NoError(t, err)
	require.True(t, ok, "%s is not bound", reflect.TypeFor[T]())
	return instance
}

func newDebugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
