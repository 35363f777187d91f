// Package digbridge exposes the bindings of a committed ioc.Context to a
// go.uber.org/dig container.
//
// Each exported binding becomes a dig constructor that resolves the
// component from the Context on demand, so the binding's scope keeps
// deciding whether instances are shared.
//
//	ctx, _ := config.Commit()
//
//	c := dig.New()
//	if err := digbridge.Export(ctx, c); err != nil {
//	    return err
//	}
//
//	err := c.Invoke(func(logger Logger) { ... })
package digbridge

import (
	"fmt"
	"reflect"

	"github.com/junioryono/ioc"
	"go.uber.org/dig"
)

var errType = reflect.TypeFor[error]()

// Export provides every binding of ctx to c.
//
// Unqualified bindings are provided by type. Bindings qualified with
// ioc.Named are provided with dig.Name. Bindings carrying any other
// qualifier have no dig equivalent and are skipped.
func Export(ctx *ioc.Context, c *dig.Container) error {
	for _, id := range ctx.Bindings() {
		var opts []dig.ProvideOption

		switch q := id.Qualifier.(type) {
		case nil:
		case ioc.Named:
			opts = append(opts, dig.Name(string(q)))
		default:
			continue
		}

		if err := c.Provide(constructorFor(ctx, id), opts...); err != nil {
			return fmt.Errorf("export %s: %w", id, err)
		}
	}

	return nil
}

// constructorFor builds a func() (T, error) that resolves id from ctx.
func constructorFor(ctx *ioc.Context, id ioc.Identity) any {
	fnType := reflect.FuncOf(nil, []reflect.Type{id.Type, errType}, false)

	fn := reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		instance, ok, err := ctx.Get(ioc.Direct(id))
		if err == nil && !ok {
			err = fmt.Errorf("%w: %s", ioc.ErrUnavailable, id)
		}

		out := reflect.Zero(id.Type)
		if err == nil && instance != nil {
			out = reflect.ValueOf(instance)
			if out.Type() != id.Type {
				out = out.Convert(id.Type)
			}
		}

		errOut := reflect.Zero(errType)
		if err != nil {
			errOut = reflect.ValueOf(&err).Elem()
		}

		return []reflect.Value{out, errOut}
	})

	return fn.Interface()
}
