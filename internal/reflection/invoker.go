package reflection

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// PanicError is returned by Call when the invoked function panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Call invokes fn with args. A trailing error result is split off and
// returned as err; a panic is recovered into a *PanicError.
func Call(fn reflect.Value, args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if v := recover(); v != nil {
			results = nil
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()

	results = fn.Call(args)

	if n := len(results); n > 0 && fn.Type().Out(n-1) == errType {
		if last := results[n-1]; !last.IsNil() {
			return nil, last.Interface().(error)
		}
		results = results[:n-1]
	}

	return results, nil
}

// Arguments converts resolved values to call arguments for the given
// parameter types. A nil value becomes the zero value of its parameter.
func Arguments(types []reflect.Type, values []any) ([]reflect.Value, error) {
	if len(types) != len(values) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(types), len(values))
	}

	args := make([]reflect.Value, len(values))
	for i, v := range values {
		arg, err := Value(types[i], v)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = arg
	}

	return args, nil
}

// Value converts v to a value assignable to t.
func Value(t reflect.Type, v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%v is not assignable to %v", rv.Type(), t)
	}

	if rv.Type() != t {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}

	return rv, nil
}
