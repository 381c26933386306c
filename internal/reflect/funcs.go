package reflect

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeFor[error]()

// Signature describes a function usable as a constructor, factory or
// provider: func(params...) T or func(params...) (T, error).
type Signature struct {
	Fn       reflect.Value
	Params   []reflect.Type
	Out      reflect.Type
	HasError bool
}

func SignatureOf(fn any) (*Signature, error) {
	if fn == nil {
		return nil, fmt.Errorf("function is nil")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %s", t)
	}
	if t.IsVariadic() {
		return nil, fmt.Errorf("variadic function %s is not supported", t)
	}

	sig := &Signature{Fn: v}
	switch t.NumOut() {
	case 1:
		sig.Out = t.Out(0)
	case 2:
		if t.Out(1) != errorType {
			return nil, fmt.Errorf("second result of %s must be error", t)
		}
		sig.Out = t.Out(0)
		sig.HasError = true
	default:
		return nil, fmt.Errorf("function %s must return T or (T, error)", t)
	}
	if sig.Out == errorType {
		return nil, fmt.Errorf("function %s returns only an error", t)
	}

	sig.Params = make([]reflect.Type, t.NumIn())
	for i := range t.NumIn() {
		sig.Params[i] = t.In(i)
	}
	return sig, nil
}

// MethodSignature describes an injector method found by name on t. Params
// excludes the receiver. Results other than a single error are rejected.
func MethodSignature(t reflect.Type, name string) (reflect.Method, []reflect.Type, error) {
	m, ok := t.MethodByName(name)
	if !ok {
		return reflect.Method{}, nil, fmt.Errorf("type %s has no method %s", TypeKeyOf(t), name)
	}
	mt := m.Type
	if mt.IsVariadic() {
		return reflect.Method{}, nil, fmt.Errorf("variadic method %s.%s is not supported", TypeKeyOf(t), name)
	}
	switch {
	case mt.NumOut() == 0:
	case mt.NumOut() == 1 && mt.Out(0) == errorType:
	default:
		return reflect.Method{}, nil, fmt.Errorf("method %s.%s may only return an error", TypeKeyOf(t), name)
	}
	params := make([]reflect.Type, 0, mt.NumIn()-1)
	for i := 1; i < mt.NumIn(); i++ {
		params = append(params, mt.In(i))
	}
	return m, params, nil
}

// Call invokes fn and splits the optional trailing error. A panic in fn
// is returned as an error.
func Call(fn reflect.Value, args []reflect.Value, hasError bool) (reflect.Value, error) {
	results, err := Invoke(fn, args)
	if err != nil {
		return reflect.Value{}, err
	}
	if hasError && !results[1].IsNil() {
		return reflect.Value{}, results[1].Interface().(error)
	}
	return results[0], nil
}

// Invoke calls fn with args, recovering a panic as an error.
func Invoke(fn reflect.Value, args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn.Call(args), nil
}

// Arg converts a resolved value into an argument of type t. nil becomes
// the zero value of t.
func Arg(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		if rv.Type() != t {
			out := reflect.New(t).Elem()
			out.Set(rv)
			return out, nil
		}
		return rv, nil
	}
	if rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
		return rv.Convert(t), nil
	}
	if base, ok := embeddedAs(rv, t); ok {
		return base, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", TypeKeyOf(rv.Type()), TypeKeyOf(t))
}

// embeddedAs walks the embedded chain of a struct pointer for a base of
// type t. A value-embedded base is returned by address.
func embeddedAs(rv reflect.Value, t reflect.Type) (reflect.Value, bool) {
	for rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct {
		st := rv.Elem()
		next := reflect.Value{}
		for i := range st.NumField() {
			f := st.Type().Field(i)
			if !f.Anonymous || !f.IsExported() {
				continue
			}
			if _, ok := StructOf(f.Type); !ok {
				continue
			}
			fv := st.Field(i)
			if fv.Kind() == reflect.Struct {
				fv = fv.Addr()
			}
			next = fv
			break
		}
		if !next.IsValid() || (next.Kind() == reflect.Ptr && next.IsNil()) {
			return reflect.Value{}, false
		}
		if next.Type().AssignableTo(t) {
			return next, true
		}
		if next.Kind() == reflect.Ptr && next.Elem().Type().AssignableTo(t) {
			return next.Elem(), true
		}
		rv = next
	}
	return reflect.Value{}, false
}
