package synth

import (
	"context"
	"fmt"
	reflectPkg "reflect"

	"github.com/danpasecinic/spindle/internal/binding"
	"github.com/danpasecinic/spindle/internal/errs"
	"github.com/danpasecinic/spindle/internal/reflect"
	"github.com/danpasecinic/spindle/meta"
)

// Injector builds the post-construction initializer of t: tagged fields in
// declaration order, then injector methods of t's declaration, then those
// of the declarations t embeds. A failing step leaves earlier steps
// applied.
func (s *Synthesizer) Injector(t reflectPkg.Type) (binding.Initializer, error) {
	var steps []binding.Initializer

	fields, err := reflect.InjectFields(t)
	if err != nil {
		return binding.Initializer{}, errs.New(errs.CodeConfiguration, "invalid inject tags", err).
			WithKey(reflect.TypeKeyOf(t))
	}
	for _, f := range fields {
		init, err := s.fieldInjector(t, f)
		if err != nil {
			return binding.Initializer{}, err
		}
		steps = append(steps, init)
	}

	seen := make(map[string]bool)
	for _, m := range s.injectorMethods(t) {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		init, err := s.methodInjector(t, m)
		if err != nil {
			return binding.Initializer{}, err
		}
		steps = append(steps, init)
	}

	return binding.CombineInitializers(steps...), nil
}

// injectorMethods lists the methods of t's declaration, then walks the
// embedded chain.
func (s *Synthesizer) injectorMethods(t reflectPkg.Type) []meta.Method {
	var out []meta.Method
	visited := make(map[reflectPkg.Type]bool)
	for cur, ok := t, true; ok && !visited[cur]; cur, ok = reflect.Embedded(cur) {
		visited[cur] = true
		out = append(out, s.DeclOf(cur).Methods...)
	}
	return out
}

func (s *Synthesizer) fieldInjector(t reflectPkg.Type, f reflect.Field) (binding.Initializer, error) {
	var markers []any
	if f.Named != "" {
		markers = append(markers, meta.Named(f.Named))
	}
	key, err := s.keyOf(s.catalog.TypeOf(t), f.Type, markers)
	if err != nil {
		return binding.Initializer{}, err
	}
	dep := binding.Dependency{Key: key, Optional: f.Optional}
	owner := reflect.TypeKeyOf(t)

	return binding.NewInitializer(
		[]binding.Dependency{dep}, func(c binding.Compiler) binding.Apply {
			supplier := c(dep)
			return func(ctx context.Context, instance any) error {
				v, err := supplier(ctx)
				if err != nil {
					return err
				}
				// Absent optional fields keep whatever the constructor set.
				if _, absent := v.(binding.Absent); absent {
					return nil
				}
				rv := reflectPkg.ValueOf(instance)
				if rv.Kind() != reflectPkg.Ptr || rv.IsNil() {
					return errs.New(
						errs.CodeInvocation, fmt.Sprintf("cannot inject field %s into non-pointer %T", f.Name, instance), nil,
					).WithKey(owner)
				}
				field, err := reflect.FieldByIndex(rv, f.Index)
				if err != nil {
					return errs.New(errs.CodeInvocation, "field "+f.Name, err).WithKey(owner)
				}
				val, err := binding.Materialize(ctx, v, f.Type)
				if err != nil {
					return errs.New(errs.CodeInvocation, "field "+f.Name, err).WithKey(owner)
				}
				field.Set(val)
				return nil
			}
		},
	), nil
}

func (s *Synthesizer) methodInjector(t reflectPkg.Type, m meta.Method) (binding.Initializer, error) {
	method, params, err := reflect.MethodSignature(t, m.Name)
	if err != nil {
		return binding.Initializer{}, errs.New(errs.CodeConfiguration, "invalid injector method", err)
	}
	container := s.catalog.TypeOf(t)
	args, err := s.dependencies(container, params, m.Params)
	if err != nil {
		return binding.Initializer{}, err
	}
	// The owner leads the dependency set; the receiver itself is the
	// instance being initialized.
	deps := append([]binding.Dependency{binding.Require(binding.MustKey(container, nil))}, args...)
	owner := reflect.TypeKeyOf(t)
	hasError := method.Type.NumOut() == 1
	what := fmt.Sprintf("injector method %s.%s", t, m.Name)

	return binding.NewInitializer(
		deps, func(c binding.Compiler) binding.Apply {
			suppliers := make([]binding.Supplier, len(args))
			for i, dep := range args {
				suppliers[i] = c(dep)
			}
			return func(ctx context.Context, instance any) error {
				in := make([]reflectPkg.Value, 0, len(args)+1)
				recv := reflectPkg.ValueOf(instance)
				if recv.Type() != t {
					return errs.New(
						errs.CodeInvocation, fmt.Sprintf("%s called on %T", what, instance), nil,
					).WithKey(owner)
				}
				in = append(in, recv)
				for i, s := range suppliers {
					v, err := s(ctx)
					if err != nil {
						return err
					}
					arg, err := binding.Materialize(ctx, v, params[i])
					if err != nil {
						return errs.New(errs.CodeInvocation, fmt.Sprintf("argument %d of %s", i, what), err).
							WithKey(owner)
					}
					in = append(in, arg)
				}
				out, err := reflect.Invoke(method.Func, in)
				if err != nil {
					return errs.Invocation(owner, what+" failed", err)
				}
				if hasError && !out[0].IsNil() {
					return errs.Invocation(owner, what+" failed", out[0].Interface().(error))
				}
				return nil
			}
		},
	), nil
}
