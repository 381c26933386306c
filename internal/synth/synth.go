// Package synth derives bindings from declarations: constructors, factory
// and provides funcs, tagged fields and injector methods.
package synth

import (
	"context"
	"fmt"
	reflectPkg "reflect"
	"runtime"
	"strings"

	"github.com/danpasecinic/spindle/internal/binding"
	"github.com/danpasecinic/spindle/internal/errs"
	"github.com/danpasecinic/spindle/internal/reflect"
	"github.com/danpasecinic/spindle/meta"
	"github.com/danpasecinic/spindle/types"
)

type Synthesizer struct {
	catalog *meta.Catalog
}

func New(catalog *meta.Catalog) *Synthesizer {
	if catalog == nil {
		catalog = meta.DefaultCatalog
	}
	return &Synthesizer{catalog: catalog}
}

func (s *Synthesizer) Catalog() *meta.Catalog { return s.catalog }

// DeclOf returns the declaration of t, or a bare one when t was never
// declared.
func (s *Synthesizer) DeclOf(t reflectPkg.Type) *meta.Decl {
	if d, ok := s.catalog.DeclOf(t); ok {
		return d
	}
	return &meta.Decl{Type: t}
}

// KeyOf is the key a type is bound under: its type expression and the
// qualifier among its declaration's markers.
func (s *Synthesizer) KeyOf(t reflectPkg.Type) (binding.Key, error) {
	q, err := meta.QualifierOf(s.DeclOf(t).Markers)
	if err != nil {
		return binding.Key{}, err
	}
	return checkedKey(s.catalog.TypeOf(t), q)
}

// keyOf builds the key of a parameter or field. Type variables in its type
// expression are bound through the declaring type's hierarchy.
func (s *Synthesizer) keyOf(container types.Type, t reflectPkg.Type, markers []any) (binding.Key, error) {
	expr, ok := meta.TypeOverride(markers)
	if !ok {
		expr = s.catalog.TypeOf(t)
	}
	if container != nil && types.HasVars(expr) {
		bound, err := types.Substitute(expr, types.AllTypeBindings(container))
		if err != nil {
			return binding.Key{}, errs.New(errs.CodeConfiguration, "cannot bind "+expr.String(), err)
		}
		expr = bound
	}
	q, err := meta.QualifierOf(markers)
	if err != nil {
		return binding.Key{}, err
	}
	return checkedKey(expr, q)
}

func checkedKey(expr types.Type, qualifier any) (binding.Key, error) {
	k, err := binding.NewKey(expr, qualifier)
	if err != nil {
		return binding.Key{}, errs.New(errs.CodeConfiguration, "invalid key "+expr.String(), err)
	}
	return k, nil
}

func (s *Synthesizer) dependencies(container types.Type, params []reflectPkg.Type, markers [][]any) ([]binding.Dependency, error) {
	deps := make([]binding.Dependency, len(params))
	for i, p := range params {
		m := meta.ParamMarkers(markers, i)
		key, err := s.keyOf(container, p, m)
		if err != nil {
			return nil, err
		}
		deps[i] = binding.Dependency{Key: key, Optional: meta.IsOptional(m)}
	}
	return deps, nil
}

// Implicit synthesizes the binding of a concrete type: the selected
// constructor or factory, the type's scope and its injecting initializer.
func (s *Synthesizer) Implicit(key binding.Key, t reflectPkg.Type) (*binding.Binding, error) {
	decl := s.DeclOf(t)
	b, err := s.construct(key, t, decl)
	if err != nil {
		return nil, err
	}
	sc, err := meta.ScopeOf(decl.Markers)
	if err != nil {
		return nil, err
	}
	if sc != nil {
		b = b.WithScope(sc)
	}
	init, err := s.Injector(t)
	if err != nil {
		return nil, err
	}
	return b.InitializeWith(init), nil
}

func failedImplicit(key binding.Key, msg string) error {
	return errs.Configuration("failed to generate implicit binding for %s, %s", key.ID(), msg)
}

func (s *Synthesizer) construct(key binding.Key, t reflectPkg.Type, decl *meta.Decl) (*binding.Binding, error) {
	var injectCtors []meta.Func
	for _, c := range decl.Constructors {
		if meta.IsInject(c.Markers) {
			injectCtors = append(injectCtors, c)
		}
	}
	var injectFactories []meta.Func
	for _, f := range decl.Factories {
		sig, err := reflect.SignatureOf(f.Fn)
		if err != nil || sig.Out != t {
			continue
		}
		if meta.IsInject(f.Markers) {
			injectFactories = append(injectFactories, f)
		}
	}

	if len(injectCtors) > 0 {
		if len(injectCtors) > 1 {
			return nil, failedImplicit(key, "more than one inject constructor")
		}
		if len(injectFactories) > 0 {
			return nil, failedImplicit(key, "both inject constructor and inject factory method are present")
		}
		return s.fromConstructor(key, t, decl, injectCtors[0])
	}

	if len(injectFactories) > 0 {
		if len(injectFactories) > 1 {
			return nil, failedImplicit(key, "more than one inject factory method")
		}
		return s.FromFunc(decl, injectFactories[0], binding.KindMethod)
	}

	ctors := decl.Constructors
	if len(ctors) == 0 {
		if t.Kind() == reflectPkg.Interface || decl.Abstract {
			return nil, failedImplicit(key, "inject annotation on interface")
		}
		if decl.Enclosing != nil {
			return nil, failedImplicit(
				key, "inject annotation on local class that closes over outside variables and/or has no default constructor",
			)
		}
		return s.zeroConstructor(key, t, decl), nil
	}
	if len(ctors) > 1 {
		return nil, failedImplicit(key, "inject annotation on class with multiple constructors")
	}
	if decl.Enclosing != nil {
		sig, err := reflect.SignatureOf(ctors[0].Fn)
		if err == nil && len(sig.Params) != 1 {
			return nil, failedImplicit(
				key, "inject annotation on local class that closes over outside variables and/or has no default constructor",
			)
		}
	}
	return s.fromConstructor(key, t, decl, ctors[0])
}

func (s *Synthesizer) zeroConstructor(key binding.Key, t reflectPkg.Type, decl *meta.Decl) *binding.Binding {
	return binding.ToConstructor(
		nil, func(context.Context, []any) (any, error) {
			return reflect.Zero(t).Interface(), nil
		},
	).
		WithKey(key).
		WithSource("zero value of " + reflect.TypeKeyOf(t)).
		WithGoType(t).
		Prioritize(meta.PriorityOf(decl.Markers))
}

func (s *Synthesizer) fromConstructor(
	key binding.Key, t reflectPkg.Type, decl *meta.Decl, ctor meta.Func,
) (*binding.Binding, error) {
	sig, err := reflect.SignatureOf(ctor.Fn)
	if err != nil {
		return nil, errs.New(errs.CodeConfiguration, "invalid constructor for "+key.ID(), err)
	}
	if sig.Out != t {
		return nil, errs.Configuration(
			"constructor %s returns %s, not %s", funcName(sig.Fn), reflect.TypeKeyOf(sig.Out), reflect.TypeKeyOf(t),
		)
	}
	deps, err := s.dependencies(s.catalog.TypeOf(t), sig.Params, ctor.Params)
	if err != nil {
		return nil, err
	}
	source := "constructor " + funcName(sig.Fn)
	b := binding.ToConstructor(deps, invoker(key, sig, source)).
		WithKey(key).
		WithSource(source).
		WithGoType(t).
		Prioritize(meta.PriorityOf(decl.Markers))
	return b, nil
}

// FromFunc builds the binding of a factory or provides func, keyed by its
// result type and its own qualifier. A first parameter of the declaring
// type makes fn an instance method: the owner is resolved as its first
// dependency. Scope is left to the caller.
func (s *Synthesizer) FromFunc(decl *meta.Decl, f meta.Func, kind binding.Kind) (*binding.Binding, error) {
	sig, err := reflect.SignatureOf(f.Fn)
	if err != nil {
		return nil, errs.New(errs.CodeConfiguration, "invalid provider on "+decl.DisplayName(), err)
	}

	owner := s.catalog.TypeOf(decl.Type)
	key, err := s.keyOf(nil, sig.Out, f.Markers)
	if err != nil {
		return nil, err
	}

	params := sig.Params
	var deps []binding.Dependency
	if len(params) > 0 && params[0] == decl.Type {
		deps = append(deps, binding.Require(binding.MustKey(owner, nil)))
		rest, err := s.dependencies(owner, params[1:], tail(f.Params))
		if err != nil {
			return nil, err
		}
		deps = append(deps, rest...)
	} else {
		deps, err = s.dependencies(owner, params, f.Params)
		if err != nil {
			return nil, err
		}
	}

	source := "func " + funcName(sig.Fn)
	b := binding.ToConstructor(deps, invoker(key, sig, source)).
		WithKey(key).
		WithSource(source).
		WithKind(kind).
		WithGoType(sig.Out).
		Prioritize(meta.PriorityOf(f.Markers))
	if meta.IsAggregate(f.Markers) {
		b = b.Aggregated()
	}
	return b, nil
}

func tail(params [][]any) [][]any {
	if len(params) == 0 {
		return nil
	}
	return params[1:]
}

// invoker calls fn with materialized arguments and rejects nil results.
func invoker(key binding.Key, sig *reflect.Signature, source string) func(context.Context, []any) (any, error) {
	return func(ctx context.Context, values []any) (any, error) {
		args := make([]reflectPkg.Value, len(values))
		for i, v := range values {
			arg, err := binding.Materialize(ctx, v, sig.Params[i])
			if err != nil {
				return nil, errs.New(
					errs.CodeInvocation, fmt.Sprintf("argument %d of %s", i, source), err,
				).WithKey(key.ID())
			}
			args[i] = arg
		}
		out, err := reflect.Call(sig.Fn, args, sig.HasError)
		if err != nil {
			return nil, errs.Invocation(key.ID(), source+" failed", err)
		}
		result := out.Interface()
		if reflect.IsNil(result) {
			return nil, errs.New(errs.CodeInvocation, source+" returned nil", nil).WithKey(key.ID())
		}
		return result, nil
	}
}

func funcName(fn reflectPkg.Value) string {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return fn.Type().String()
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
