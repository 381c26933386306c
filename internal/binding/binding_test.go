package binding

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/spindle/meta"
	"github.com/danpasecinic/spindle/types"
)

type primary struct{ meta.QualifierMarker }

var (
	svc    = types.NewClass("app.Service", types.KindInterface)
	config = types.NewClass("app.Config", types.KindClass)
)

func TestKey_Equality(t *testing.T) {
	t.Parallel()

	a := MustKey(types.ListOf(types.Object), nil)
	b := MustKey(types.List, nil)
	assert.True(t, a.Equal(b), "List<any> simplifies to List")
	assert.Equal(t, a.ID(), b.ID())

	named := MustKey(svc, "db")
	assert.Equal(t, "app.Service#db", named.ID())
	assert.False(t, named.Equal(MustKey(svc, nil)))
	assert.True(t, named.Unqualified().Equal(MustKey(svc, nil)))

	marked := MustKey(svc, primary{})
	assert.Equal(t, "app.Service#@binding.primary", marked.ID())
	assert.True(t, marked.Equal(MustKey(svc, primary{})))

	set := map[string]Key{}
	for _, k := range []Key{a, b, named, MustKey(svc, "db")} {
		set[k.ID()] = k
	}
	assert.Len(t, set, 2)
}

func TestNewKey_RejectsTypesWithoutKeyForm(t *testing.T) {
	t.Parallel()

	a := types.NewClass("app.A", types.KindClass, "T")
	b := types.NewClass("app.B", types.KindClass, "T")

	for _, expr := range []types.Type{
		a.Param("T"),
		b.Param("T"),
		types.ListOf(a.Param("T")),
		&types.Wildcard{Upper: []types.Type{svc, config}},
	} {
		_, err := NewKey(expr, nil)
		var simplify *types.SimplifyError
		assert.True(t, errors.As(err, &simplify), expr.String())
	}

	assert.Panics(t, func() { MustKey(a.Param("T"), "x") })

	k, err := NewKey(types.ListOf(&types.Wildcard{Upper: []types.Type{svc}}), nil)
	require.NoError(t, err)
	assert.Equal(t, "List<app.Service>", k.ID())
}

func TestKey_Shapes(t *testing.T) {
	t.Parallel()

	list := MustKey(types.ListOf(svc), nil)
	assert.True(t, list.IsList())
	assert.Equal(t, "app.Service", list.Param(0).ID())

	m := MustKey(types.MapOf(types.String, svc), nil)
	assert.True(t, m.IsStringMap())
	assert.False(t, MustKey(types.MapOf(config, svc), nil).IsStringMap())
	assert.Equal(t, "any", MustKey(svc, nil).Param(3).ID())
}

func TestDedup(t *testing.T) {
	t.Parallel()

	k := MustKey(config, nil)
	deps := Dedup([]Dependency{Require(k), {Key: k, Optional: true}, Require(k)})
	assert.Len(t, deps, 2)
	assert.False(t, deps[0].Optional)
}

func stubCompiler(values map[string]any) Compiler {
	return func(dep Dependency) Supplier {
		return func(context.Context) (any, error) {
			if v, ok := values[dep.Key.ID()]; ok {
				return v, nil
			}
			if dep.Optional {
				return Absent{}, nil
			}
			return nil, errors.New("missing " + dep.Key.ID())
		}
	}
}

func TestToConstructor(t *testing.T) {
	t.Parallel()

	cfg := MustKey(config, nil)
	name := MustKey(types.String, "name")
	b := ToConstructor(
		[]Dependency{Require(cfg), Require(name), Require(cfg)},
		func(_ context.Context, values []any) (any, error) {
			return values, nil
		},
	)
	assert.Len(t, b.Dependencies(), 2)

	s := b.Compile(stubCompiler(map[string]any{cfg.ID(): 1, name.ID(): "x"}))
	v, err := s(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []any{1, "x", 1}, v)

	_, err = b.Compile(stubCompiler(nil))(t.Context())
	assert.Error(t, err)
}

func TestModifiersCopy(t *testing.T) {
	t.Parallel()

	base := ToInstance("v")
	scoped := base.WithScope(meta.Singleton{}).Prioritize(5).WithKey(MustKey(types.String, nil)).Aggregated()

	assert.Nil(t, base.Scope())
	assert.Equal(t, 0, base.Priority())
	assert.False(t, base.IsAggregate())

	assert.Equal(t, meta.Singleton{}, scoped.Scope())
	assert.Equal(t, 5, scoped.Priority())
	assert.True(t, scoped.IsAggregate())
	assert.Equal(t, "string", scoped.Key().ID())
	assert.Equal(t, reflect.TypeFor[string](), scoped.GoType())
	assert.Equal(t, KindInstance, scoped.Kind())
}

type target struct {
	steps []string
}

func step(name string, deps []Dependency, fail bool) Initializer {
	return NewInitializer(
		deps, func(Compiler) Apply {
			return func(_ context.Context, instance any) error {
				if fail {
					return errors.New(name + " failed")
				}
				instance.(*target).steps = append(instance.(*target).steps, name)
				return nil
			}
		},
	)
}

func TestInitializeWith_RunsInOrder(t *testing.T) {
	t.Parallel()

	dep := Require(MustKey(config, nil))
	b := ToSupplier(
		func(context.Context) (any, error) { return &target{}, nil },
	).InitializeWith(CombineInitializers(step("fields", []Dependency{dep}, false), step("methods", nil, false)))

	assert.Equal(t, []Dependency{dep}, b.Dependencies())

	v, err := b.Compile(stubCompiler(nil))(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"fields", "methods"}, v.(*target).steps)
}

func TestCombineInitializers_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	obj := &target{}
	init := CombineInitializers(step("a", nil, false), step("b", nil, true), step("c", nil, false))
	err := init.Compile(stubCompiler(nil))(t.Context(), obj)
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, obj.steps, "steps before the failure stay applied")

	assert.True(t, CombineInitializers().IsEmpty())
	assert.NoError(t, Initializer{}.Compile(nil)(t.Context(), obj))
}

func constant(v any) Supplier {
	return func(context.Context) (any, error) { return v, nil }
}

func TestMaterialize(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	list := NewList([]Supplier{constant("a"), constant("b")})
	v, err := Materialize(ctx, list, reflect.TypeFor[[]string]())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v.Interface())

	m := NewMap()
	m.Put("x", constant(1))
	m.Put("y", constant(2))
	m.Put("x", constant(3))
	assert.Equal(t, []string{"x", "y"}, m.Keys())
	v, err = Materialize(ctx, m, reflect.TypeFor[map[string]int]())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 3, "y": 2}, v.Interface())

	v, err = Materialize(ctx, Absent{}, reflect.TypeFor[*target]())
	require.NoError(t, err)
	assert.True(t, v.IsNil())

	v, err = Materialize(ctx, list, reflect.TypeFor[any]())
	require.NoError(t, err)
	assert.Same(t, list, v.Interface())

	_, err = Materialize(ctx, NewList([]Supplier{constant(1)}), reflect.TypeFor[[]string]())
	assert.Error(t, err)
}

func TestElementsAndEntries(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	elems, err := Elements(ctx, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, elems)

	_, err = Elements(ctx, 5)
	assert.Error(t, err)

	keys, entries, err := Entries(ctx, map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
	assert.Equal(t, 1, entries["a"])

	_, _, err = Entries(ctx, map[int]int{})
	assert.Error(t, err)
}
