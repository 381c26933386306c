package types

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	number, integer *Class
	coll, lst       *Class
	source, repo    *Class
	stringRepo      *Class
}

func newFixture() *fixture {
	f := &fixture{}
	f.number = NewClass("Number", KindClass)
	f.integer = NewClass("Integer", KindClass).Extends(f.number)

	f.coll = NewClass("Coll", KindInterface, "E")
	f.lst = NewClass("Lst", KindClass, "E")
	f.lst.Implements(Of(f.coll, f.lst.Param("E")))

	f.source = NewClass("Source", KindInterface, "T")
	f.repo = NewClass("Repo", KindInterface, "T")
	f.repo.Implements(Of(f.source, ListOf(f.repo.Param("T"))))
	f.stringRepo = NewClass("StringRepo", KindClass).Implements(Of(f.repo, String))
	return f
}

func names(ts []Type) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

func TestString(t *testing.T) {
	t.Parallel()

	f := newFixture()
	tests := []struct {
		typ  Type
		want string
	}{
		{f.number, "Number"},
		{Of(f.coll, String), "Coll<string>"},
		{MapOf(String, ListOf(f.integer)), "Map<string, List<Integer>>"},
		{Any(), "?"},
		{Extending(f.number), "? extends Number"},
		{Super(f.integer), "? super Integer"},
		{ArrayOf(f.number), "Number[]"},
		{f.coll.Param("E"), "E"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	f := newFixture()
	assert.True(t, Equal(Of(f.coll, String), Of(f.coll, String)))
	assert.False(t, Equal(Of(f.coll, String), Of(f.coll, f.number)))
	assert.False(t, Equal(nil, String))
	assert.True(t, Equal(nil, nil))
}

func TestRawType(t *testing.T) {
	t.Parallel()

	f := newFixture()
	bounded := &Var{Name: "N", Bounds: []Type{f.number}}

	assert.Same(t, f.number, RawType(f.number))
	assert.Same(t, f.coll, RawType(Of(f.coll, String)))
	assert.Same(t, f.number, RawType(Extending(f.number)))
	assert.Same(t, Object, RawType(Any()))
	assert.Same(t, f.number, RawType(bounded))
	assert.Equal(t, "Coll[]", RawType(ArrayOf(Of(f.coll, f.number))).String())
	assert.Nil(t, RawClass(ArrayOf(f.number)))
}

func TestUppermost(t *testing.T) {
	t.Parallel()

	f := newFixture()
	assert.Same(t, f.number, Uppermost([]Type{f.integer, f.number}))
	assert.Same(t, f.number, Uppermost([]Type{f.number, f.integer}))
	assert.Same(t, f.integer, Uppermost([]Type{f.integer, String}), "unrelated bounds keep the leftmost")
	assert.Same(t, Object, Uppermost(nil))
}

func TestTypeBindings(t *testing.T) {
	t.Parallel()

	f := newFixture()
	b := TypeBindings(Of(f.coll, String))
	require.Len(t, b, 1)
	assert.Same(t, String, b[f.coll.Param("E")])

	assert.Empty(t, TypeBindings(f.coll))
	assert.Empty(t, TypeBindings(ArrayOf(String)))
}

func TestAllTypeBindings(t *testing.T) {
	t.Parallel()

	base := NewClass("allBase", KindClass, "T")
	mid := NewClass("allMid", KindClass, "U")
	mid.Extends(Of(base, mid.Param("U")))
	leaf := NewClass("allLeaf", KindClass).Extends(Of(mid, String))

	b := AllTypeBindings(leaf)
	assert.Same(t, String, b[mid.Param("U")])
	assert.Same(t, String, b[base.Param("T")], "variable arguments resolve through the subclass binding")

	wrapped := NewClass("allWrapped", KindClass, "U")
	wrapped.Extends(Of(base, ListOf(wrapped.Param("U"))))
	b = AllTypeBindings(Of(wrapped, String))
	assert.Equal(t, "List<U>", b[base.Param("T")].String(), "non-variable arguments are kept as declared")

	assert.Equal(t, fmt.Sprint(AllTypeBindings(leaf)), fmt.Sprint(AllTypeBindings(leaf)))
}

func TestAllTypeBindings_Concurrent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			b := AllTypeBindings(Of(f.repo, f.integer))
			assert.Same(t, f.integer, b[f.repo.Param("T")])
		})
	}
	wg.Wait()
}

func TestSubstitute(t *testing.T) {
	t.Parallel()

	f := newFixture()
	e := f.coll.Param("E")

	got, err := Substitute(MapOf(String, ListOf(e)), Bindings{e: f.number})
	require.NoError(t, err)
	assert.Equal(t, "Map<string, List<Number>>", got.String())

	got, err = Substitute(&Wildcard{Upper: []Type{e}}, Bindings{e: f.number})
	require.NoError(t, err)
	assert.Equal(t, "? extends Number", got.String())

	got, err = Substitute(ArrayOf(e), Bindings{e: String})
	require.NoError(t, err)
	assert.Equal(t, "string[]", got.String())

	_, err = Substitute(ListOf(e), Bindings{})
	var unbound *UnboundVariableError
	require.True(t, errors.As(err, &unbound))
	assert.Same(t, e, unbound.Var)
	assert.Contains(t, err.Error(), "Coll")
}

func TestSupertypeClosure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	got := names(SupertypeClosure(f.stringRepo))
	assert.Equal(t, []string{"StringRepo", "Repo<string>", "any", "Source<List<string>>"}, got)
}

func TestSupertypeClosure_DropsUnboundBranches(t *testing.T) {
	t.Parallel()

	f := newFixture()
	got := names(SupertypeClosure(f.lst))
	assert.Equal(t, []string{"Lst", "any"}, got, "Coll<E> cannot be bound from the raw class")

	got = names(SupertypeClosure(Of(f.lst, String)))
	assert.Equal(t, []string{"Lst<string>", "Coll<string>", "any"}, got)
}

func TestSupertypeClosure_SelfReferential(t *testing.T) {
	t.Parallel()

	cmp := NewClass("Comparable", KindInterface, "T")
	node := NewClass("Node", KindClass, "N")
	node.Params[0].Bounds = []Type{Of(node, node.Params[0])}
	node.Implements(Of(cmp, node.Param("N")))

	got := names(SupertypeClosure(node))
	assert.Equal(t, []string{"Node", "any"}, got)
}

func TestSupertypeClosure_Deduplicates(t *testing.T) {
	t.Parallel()

	marker := NewClass("Marker", KindInterface)
	a := NewClass("A", KindInterface).Implements(marker)
	b := NewClass("B", KindInterface).Implements(marker)
	impl := NewClass("Impl", KindClass).Implements(a, b)

	assert.Equal(t, []string{"Impl", "A", "B", "any", "Marker"}, names(SupertypeClosure(impl)))
}

func TestSimplify(t *testing.T) {
	t.Parallel()

	f := newFixture()
	tests := []struct {
		in   Type
		want string
	}{
		{f.number, "Number"},
		{Extending(f.number), "Number"},
		{Super(f.integer), "Integer"},
		{Any(), "any"},
		{ListOf(Object), "List"},
		{ListOf(Any()), "List"},
		{ListOf(Extending(f.number)), "List<Number>"},
		{ArrayOf(Extending(f.number)), "Number[]"},
	}
	for _, tt := range tests {
		got, err := Simplify(tt.in)
		require.NoError(t, err, tt.in.String())
		assert.Equal(t, tt.want, got.String(), tt.in.String())
	}

	unchanged := Of(f.coll, String)
	got, err := Simplify(unchanged)
	require.NoError(t, err)
	assert.Same(t, unchanged, got)
}

func TestSimplify_Rejects(t *testing.T) {
	t.Parallel()

	f := newFixture()
	tests := []struct {
		name string
		in   Type
		want string
	}{
		{"variable", f.coll.Param("E"), "cannot simplify E (Coll): free type variable"},
		{"nested variable", MapOf(String, ListOf(f.repo.Param("T"))), "cannot simplify T (Repo)"},
		{"array of variable", ArrayOf(f.lst.Param("E")), "cannot simplify E (Lst)"},
		{"several upper bounds", &Wildcard{Upper: []Type{f.number, String}}, "wildcard with several bounds"},
		{"several lower bounds", ListOf(&Wildcard{Lower: []Type{f.integer, String}}), "wildcard with several bounds"},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()

				got, err := Simplify(tt.in)
				assert.Nil(t, got)
				var simplify *SimplifyError
				require.True(t, errors.As(err, &simplify))
				assert.Contains(t, err.Error(), tt.want)
			},
		)
	}

	// Variables of different classes stay distinct even when named alike.
	_, errA := Simplify(f.coll.Param("E"))
	_, errB := Simplify(f.lst.Param("E"))
	assert.NotEqual(t, errA.Error(), errB.Error())
}

func TestIsAssignable(t *testing.T) {
	t.Parallel()

	f := newFixture()
	intClass := NewClass("int", KindClass)
	tests := []struct {
		name     string
		to, from Type
		want     bool
	}{
		{"same class", f.number, f.number, true},
		{"subclass", f.number, f.integer, true},
		{"superclass", f.integer, f.number, false},
		{"object accepts all", Object, Of(f.lst, String), true},
		{"interface through generic edge", Of(f.coll, String), Of(f.lst, String), true},
		{"argument mismatch", Of(f.coll, String), Of(f.lst, intClass), false},
		{"nested arguments are invariant", Of(f.coll, f.number), Of(f.lst, f.integer), false},
		{"extends wildcard", Of(f.coll, Extending(f.number)), Of(f.lst, f.integer), true},
		{"super wildcard", Of(f.coll, Super(f.integer)), Of(f.lst, f.number), true},
		{"super wildcard rejects subclass", Of(f.coll, Super(f.number)), Of(f.lst, f.integer), false},
		{"raw target", f.coll, Of(f.lst, String), true},
		{"raw source into parameterized target", Of(f.coll, String), f.lst, false},
		{"deep closure", Of(f.source, ListOf(String)), f.stringRepo, true},
		{"deep closure mismatch", Of(f.source, ListOf(f.number)), f.stringRepo, false},
		{"arrays are covariant", ArrayOf(f.number), ArrayOf(f.integer), true},
		{"arrays reject unrelated", ArrayOf(f.integer), ArrayOf(f.number), false},
		{"array into object", Object, ArrayOf(f.number), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAssignable(tt.to, tt.from))
		})
	}
}

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

func TestIsAssignable_GoStructural(t *testing.T) {
	t.Parallel()

	itf := &Class{Name: "greeter", Kind: KindInterface, Go: reflect.TypeFor[greeter]()}
	impl := &Class{Name: "english", Go: reflect.TypeFor[english]()}
	other := &Class{Name: "int", Go: reflect.TypeFor[int]()}

	assert.True(t, IsAssignable(itf, impl))
	assert.False(t, IsAssignable(itf, other))
	assert.False(t, IsAssignable(impl, itf))
}

func TestHasVars(t *testing.T) {
	t.Parallel()

	f := newFixture()
	assert.True(t, HasVars(ListOf(f.coll.Param("E"))))
	assert.True(t, HasVars(Extending(f.coll.Param("E"))))
	assert.False(t, HasVars(MapOf(String, f.number)))
}
