package binding

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	reflectutil "github.com/danpasecinic/spindle/internal/reflect"
)

// List is the lazy multibinding view of List<T>. Each element is its own
// compiled supplier with its own scope.
type List struct {
	elems []Supplier
}

func NewList(elems []Supplier) *List {
	return &List{elems: elems}
}

func (l *List) Len() int { return len(l.elems) }

func (l *List) At(ctx context.Context, i int) (any, error) {
	if i < 0 || i >= len(l.elems) {
		return nil, fmt.Errorf("index %d out of range [0:%d]", i, len(l.elems))
	}
	return l.elems[i](ctx)
}

func (l *List) All(ctx context.Context) ([]any, error) {
	out := make([]any, len(l.elems))
	for i, s := range l.elems {
		v, err := s(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Map is the lazy multibinding view of Map<String, T>, in insertion order.
type Map struct {
	keys  []string
	elems map[string]Supplier
}

func NewMap() *Map {
	return &Map{elems: make(map[string]Supplier)}
}

// Put adds or replaces an entry. A replaced entry keeps its position.
func (m *Map) Put(key string, s Supplier) {
	if _, ok := m.elems[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.elems[key] = s
}

func (m *Map) Len() int { return len(m.keys) }

func (m *Map) Keys() []string { return append([]string(nil), m.keys...) }

func (m *Map) Get(ctx context.Context, key string) (any, bool, error) {
	s, ok := m.elems[key]
	if !ok {
		return nil, false, nil
	}
	v, err := s(ctx)
	return v, true, err
}

func (m *Map) All(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		v, err := m.elems[k](ctx)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// Materialize converts a resolved value into a value of Go type t. Views
// become slices and maps, element by element; Absent becomes the zero
// value.
func Materialize(ctx context.Context, v any, t reflect.Type) (reflect.Value, error) {
	switch view := v.(type) {
	case Absent:
		return reflect.Zero(t), nil
	case *List:
		if t.Kind() != reflect.Slice {
			break
		}
		out := reflect.MakeSlice(t, view.Len(), view.Len())
		for i := range view.Len() {
			elem, err := view.At(ctx, i)
			if err != nil {
				return reflect.Value{}, err
			}
			ev, err := Materialize(ctx, elem, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case *Map:
		if t.Kind() != reflect.Map || t.Key().Kind() != reflect.String {
			break
		}
		out := reflect.MakeMapWithSize(t, view.Len())
		for _, k := range view.keys {
			elem, err := view.elems[k](ctx)
			if err != nil {
				return reflect.Value{}, err
			}
			ev, err := Materialize(ctx, elem, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("entry %q: %w", k, err)
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		return out, nil
	}
	return reflectutil.Arg(v, t)
}

// Elements flattens a provider result into list elements. It accepts a
// *List view or any Go slice or array.
func Elements(ctx context.Context, v any) ([]any, error) {
	if l, ok := v.(*List); ok {
		return l.All(ctx)
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, nil
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a slice, got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// Entries flattens a provider result into named entries, in key order for
// Go maps and insertion order for *Map views.
func Entries(ctx context.Context, v any) ([]string, map[string]any, error) {
	if m, ok := v.(*Map); ok {
		all, err := m.All(ctx)
		return m.Keys(), all, err
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, nil, nil
	}
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, nil, fmt.Errorf("expected a map with string keys, got %T", v)
	}
	keys := make([]string, 0, rv.Len())
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		keys = append(keys, k)
		out[k] = iter.Value().Interface()
	}
	slices.Sort(keys)
	return keys, out, nil
}
