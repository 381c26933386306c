package spindle

import (
	"context"
	"reflect"

	"github.com/danpasecinic/spindle/internal/binding"
)

// GetInstance resolves key as a required dependency. List and map
// multibindings come back as lazy views; Get materializes them.
func (i *Injector) GetInstance(ctx context.Context, key Key) (any, error) {
	return i.internal.GetInstance(ctx, key)
}

// InjectInstance runs field and method injection on obj, which must be a
// pointer to a struct. obj itself is not registered.
func (i *Injector) InjectInstance(ctx context.Context, obj any) error {
	return i.internal.InjectInstance(ctx, obj)
}

func Get[T any](i *Injector) (T, error) {
	return GetCtx[T](context.Background(), i)
}

func GetCtx[T any](ctx context.Context, i *Injector) (T, error) {
	return resolve[T](ctx, i, KeyOf[T](i))
}

func GetNamed[T any](i *Injector, name string) (T, error) {
	return GetNamedCtx[T](context.Background(), i, name)
}

func GetNamedCtx[T any](ctx context.Context, i *Injector, name string) (T, error) {
	return resolve[T](ctx, i, KeyOf[T](i, name))
}

func MustGet[T any](i *Injector) T {
	v, err := Get[T](i)
	if err != nil {
		panic(err)
	}
	return v
}

func MustGetNamed[T any](i *Injector, name string) T {
	v, err := GetNamed[T](i, name)
	if err != nil {
		panic(err)
	}
	return v
}

// GetAll resolves every binding of T, highest priority first.
func GetAll[T any](i *Injector) ([]T, error) {
	return GetAllCtx[T](context.Background(), i)
}

func GetAllCtx[T any](ctx context.Context, i *Injector) ([]T, error) {
	return resolve[[]T](ctx, i, KeyOf[[]T](i))
}

// GetMap resolves every string-named binding of T by name.
func GetMap[T any](i *Injector) (map[string]T, error) {
	return GetMapCtx[T](context.Background(), i)
}

func GetMapCtx[T any](ctx context.Context, i *Injector) (map[string]T, error) {
	return resolve[map[string]T](ctx, i, KeyOf[map[string]T](i))
}

func resolve[T any](ctx context.Context, i *Injector, key Key) (T, error) {
	var zero T

	instance, err := i.GetInstance(ctx, key)
	if err != nil {
		return zero, err
	}
	return convert[T](ctx, key, instance)
}

func convert[T any](ctx context.Context, key Key, instance any) (T, error) {
	var zero T

	if typed, ok := instance.(T); ok {
		return typed, nil
	}
	rv, err := binding.Materialize(ctx, instance, reflect.TypeFor[T]())
	if err != nil {
		return zero, errTypeMismatch(key.ID(), instance)
	}
	typed, ok := rv.Interface().(T)
	if !ok {
		return zero, errTypeMismatch(key.ID(), instance)
	}
	return typed, nil
}

// Optional holds a value that may be absent.
type Optional[T any] struct {
	value   T
	present bool
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

func (o Optional[T]) Value() T {
	return o.value
}

func (o Optional[T]) Present() bool {
	return o.present
}

func (o Optional[T]) OrElse(defaultValue T) T {
	if o.present {
		return o.value
	}
	return defaultValue
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// GetOptional resolves T as an optional dependency. A missing binding is
// None; a failing one is an error.
func GetOptional[T any](ctx context.Context, i *Injector, qualifier ...any) (Optional[T], error) {
	key := KeyOf[T](i, qualifier...)
	instance, err := i.internal.Supplier(Dependency{Key: key, Optional: true})(ctx)
	if err != nil {
		return None[T](), err
	}
	if _, absent := instance.(binding.Absent); absent {
		return None[T](), nil
	}
	v, err := convert[T](ctx, key, instance)
	if err != nil {
		return None[T](), err
	}
	return Some(v), nil
}

// Has reports whether a single-valued Get of T, under the optional
// qualifier, finds a candidate binding. Interfaces satisfied only
// structurally count.
func Has[T any](i *Injector, qualifier ...any) bool {
	return i.Has(KeyOf[T](i, qualifier...))
}
