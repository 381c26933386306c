package spindle

import (
	"context"
	"reflect"

	"github.com/danpasecinic/spindle/meta"
)

// BindInstance registers v under t and every ancestor of t. The same
// value is returned on every resolution.
func (i *Injector) BindInstance(t reflect.Type, v any) error {
	return i.internal.BindInstance(t, v)
}

// BindSupplier registers fn as an unscoped factory of t.
func (i *Injector) BindSupplier(t reflect.Type, fn func(ctx context.Context) (any, error)) error {
	return i.internal.BindSupplier(t, fn)
}

// BindImplicit synthesizes the binding of t from its declaration in the
// catalog, or from t alone when it was never declared.
func (i *Injector) BindImplicit(t reflect.Type) error {
	return i.internal.BindImplicit(t)
}

// BindScope sets the implementation behind a scope marker. Singleton and
// Request are bound by default.
func (i *Injector) BindScope(marker any, s Scope) error {
	return i.internal.BindScope(marker, s)
}

// Declare records d in the injector's catalog and binds its type.
func (i *Injector) Declare(d meta.Decl) error {
	return i.internal.Declare(d)
}

func BindInstance[T any](i *Injector, v T) error {
	return i.BindInstance(reflect.TypeFor[T](), v)
}

func BindSupplier[T any](i *Injector, fn func(ctx context.Context) (T, error)) error {
	if fn == nil {
		return i.BindSupplier(reflect.TypeFor[T](), nil)
	}
	return i.BindSupplier(
		reflect.TypeFor[T](), func(ctx context.Context) (any, error) {
			return fn(ctx)
		},
	)
}

func BindImplicit[T any](i *Injector) error {
	return i.BindImplicit(reflect.TypeFor[T]())
}
