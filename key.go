package spindle

import (
	"reflect"

	"github.com/danpasecinic/spindle/internal/binding"
	"github.com/danpasecinic/spindle/meta"
)

// Key identifies what is injected: a type expression and an optional
// qualifier.
type Key = binding.Key

type Dependency = binding.Dependency

// Supplier produces one value of a binding. Custom scopes wrap it.
type Supplier = binding.Supplier

// KeyOf is the key of T in i's catalog. A string or meta.Named qualifier
// names the key; any other qualifier marker is kept as is.
func KeyOf[T any](i *Injector, qualifier ...any) Key {
	return TypeKey(i, reflect.TypeFor[T](), qualifier...)
}

func TypeKey(i *Injector, t reflect.Type, qualifier ...any) Key {
	return binding.MustKey(i.Catalog().TypeOf(t), qualifierOf(qualifier))
}

func qualifierOf(qualifier []any) any {
	if len(qualifier) == 0 {
		return nil
	}
	switch q := qualifier[0].(type) {
	case meta.Named:
		return string(q)
	case string:
		if q == "" {
			return nil
		}
		return q
	default:
		return q
	}
}
