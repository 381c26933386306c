package meta

import (
	"fmt"
	"reflect"

	"github.com/danpasecinic/spindle/internal/errs"
	"github.com/danpasecinic/spindle/types"
)

// Inject marks a constructor or factory as the one to use.
type Inject struct{}

// Named is the string qualifier.
type Named string

func (Named) isQualifier() {}

// QualifierMarker is embedded by user types that act as qualifiers:
//
//	type Primary struct{ meta.QualifierMarker }
type QualifierMarker struct{}

func (QualifierMarker) isQualifier() {}

// ScopeMarker is embedded by user types that name a scope.
type ScopeMarker struct{}

func (ScopeMarker) isScope() {}

// Singleton is the built-in scope marker. Every injector binds it.
type Singleton struct{ ScopeMarker }

// Request scopes values to a request context. Every injector binds it.
type Request struct{ ScopeMarker }

// Priority orders candidates for the same key. Higher wins.
type Priority int

// Typed restricts the ancestors a declaration is registered under. An empty
// Typed keeps only the directly implemented interfaces and the top type.
type Typed []reflect.Type

type Optional struct{}

// Aggregate marks a provider returning []T or map[string]T whose elements
// contribute to the multibinding of T instead of overriding it.
type Aggregate struct{}

// TypeOf overrides the type expression of a parameter, so that generic
// parameters can be written in terms of the declaring class's variables.
type TypeOf struct {
	Type types.Type
}

type qualifier interface{ isQualifier() }

type scope interface{ isScope() }

// QualifierOf returns the single qualifier among markers: a string for
// Named, the marker value itself otherwise.
func QualifierOf(markers []any) (any, error) {
	var found any
	for _, m := range markers {
		q, ok := m.(qualifier)
		if !ok {
			continue
		}
		if found != nil {
			return nil, errs.Configuration("more than one qualifier: %s and %s", Display(found), Display(q))
		}
		if n, ok := q.(Named); ok {
			found = string(n)
		} else {
			found = q
		}
	}
	return found, nil
}

// ScopeOf returns the single scope marker among markers, or nil.
func ScopeOf(markers []any) (any, error) {
	var found any
	for _, m := range markers {
		s, ok := m.(scope)
		if !ok {
			continue
		}
		if found != nil {
			return nil, errs.Configuration("more than one scope: %T and %T", found, s)
		}
		found = s
	}
	return found, nil
}

func PriorityOf(markers []any) int {
	for _, m := range markers {
		if p, ok := m.(Priority); ok {
			return int(p)
		}
	}
	return 0
}

func IsInject(markers []any) bool {
	return has[Inject](markers)
}

func IsOptional(markers []any) bool {
	return has[Optional](markers)
}

func IsAggregate(markers []any) bool {
	return has[Aggregate](markers)
}

// TypedOf reports the bindable-ancestor allow-list, if any.
func TypedOf(markers []any) (Typed, bool) {
	for _, m := range markers {
		if t, ok := m.(Typed); ok {
			return t, true
		}
	}
	return nil, false
}

// TypeOverride returns the TypeOf marker's expression, if present.
func TypeOverride(markers []any) (types.Type, bool) {
	for _, m := range markers {
		if t, ok := m.(TypeOf); ok && t.Type != nil {
			return t.Type, true
		}
	}
	return nil, false
}

func IsQualifier(v any) bool {
	_, ok := v.(qualifier)
	return ok
}

func IsScope(v any) bool {
	_, ok := v.(scope)
	return ok
}

// Display renders a qualifier for keys and diagnostics. Strings render
// quoted; markers render as their type plus any non-zero value.
func Display(q any) string {
	switch v := q.(type) {
	case nil:
		return ""
	case string:
		return fmt.Sprintf("%q", v)
	case Named:
		return fmt.Sprintf("%q", string(v))
	}
	rv := reflect.ValueOf(q)
	name := "@" + rv.Type().String()
	if rv.IsZero() {
		return name
	}
	return fmt.Sprintf("%s(%+v)", name, q)
}

func has[M any](markers []any) bool {
	for _, m := range markers {
		if _, ok := m.(M); ok {
			return true
		}
	}
	return false
}
