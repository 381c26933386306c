package meta

import (
	"reflect"

	"github.com/danpasecinic/spindle/types"
)

// Decl describes one Go type to the injector: how to construct it, what it
// provides, and where it sits in the type hierarchy beyond what reflection
// can see.
type Decl struct {
	Type    reflect.Type
	Name    string
	Markers []any

	// Class replaces the derived class, typically to declare type
	// parameters. Extends and Implements add generic supertypes.
	Class      *types.Class
	Extends    types.Type
	Implements []types.Type

	// Constructors and Factories return Type or (Type, error). Only
	// factories marked Inject take part in synthesis.
	Constructors []Func
	Factories    []Func

	// Provides funcs each become a binding for their own result type. A
	// first parameter of Type makes the func an instance method.
	Provides []Func

	// Methods name injector methods called after construction.
	Methods []Method

	Nested []Decl

	// Enclosing marks an inner type whose only constructor must take the
	// outer instance and nothing else.
	Enclosing reflect.Type

	Abstract bool
}

type Func struct {
	Fn      any
	Markers []any
	Params  [][]any
}

type Method struct {
	Name    string
	Markers []any
	Params  [][]any
}

// ParamMarkers returns the markers of parameter i, or nil.
func ParamMarkers(params [][]any, i int) []any {
	if i < len(params) {
		return params[i]
	}
	return nil
}

// DisplayName is the name discovery resources refer to the type by.
func (d *Decl) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return typeName(d.Type)
}

// Fn is shorthand for a Func without parameter markers.
func Fn(fn any, markers ...any) Func {
	return Func{Fn: fn, Markers: markers}
}
