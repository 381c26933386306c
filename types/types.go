// Package types models the type expressions the injector reasons about:
// classes and interfaces with type parameters, parameterized instantiations,
// wildcards, arrays and type variables. It implements the algebra over them
// that key normalization and ancestor registration depend on.
package types

import (
	"reflect"
	"strings"
)

type Type interface {
	String() string
	isType()
}

type Kind uint8

const (
	KindClass Kind = iota
	KindInterface
)

func (k Kind) String() string {
	if k == KindInterface {
		return "interface"
	}
	return "class"
}

// Class is a named declaration. Super and Interfaces may refer to the
// class's own Params.
type Class struct {
	Name       string
	Kind       Kind
	Params     []*Var
	Super      Type
	Interfaces []Type
	Go         reflect.Type
}

func NewClass(name string, kind Kind, params ...string) *Class {
	c := &Class{Name: name, Kind: kind}
	for _, p := range params {
		c.Params = append(c.Params, &Var{Name: p, Bounds: []Type{Object}, Decl: c})
	}
	return c
}

func (c *Class) Extends(t Type) *Class {
	c.Super = t
	return c
}

func (c *Class) Implements(ts ...Type) *Class {
	c.Interfaces = append(c.Interfaces, ts...)
	return c
}

func (c *Class) Param(name string) *Var {
	for _, p := range c.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (c *Class) IsInterface() bool {
	return c.Kind == KindInterface
}

func (c *Class) String() string { return c.Name }
func (*Class) isType()          {}

type Parameterized struct {
	Raw  *Class
	Args []Type
}

func Of(raw *Class, args ...Type) *Parameterized {
	return &Parameterized{Raw: raw, Args: args}
}

func (p *Parameterized) String() string {
	var b strings.Builder
	b.WriteString(p.Raw.Name)
	b.WriteByte('<')
	for i, a := range p.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte('>')
	return b.String()
}
func (*Parameterized) isType() {}

// Wildcard is an unknown type bounded from above, below, or both. An empty
// Upper means Object.
type Wildcard struct {
	Upper []Type
	Lower []Type
}

func Any() *Wildcard {
	return &Wildcard{Upper: []Type{Object}}
}

func Extending(upper Type) *Wildcard {
	return &Wildcard{Upper: []Type{upper}}
}

func Super(lower Type) *Wildcard {
	return &Wildcard{Upper: []Type{Object}, Lower: []Type{lower}}
}

func (w *Wildcard) uppers() []Type {
	if len(w.Upper) == 0 {
		return []Type{Object}
	}
	return w.Upper
}

func (w *Wildcard) String() string {
	switch {
	case len(w.Lower) > 0:
		return "? super " + joinTypes(w.Lower, " & ")
	case len(w.Upper) == 0 || (len(w.Upper) == 1 && w.Upper[0] == Object):
		return "?"
	default:
		return "? extends " + joinTypes(w.Upper, " & ")
	}
}
func (*Wildcard) isType() {}

type Array struct {
	Elem Type
}

func ArrayOf(elem Type) *Array {
	return &Array{Elem: elem}
}

func (a *Array) String() string { return a.Elem.String() + "[]" }
func (*Array) isType()          {}

// Var is a type variable. Variables are identified by pointer: two classes
// declaring a parameter named T have distinct variables.
type Var struct {
	Name   string
	Bounds []Type
	Decl   *Class
}

func (v *Var) String() string { return v.Name }
func (*Var) isType()          {}

var (
	Object = &Class{Name: "any", Go: reflect.TypeFor[any]()}
	String = &Class{Name: "string", Go: reflect.TypeFor[string]()}
	List   = NewClass("List", KindInterface, "E")
	Map    = NewClass("Map", KindInterface, "K", "V")
)

func ListOf(elem Type) *Parameterized {
	return Of(List, elem)
}

func MapOf(key, value Type) *Parameterized {
	return Of(Map, key, value)
}

// Equal reports structural equality.
func Equal(a, b Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.String() == b.String()
}

// Args returns the actual type arguments of t: the arguments of a
// parameterized type, the element of an array, nothing otherwise.
func Args(t Type) []Type {
	switch v := t.(type) {
	case *Parameterized:
		return v.Args
	case *Array:
		return []Type{v.Elem}
	default:
		return nil
	}
}

func joinTypes(ts []Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}
