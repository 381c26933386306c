package types

import (
	"fmt"
	"sync"
)

// Bindings maps type variables to the types they stand for.
type Bindings map[*Var]Type

type UnboundVariableError struct {
	Var *Var
}

func (e *UnboundVariableError) Error() string {
	if e.Var.Decl != nil {
		return fmt.Sprintf("type variable not bound: %s (%s)", e.Var.Name, e.Var.Decl.Name)
	}
	return "type variable not bound: " + e.Var.Name
}

// RawType resolves t to the class underneath it. Wildcards and variables
// follow their uppermost bound. Arrays yield an array of the raw element.
func RawType(t Type) Type {
	switch v := t.(type) {
	case nil:
		return Object
	case *Class:
		return v
	case *Parameterized:
		return v.Raw
	case *Wildcard:
		return RawType(Uppermost(v.uppers()))
	case *Array:
		return &Array{Elem: RawType(v.Elem)}
	case *Var:
		if len(v.Bounds) == 0 {
			return Object
		}
		return RawType(Uppermost(v.Bounds))
	default:
		panic(fmt.Sprintf("types: unsupported type %T", t))
	}
}

// RawClass is RawType restricted to classes; it returns nil for arrays.
func RawClass(t Type) *Class {
	c, _ := RawType(t).(*Class)
	return c
}

// Uppermost returns the most general of the given types. For unrelated
// types the leftmost wins, matching erasure of intersection bounds.
func Uppermost(ts []Type) Type {
	if len(ts) == 0 {
		return Object
	}
	result := ts[0]
	for _, t := range ts[1:] {
		if IsAssignable(t, result) {
			result = t
		}
	}
	return result
}

// TypeBindings maps the declared parameters of t's raw class to t's actual
// arguments, one level deep.
func TypeBindings(t Type) Bindings {
	p, ok := t.(*Parameterized)
	if !ok || len(p.Args) == 0 {
		return Bindings{}
	}
	m := make(Bindings, len(p.Args))
	for i, param := range p.Raw.Params {
		if i >= len(p.Args) {
			break
		}
		m[param] = p.Args[i]
	}
	return m
}

var allBindingsCache sync.Map

type cacheKey struct {
	raw *Class
	id  string
}

// AllTypeBindings merges TypeBindings across the whole superclass and
// interface chain of t. Results are cached per type and must not be mutated.
func AllTypeBindings(t Type) Bindings {
	id := cacheKey{raw: RawClass(t), id: t.String()}
	if cached, ok := allBindingsCache.Load(id); ok {
		return cached.(Bindings)
	}
	m := make(Bindings)
	collectBindings(t, m, make(map[*Class]bool))
	actual, _ := allBindingsCache.LoadOrStore(id, m)
	return actual.(Bindings)
}

// ResetCache drops every memoized AllTypeBindings result. Callers that
// change a class's supertypes after first use must call it.
func ResetCache() {
	allBindingsCache.Clear()
}

func collectBindings(t Type, m Bindings, seen map[*Class]bool) {
	cls := RawClass(t)
	if cls == nil {
		return
	}
	if p, ok := t.(*Parameterized); ok {
		for i, param := range cls.Params {
			if i >= len(p.Args) {
				break
			}
			arg := p.Args[i]
			if v, ok := arg.(*Var); ok {
				if bound, ok := m[v]; ok {
					arg = bound
				}
			}
			m[param] = arg
		}
	}
	if seen[cls] {
		return
	}
	seen[cls] = true
	if cls.Super != nil {
		collectBindings(cls.Super, m, seen)
	}
	for _, itf := range cls.Interfaces {
		collectBindings(itf, m, seen)
	}
}

// Substitute replaces type variables in t using b.
func Substitute(t Type, b Bindings) (Type, error) {
	return SubstituteFunc(t, func(v *Var) (Type, bool) {
		r, ok := b[v]
		return r, ok
	})
}

// SubstituteFunc replaces type variables in t using lookup. It fails with
// *UnboundVariableError when lookup has no answer for a variable.
func SubstituteFunc(t Type, lookup func(*Var) (Type, bool)) (Type, error) {
	switch v := t.(type) {
	case *Class:
		return v, nil
	case *Var:
		r, ok := lookup(v)
		if !ok || r == nil {
			return nil, &UnboundVariableError{Var: v}
		}
		return r, nil
	case *Parameterized:
		args, err := substituteAll(v.Args, lookup)
		if err != nil {
			return nil, err
		}
		return &Parameterized{Raw: v.Raw, Args: args}, nil
	case *Array:
		elem, err := SubstituteFunc(v.Elem, lookup)
		if err != nil {
			return nil, err
		}
		return &Array{Elem: elem}, nil
	case *Wildcard:
		upper, err := substituteAll(v.Upper, lookup)
		if err != nil {
			return nil, err
		}
		lower, err := substituteAll(v.Lower, lookup)
		if err != nil {
			return nil, err
		}
		return &Wildcard{Upper: upper, Lower: lower}, nil
	default:
		return nil, fmt.Errorf("types: unsupported type %T", t)
	}
}

func substituteAll(ts []Type, lookup func(*Var) (Type, bool)) ([]Type, error) {
	if len(ts) == 0 {
		return nil, nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		r, err := SubstituteFunc(t, lookup)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// HasVars reports whether t mentions a type variable anywhere.
func HasVars(t Type) bool {
	switch v := t.(type) {
	case *Var:
		return true
	case *Parameterized:
		for _, a := range v.Args {
			if HasVars(a) {
				return true
			}
		}
	case *Array:
		return HasVars(v.Elem)
	case *Wildcard:
		for _, u := range v.Upper {
			if HasVars(u) {
				return true
			}
		}
		for _, l := range v.Lower {
			if HasVars(l) {
				return true
			}
		}
	}
	return false
}
