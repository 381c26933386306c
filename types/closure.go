package types

import "fmt"

// SupertypeClosure lists t and every supertype reachable from it, breadth
// first, with type arguments substituted along each edge. Supertypes whose
// arguments cannot be bound from t are skipped.
func SupertypeClosure(t Type) []Type {
	queue := []Type{t}
	seen := make(map[string]bool)
	var done []Type

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		id := cur.String()
		if seen[id] {
			continue
		}
		seen[id] = true
		done = append(done, cur)

		cls := RawClass(cur)
		if cls == nil {
			continue
		}
		b := TypeBindings(cur)
		lookup := func(v *Var) (Type, bool) {
			r, ok := b[v]
			return r, ok
		}

		for _, itf := range cls.Interfaces {
			if bound, ok := substituteEdge(itf, lookup); ok {
				queue = append(queue, bound)
			}
		}
		if super := superOf(cls); super != nil {
			if bound, ok := substituteEdge(super, lookup); ok {
				queue = append(queue, bound)
			}
		}
	}
	return done
}

func substituteEdge(t Type, lookup func(*Var) (Type, bool)) (Type, bool) {
	bound, err := SubstituteFunc(t, lookup)
	if err != nil {
		return nil, false
	}
	return bound, true
}

// superOf returns the declared superclass, defaulting concrete classes to
// Object. Interfaces and Object itself have none.
func superOf(c *Class) Type {
	if c.Super != nil {
		return c.Super
	}
	if c == Object || c.Kind == KindInterface {
		return nil
	}
	return Object
}

// SimplifyError reports a type expression that has no key form.
type SimplifyError struct {
	Type   Type
	Reason string
}

func (e *SimplifyError) Error() string {
	if v, ok := e.Type.(*Var); ok && v.Decl != nil {
		return fmt.Sprintf("cannot simplify %s (%s): %s", v.Name, v.Decl.Name, e.Reason)
	}
	return fmt.Sprintf("cannot simplify %s: %s", e.Type, e.Reason)
}

// Simplify canonicalizes t for use in a key: a wildcard with a single bound
// collapses to that bound and a parameterized type whose arguments are all
// Object collapses to its raw class. Type variables and wildcards with
// several bounds have no key form and yield a *SimplifyError.
func Simplify(t Type) (Type, error) {
	switch v := t.(type) {
	case *Var:
		return nil, &SimplifyError{Type: v, Reason: "free type variable"}
	case *Array:
		elem, err := Simplify(v.Elem)
		if err != nil {
			return nil, err
		}
		if elem != v.Elem {
			return &Array{Elem: elem}, nil
		}
		return v, nil
	case *Parameterized:
		args, changed, err := simplifyAll(v.Args)
		if err != nil {
			return nil, err
		}
		allObjects := len(args) > 0
		for _, a := range args {
			if a != Object {
				allObjects = false
				break
			}
		}
		if allObjects {
			return v.Raw, nil
		}
		if changed {
			return &Parameterized{Raw: v.Raw, Args: args}, nil
		}
		return v, nil
	case *Wildcard:
		if len(v.Upper) > 1 || len(v.Lower) > 1 {
			return nil, &SimplifyError{Type: v, Reason: "wildcard with several bounds"}
		}
		if len(v.Upper) == 1 && v.Upper[0] != Object {
			return Simplify(v.Upper[0])
		}
		if len(v.Lower) == 1 {
			return Simplify(v.Lower[0])
		}
		return Object, nil
	default:
		return t, nil
	}
}

func simplifyAll(ts []Type) ([]Type, bool, error) {
	changed := false
	out := make([]Type, len(ts))
	for i, t := range ts {
		s, err := Simplify(t)
		if err != nil {
			return nil, false, err
		}
		out[i] = s
		if s != t {
			changed = true
		}
	}
	if !changed {
		return ts, false, nil
	}
	return out, true, nil
}
