package types

import "reflect"

// IsAssignable reports whether a value of type from can be used where to is
// expected. Top-level arguments are compared covariantly by raw class;
// nested type arguments must match exactly unless they are wildcards.
func IsAssignable(to, from Type) bool {
	toClass, ok1 := to.(*Class)
	fromClass, ok2 := from.(*Class)
	if ok1 && ok2 {
		return toClass.AssignableFrom(fromClass)
	}
	return isAssignable(to, from, false)
}

// AssignableFrom is raw, argument-free assignability between classes.
func (c *Class) AssignableFrom(from *Class) bool {
	return classAssignable(c, from, make(map[*Class]bool))
}

func isAssignable(to, from Type, strict bool) bool {
	toW, toIsWildcard := to.(*Wildcard)
	fromW, fromIsWildcard := from.(*Wildcard)
	if toIsWildcard || fromIsWildcard {
		var toUppers, toLowers, fromUppers, fromLowers []Type
		if toIsWildcard {
			toUppers, toLowers = toW.uppers(), toW.Lower
		} else {
			toUppers = []Type{to}
			if strict {
				toLowers = toUppers
			}
		}
		if fromIsWildcard {
			fromUppers, fromLowers = fromW.uppers(), fromW.Lower
		} else {
			fromUppers = []Type{from}
			if strict {
				fromLowers = fromUppers
			}
		}

		for _, tu := range toUppers {
			for _, fu := range fromUppers {
				if !isAssignable(tu, fu, false) {
					return false
				}
			}
		}
		if len(toLowers) == 0 {
			return true
		}
		if len(fromLowers) == 0 {
			return false
		}
		for _, tl := range toLowers {
			for _, fl := range fromLowers {
				if !isAssignable(fl, tl, false) {
					return false
				}
			}
		}
		return true
	}

	if _, ok := to.(*Array); ok {
		to = RawType(to)
	}
	if _, ok := from.(*Array); ok {
		from = RawType(from)
	}
	if !strict && isRaw(to) {
		return rawAssignable(to, RawType(from))
	}
	return assignableTo(RawType(to), Args(to), from, strict)
}

func assignableTo(toRaw Type, toArgs []Type, from Type, strict bool) bool {
	fromRaw := RawType(from)
	if strict && !Equal(toRaw, fromRaw) {
		return false
	}
	if !strict && !rawAssignable(toRaw, fromRaw) {
		return false
	}
	if _, ok := toRaw.(*Array); ok {
		return true
	}

	fromArgs := Args(from)
	if Equal(toRaw, fromRaw) {
		if len(toArgs) > len(fromArgs) {
			return false
		}
		for i := range toArgs {
			if !isAssignable(toArgs[i], fromArgs[i], true) {
				return false
			}
		}
		return true
	}

	fromClass, ok := fromRaw.(*Class)
	if !ok {
		return toRaw == Object
	}

	b := TypeBindings(from)
	lookup := func(v *Var) (Type, bool) {
		if r, ok := b[v]; ok {
			return r, true
		}
		return Any(), true
	}
	for _, itf := range fromClass.Interfaces {
		bound, err := SubstituteFunc(itf, lookup)
		if err == nil && assignableTo(toRaw, toArgs, bound, false) {
			return true
		}
	}
	if super := superOf(fromClass); super != nil {
		bound, err := SubstituteFunc(super, lookup)
		if err == nil && assignableTo(toRaw, toArgs, bound, false) {
			return true
		}
	}

	toClass, ok := toRaw.(*Class)
	return ok && len(toArgs) == 0 && goAssignable(toClass, fromClass)
}

func isRaw(t Type) bool {
	switch v := t.(type) {
	case *Class:
		return true
	case *Array:
		return isRaw(v.Elem)
	default:
		return false
	}
}

func rawAssignable(to, from Type) bool {
	if to == Object {
		return true
	}
	switch t := to.(type) {
	case *Class:
		f, ok := from.(*Class)
		return ok && t.AssignableFrom(f)
	case *Array:
		f, ok := from.(*Array)
		return ok && rawAssignable(RawType(t.Elem), RawType(f.Elem))
	default:
		return false
	}
}

func classAssignable(to, from *Class, seen map[*Class]bool) bool {
	if to == from || to == Object {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true

	for _, itf := range from.Interfaces {
		if c := RawClass(itf); c != nil && classAssignable(to, c, seen) {
			return true
		}
	}
	if super := superOf(from); super != nil {
		if c := RawClass(super); c != nil && classAssignable(to, c, seen) {
			return true
		}
	}
	return goAssignable(to, from)
}

func goAssignable(to, from *Class) bool {
	if to.Go == nil || from.Go == nil {
		return false
	}
	if to.Go.Kind() == reflect.Interface {
		return from.Go.Implements(to.Go)
	}
	return from.Go.AssignableTo(to.Go)
}
