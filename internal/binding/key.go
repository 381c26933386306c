package binding

import (
	"github.com/danpasecinic/spindle/meta"
	"github.com/danpasecinic/spindle/types"
)

// Key identifies an injectable target: a simplified type expression and an
// optional qualifier. Two keys are equal when their IDs are equal.
type Key struct {
	Type      types.Type
	Qualifier any
	id        string
}

// NewKey simplifies t into a key. Type variables and wildcards with
// several bounds have no key form and are rejected.
func NewKey(t types.Type, qualifier any) (Key, error) {
	if t == nil {
		t = types.Object
	}
	s, err := types.Simplify(t)
	if err != nil {
		return Key{}, err
	}
	return canonicalKey(s, qualifier), nil
}

// MustKey is NewKey for type expressions known to have a key form. It
// panics otherwise.
func MustKey(t types.Type, qualifier any) Key {
	k, err := NewKey(t, qualifier)
	if err != nil {
		panic(err)
	}
	return k
}

// canonicalKey builds a key from an already simplified type.
func canonicalKey(t types.Type, qualifier any) Key {
	return Key{Type: t, Qualifier: qualifier, id: renderKey(t, qualifier)}
}

func renderKey(t types.Type, qualifier any) string {
	if qualifier == nil {
		return t.String()
	}
	if s, ok := qualifier.(string); ok {
		return t.String() + "#" + s
	}
	return t.String() + "#" + meta.Display(qualifier)
}

// ID is the canonical identity string.
func (k Key) ID() string {
	if k.id == "" && k.Type != nil {
		return renderKey(k.Type, k.Qualifier)
	}
	return k.id
}

func (k Key) String() string { return k.ID() }

func (k Key) Equal(other Key) bool { return k.ID() == other.ID() }

func (k Key) Qualified() bool { return k.Qualifier != nil }

func (k Key) Unqualified() Key {
	if k.Qualifier == nil {
		return k
	}
	return canonicalKey(k.Type, nil)
}

// Raw is the class underneath the key's type, nil for arrays.
func (k Key) Raw() *types.Class {
	return types.RawClass(k.Type)
}

// Param returns the unqualified key of the i-th type argument. Missing
// arguments read as the top type.
func (k Key) Param(i int) Key {
	args := types.Args(k.Type)
	if i < len(args) {
		return canonicalKey(args[i], nil)
	}
	return canonicalKey(types.Object, nil)
}

// IsList reports whether the key denotes List<T>.
func (k Key) IsList() bool { return k.Raw() == types.List }

// IsStringMap reports whether the key denotes Map<String, T>.
func (k Key) IsStringMap() bool {
	return k.Raw() == types.Map && k.Param(0).Raw() == types.String
}

type Dependency struct {
	Key      Key
	Optional bool
}

func Require(k Key) Dependency {
	return Dependency{Key: k}
}

func (d Dependency) id() string {
	if d.Optional {
		return d.Key.ID() + "?"
	}
	return d.Key.ID()
}

func (d Dependency) String() string { return d.id() }

// Dedup keeps the first occurrence of each dependency, preserving order.
func Dedup(deps []Dependency) []Dependency {
	if len(deps) < 2 {
		return deps
	}
	seen := make(map[string]bool, len(deps))
	out := make([]Dependency, 0, len(deps))
	for _, d := range deps {
		if seen[d.id()] {
			continue
		}
		seen[d.id()] = true
		out = append(out, d)
	}
	return out
}
