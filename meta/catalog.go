package meta

import (
	"fmt"
	reflectPkg "reflect"
	"sync"

	"github.com/danpasecinic/spindle/internal/reflect"
	"github.com/danpasecinic/spindle/types"
)

// Catalog maps Go types to type expressions and keeps declarations by Go
// type and by name. Classes are derived on first use: an embedded struct
// becomes the superclass, and every interface the catalog has seen that
// the type implements becomes one of its interfaces.
type Catalog struct {
	mu      sync.RWMutex
	classes map[reflectPkg.Type]derived
	aliases map[reflectPkg.Type]types.Type
	decls   map[reflectPkg.Type]*Decl
	names   map[string]reflectPkg.Type
	ifaces  []reflectPkg.Type
	known   map[reflectPkg.Type]bool
	gen     int
}

type derived struct {
	class *types.Class
	gen   int
}

func NewCatalog() *Catalog {
	return &Catalog{
		classes: make(map[reflectPkg.Type]derived),
		aliases: make(map[reflectPkg.Type]types.Type),
		decls:   make(map[reflectPkg.Type]*Decl),
		names:   make(map[string]reflectPkg.Type),
		known:   make(map[reflectPkg.Type]bool),
	}
}

var DefaultCatalog = NewCatalog()

// Register declares d in DefaultCatalog. It panics on an invalid
// declaration, so it belongs in init functions.
func Register(d Decl) {
	if err := DefaultCatalog.Declare(d); err != nil {
		panic(err)
	}
}

// Alias maps a Go type to an explicit type expression, typically an
// instantiation of a generic class. The expression must be closed: free
// type variables and wildcards with several bounds are rejected.
func (c *Catalog) Alias(t reflectPkg.Type, expr types.Type) error {
	if _, err := types.Simplify(expr); err != nil {
		return fmt.Errorf("alias of %s: %w", reflect.TypeKeyOf(t), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.aliases[t] = expr
	c.learnLocked(t)
	return nil
}

// Declare records d and its nested declarations.
func (c *Catalog) Declare(d Decl) error {
	if d.Type == nil {
		return fmt.Errorf("declaration %q has no type", d.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.declareLocked(d, map[reflectPkg.Type]bool{})
}

// declareLocked stores d unless d's type is already being declared
// higher up the nesting, which keeps the outer declaration.
func (c *Catalog) declareLocked(d Decl, declaring map[reflectPkg.Type]bool) error {
	if declaring[d.Type] {
		return nil
	}
	declaring[d.Type] = true
	defer delete(declaring, d.Type)

	if prev, ok := c.names[d.DisplayName()]; ok && prev != d.Type {
		return fmt.Errorf(
			"name %q already declared for %s", d.DisplayName(), reflect.TypeKeyOf(prev),
		)
	}
	stored := d
	c.decls[d.Type] = &stored
	c.names[d.DisplayName()] = d.Type
	if d.Name != "" {
		c.names[reflect.TypeKeyOf(d.Type)] = d.Type
	}
	if d.Class != nil || d.Extends != nil || len(d.Implements) > 0 {
		delete(c.classes, d.Type)
	}
	c.learnLocked(d.Type)

	for _, nested := range d.Nested {
		if nested.Type == nil {
			return fmt.Errorf("nested declaration of %s has no type", d.DisplayName())
		}
		if err := c.declareLocked(nested, declaring); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) DeclOf(t reflectPkg.Type) (*Decl, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.decls[t]
	return d, ok
}

// Lookup finds a declared type by its declared name or its Go type key.
func (c *Catalog) Lookup(name string) (reflectPkg.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.names[name]
	return t, ok
}

// Names lists every declared name.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.names))
	for name := range c.names {
		names = append(names, name)
	}
	return names
}

// TypeOf returns the type expression for t.
func (c *Catalog) TypeOf(t reflectPkg.Type) types.Type {
	c.mu.RLock()
	expr, ok := c.lookupLocked(t)
	c.mu.RUnlock()
	if ok {
		return expr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.typeOfLocked(t)
}

func (c *Catalog) lookupLocked(t reflectPkg.Type) (types.Type, bool) {
	if expr, ok := c.aliases[t]; ok {
		return expr, true
	}
	if d, ok := c.classes[t]; ok && d.gen == c.gen {
		return d.class, true
	}
	return nil, false
}

func (c *Catalog) typeOfLocked(t reflectPkg.Type) types.Type {
	c.learnLocked(t)
	if expr, ok := c.lookupLocked(t); ok {
		return expr
	}

	switch {
	case t == reflectPkg.TypeFor[any]():
		return types.Object
	case t == reflectPkg.TypeFor[string]():
		return types.String
	case t.Name() == "" && t.Kind() == reflectPkg.Slice:
		return types.ListOf(c.typeOfLocked(t.Elem()))
	case t.Name() == "" && t.Kind() == reflectPkg.Array:
		return types.ArrayOf(c.typeOfLocked(t.Elem()))
	case t.Name() == "" && t.Kind() == reflectPkg.Map:
		return types.MapOf(c.typeOfLocked(t.Key()), c.typeOfLocked(t.Elem()))
	}

	class := c.deriveLocked(t)
	c.classes[t] = derived{class: class, gen: c.gen}
	return class
}

func (c *Catalog) deriveLocked(t reflectPkg.Type) *types.Class {
	d := c.decls[t]

	var class *types.Class
	if d != nil && d.Class != nil {
		class = d.Class
	} else {
		class = &types.Class{Name: typeName(t)}
		if t.Kind() == reflectPkg.Interface {
			class.Kind = types.KindInterface
		}
	}
	if class.Go == nil {
		class.Go = t
	}

	// A placeholder stops recursion through self-referencing hierarchies.
	c.classes[t] = derived{class: class, gen: c.gen}

	if d != nil && d.Class != nil {
		return class
	}

	switch {
	case d != nil && d.Extends != nil:
		class.Super = d.Extends
	case t.Kind() != reflectPkg.Interface:
		if base, ok := reflect.Embedded(t); ok {
			class.Super = c.typeOfLocked(base)
		}
	}

	seen := make(map[string]bool)
	for _, itf := range c.ifaces {
		if itf == t || !t.Implements(itf) {
			continue
		}
		expr := c.typeOfLocked(itf)
		if !seen[expr.String()] {
			seen[expr.String()] = true
			class.Interfaces = append(class.Interfaces, expr)
		}
	}
	if d != nil {
		for _, itf := range d.Implements {
			if !seen[itf.String()] {
				seen[itf.String()] = true
				class.Interfaces = append(class.Interfaces, itf)
			}
		}
	}
	return class
}

// learnLocked records interface types so that later derivations list them.
// Learning a new interface invalidates every derived class.
func (c *Catalog) learnLocked(t reflectPkg.Type) {
	if t.Kind() != reflectPkg.Interface || t.NumMethod() == 0 || c.known[t] {
		return
	}
	c.known[t] = true
	c.ifaces = append(c.ifaces, t)
	c.gen++
}

// Interfaces lists the interface types the catalog has seen.
func (c *Catalog) Interfaces() []reflectPkg.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]reflectPkg.Type(nil), c.ifaces...)
}

func typeName(t reflectPkg.Type) string {
	return reflect.TypeKeyOf(t)
}
