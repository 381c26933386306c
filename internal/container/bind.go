package container

import (
	"context"
	"fmt"
	reflectPkg "reflect"
	"slices"
	"strings"

	"github.com/danpasecinic/spindle/internal/binding"
	"github.com/danpasecinic/spindle/internal/errs"
	"github.com/danpasecinic/spindle/internal/reflect"
	"github.com/danpasecinic/spindle/meta"
	"github.com/danpasecinic/spindle/types"
)

// BindInstance registers v under t, the qualifier of t's declaration and
// every ancestor of t.
func (c *Container) BindInstance(t reflectPkg.Type, v any) error {
	if err := c.checkMutable("BindInstance"); err != nil {
		return err
	}
	if t == nil {
		return errs.Configuration("nil type for instance %T", v)
	}
	if reflect.IsNil(v) {
		return errs.Configuration("nil instance for %s", reflect.TypeKeyOf(t))
	}
	if !reflectPkg.TypeOf(v).AssignableTo(t) {
		return errs.Configuration("instance of %T is not assignable to %s", v, reflect.TypeKeyOf(t))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key, err := c.synth.KeyOf(t)
	if err != nil {
		return err
	}
	return c.registerLocked(key, t, binding.ToInstance(v).WithKey(key))
}

// BindSupplier registers fn as an unscoped factory of t.
func (c *Container) BindSupplier(t reflectPkg.Type, fn func(context.Context) (any, error)) error {
	if err := c.checkMutable("BindSupplier"); err != nil {
		return err
	}
	if t == nil || fn == nil {
		return errs.Configuration("BindSupplier needs a type and a function")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key, err := c.synth.KeyOf(t)
	if err != nil {
		return err
	}
	id := key.ID()
	wrapped := func(ctx context.Context) (v any, err error) {
		defer func() {
			if r := recover(); r != nil {
				v, err = nil, errs.Invocation(id, "supplier failed", fmt.Errorf("panic: %v", r))
			}
		}()
		v, err = fn(ctx)
		if err != nil {
			return nil, errs.Invocation(id, "supplier failed", err)
		}
		return v, nil
	}
	b := binding.ToSupplier(wrapped).
		WithKey(key).
		WithGoType(t).
		WithSource("supplier of " + reflect.TypeKeyOf(t))
	return c.registerLocked(key, t, b)
}

// BindImplicit synthesizes the binding of t from its declaration. An
// interface only becomes a known key, and picks up every registered
// binding whose Go type implements it. Abstract declarations are skipped.
func (c *Container) BindImplicit(t reflectPkg.Type) error {
	if err := c.checkMutable("BindImplicit"); err != nil {
		return err
	}
	if t == nil {
		return errs.Configuration("nil type")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.bindImplicitLocked(t)
}

// Declare records d in the catalog and binds its type implicitly.
func (c *Container) Declare(d meta.Decl) error {
	if err := c.checkMutable("Declare"); err != nil {
		return err
	}
	if err := c.catalog.Declare(d); err != nil {
		return errs.New(errs.CodeConfiguration, "invalid declaration", err)
	}
	return c.BindImplicit(d.Type)
}

func (c *Container) bindImplicitLocked(t reflectPkg.Type) error {
	key, err := c.synth.KeyOf(t)
	if err != nil {
		return err
	}

	if t.Kind() == reflectPkg.Interface {
		c.registry.Touch(key)
		if key.Qualified() {
			c.registry.Touch(key.Unqualified())
		}
		c.backfillLocked(key, t)
		return nil
	}
	if c.synth.DeclOf(t).Abstract {
		return nil
	}

	b, err := c.synth.Implicit(key, t)
	if err != nil {
		return err
	}
	return c.registerLocked(key, t, b)
}

func (c *Container) registerLocked(key binding.Key, t reflectPkg.Type, b *binding.Binding) error {
	if err := c.doBindLocked(key, t, b); err != nil {
		return err
	}
	c.logger.Debug("binding registered", "key", key.ID(), "kind", b.Kind().String(), "source", b.Source())
	c.callBindHooks(key.ID(), b.Kind().String())
	return nil
}

// doBindLocked registers b under key and then under the keys of every
// embedded base of t. The guard rejects a type whose registration
// re-enters its own registration.
func (c *Container) doBindLocked(key binding.Key, t reflectPkg.Type, b *binding.Binding) error {
	id := key.ID()
	if slices.Contains(c.current, id) {
		chain := append(slices.Clone(c.current), id)
		return errs.Configuration("circular references: [%s]", strings.Join(chain, ", "))
	}
	c.current = append(c.current, id)
	defer func() { c.current = c.current[:len(c.current)-1] }()

	if err := c.doBindImplicitLocked(key, t, b); err != nil {
		return err
	}

	visited := map[reflectPkg.Type]bool{t: true}
	for base, ok := reflect.Embedded(t); ok && !visited[base]; base, ok = reflect.Embedded(base) {
		visited[base] = true
		baseKey := binding.MustKey(c.catalog.TypeOf(base), key.Qualifier)
		if err := c.doBindImplicitLocked(baseKey, base, b); err != nil {
			return err
		}
		if key.Qualified() {
			c.registry.Add(baseKey.Unqualified(), b)
		}
	}
	return nil
}

func (c *Container) doBindImplicitLocked(key binding.Key, t reflectPkg.Type, b *binding.Binding) error {
	decl := c.synth.DeclOf(t)

	allowed := c.boundTypes(decl.Markers, c.catalog.TypeOf(t))
	// Re-read the type: naming a Typed interface may have taught the
	// catalog a new interface.
	expr := key.Type
	if raw := types.RawClass(expr); raw != nil && raw.Go == t {
		expr = c.catalog.TypeOf(t)
	}
	c.addClosureLocked(expr, key.Qualifier, allowed, b)

	for _, nested := range decl.Nested {
		q, err := meta.QualifierOf(nested.Markers)
		if err != nil {
			return err
		}
		if q == nil {
			continue
		}
		if err := c.bindImplicitLocked(nested.Type); err != nil {
			return err
		}
	}

	for _, f := range decl.Provides {
		if err := c.bindProvidesLocked(decl, f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) bindProvidesLocked(decl *meta.Decl, f meta.Func) error {
	b, err := c.synth.FromFunc(decl, f, binding.KindMethod)
	if err != nil {
		return err
	}
	sc, err := meta.ScopeOf(f.Markers)
	if err != nil {
		return err
	}
	if sc != nil {
		b = b.WithScope(sc)
	}

	key := b.Key()
	allowed := c.boundTypes(f.Markers, key.Type)
	expr := key.Type
	if _, overridden := meta.TypeOverride(f.Markers); !overridden {
		expr = c.catalog.TypeOf(b.GoType())
	}
	c.addClosureLocked(expr, key.Qualifier, allowed, b)
	c.logger.Debug("provider registered", "key", key.ID(), "source", b.Source(), "owner", decl.DisplayName())
	c.callBindHooks(key.ID(), b.Kind().String())
	return nil
}

// addClosureLocked registers b under every supertype of expr that allowed
// admits, with the qualifier and, when qualified, without it.
func (c *Container) addClosureLocked(expr types.Type, qualifier any, allowed map[string]bool, b *binding.Binding) {
	for _, st := range types.SupertypeClosure(expr) {
		if allowed != nil {
			raw := types.RawClass(st)
			if raw == nil || !allowed[raw.Name] {
				continue
			}
		}
		k, err := binding.NewKey(st, qualifier)
		if err != nil {
			c.logger.Debug("supertype skipped", "type", st.String(), "error", err)
			continue
		}
		c.registry.Add(k, b)
		if qualifier != nil {
			c.registry.Add(k.Unqualified(), b)
		}
	}
}

// boundTypes reads the Typed marker: nil admits every supertype, an empty
// list admits the direct interfaces of t and the top type.
func (c *Container) boundTypes(markers []any, t types.Type) map[string]bool {
	typed, ok := meta.TypedOf(markers)
	if !ok {
		return nil
	}
	allowed := make(map[string]bool)
	if len(typed) == 0 {
		if raw := types.RawClass(t); raw != nil {
			for _, itf := range raw.Interfaces {
				if r := types.RawClass(itf); r != nil {
					allowed[r.Name] = true
				}
			}
		}
		allowed[types.Object.Name] = true
		return allowed
	}
	for _, rt := range typed {
		if r := types.RawClass(c.catalog.TypeOf(rt)); r != nil {
			allowed[r.Name] = true
		}
	}
	return allowed
}

// admits reports whether a binding of Go type gt may stand for iface under
// the Typed marker of gt's declaration.
func (c *Container) admits(gt reflectPkg.Type, iface *types.Class) bool {
	allowed := c.boundTypes(c.synth.DeclOf(gt).Markers, c.catalog.TypeOf(gt))
	return allowed == nil || allowed[iface.Name]
}

// backfillLocked registers under key the bindings that implement the
// interface t but were bound before the catalog knew it.
func (c *Container) backfillLocked(key binding.Key, t reflectPkg.Type) {
	raw := key.Raw()
	if raw == nil || t.NumMethod() == 0 {
		return
	}
	for _, b := range slices.Clone(c.registry.All()) {
		gt := b.GoType()
		if gt == nil || gt == t || !gt.Implements(t) {
			continue
		}
		if key.Qualified() && !sameQualifier(b.Key().Qualifier, key.Qualifier) {
			continue
		}
		if !c.admits(gt, raw) {
			continue
		}
		if c.registry.Add(key, b) {
			c.logger.Debug("binding back-filled", "key", key.ID(), "source", b.Source())
		}
		if key.Qualified() {
			c.registry.Add(key.Unqualified(), b)
		}
	}
}

func sameQualifier(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b) && meta.Display(a) == meta.Display(b)
}
