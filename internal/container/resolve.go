package container

import (
	"cmp"
	"context"
	reflectPkg "reflect"
	"slices"
	"time"

	"github.com/danpasecinic/spindle/internal/binding"
	"github.com/danpasecinic/spindle/internal/errs"
	"github.com/danpasecinic/spindle/types"
)

// GetInstance resolves key as a required dependency. List and map
// multibindings come back as *binding.List and *binding.Map views.
func (c *Container) GetInstance(ctx context.Context, key binding.Key) (any, error) {
	start := time.Now()
	v, err := c.compiler(binding.Require(key))(ctx)
	c.callResolveHooks(key.ID(), time.Since(start), err)
	return v, err
}

// Supplier returns the lazy supplier of dep. Lookup happens on each call
// so that a later registration can satisfy an earlier failure.
func (c *Container) Supplier(dep binding.Dependency) binding.Supplier {
	return c.compiler(dep)
}

// InjectInstance runs the field and method injection of obj's type
// against the live registry without constructing anything for obj itself.
func (c *Container) InjectInstance(ctx context.Context, obj any) error {
	if obj == nil {
		return errs.Configuration("cannot inject into nil")
	}
	init, err := c.synth.Injector(reflectPkg.TypeOf(obj))
	if err != nil {
		return err
	}
	return init.Compile(c.compiler)(ctx, obj)
}

// compiler is the binding.Compiler handed to every binding: resolution of
// dep is deferred until the supplier runs, under the cyclic guard.
func (c *Container) compiler(dep binding.Dependency) binding.Supplier {
	id := dep.Key.ID()
	return func(ctx context.Context) (any, error) {
		ctx, err := pushResolving(ctx, id)
		if err != nil {
			return nil, err
		}
		supplier, err := c.supplierFor(ctx, dep)
		if err != nil {
			return nil, err
		}
		return supplier(ctx)
	}
}

func (c *Container) supplierFor(ctx context.Context, dep binding.Dependency) (binding.Supplier, error) {
	frozen := c.frozen.Load()
	if frozen {
		if s, ok := c.compiled.Load(dep.String()); ok {
			return s.(binding.Supplier), nil
		}
	}

	c.mu.RLock()
	supplier, err := c.doGetCompiledBinding(dep)
	c.mu.RUnlock()
	if err != nil {
		return nil, c.decorate(ctx, err)
	}

	if frozen {
		actual, _ := c.compiled.LoadOrStore(dep.String(), supplier)
		supplier = actual.(binding.Supplier)
	}
	return supplier, nil
}

// decorate attaches the resolution path to a resolution failure.
func (c *Container) decorate(ctx context.Context, err error) error {
	if e, ok := err.(*errs.Error); ok && e.Code == errs.CodeResolution {
		return e.WithChain(resolvingChain(ctx))
	}
	return err
}

func (c *Container) doGetCompiledBinding(dep binding.Dependency) (binding.Supplier, error) {
	key := dep.Key
	cands := c.candidatesLocked(key)

	if len(cands) > 0 {
		switch {
		case key.IsList() && allAggregate(cands, isListProvider):
			return c.listAggregationLocked(key)
		case key.Raw() == types.Map && allAggregate(cands, isMapProvider):
			if key.IsStringMap() {
				return c.mapAggregationLocked(key)
			}
		}
		return c.compileLocked(choose(cands))
	}

	if key.IsList() {
		return c.listAggregationLocked(key)
	}
	if key.IsStringMap() {
		return c.mapAggregationLocked(key)
	}
	if dep.Optional {
		return func(context.Context) (any, error) { return binding.Absent{}, nil }, nil
	}
	return nil, errs.Resolution(key.ID(), c.knownKeysLocked(), nil)
}

// candidatesLocked returns the bindings registered under key. An
// interface key nobody registered under falls back to every binding whose
// Go type implements it.
func (c *Container) candidatesLocked(key binding.Key) []*binding.Binding {
	if found := c.registry.Get(key); len(found) > 0 {
		return found
	}
	return c.structuralLocked(key)
}

func (c *Container) structuralLocked(key binding.Key) []*binding.Binding {
	raw := key.Raw()
	if raw == nil || raw == types.Object || raw.Go == nil || raw.Go.Kind() != reflectPkg.Interface {
		return nil
	}
	if raw.Go.NumMethod() == 0 || len(types.Args(key.Type)) > 0 {
		return nil
	}

	var out []*binding.Binding
	for _, b := range c.registry.All() {
		gt := b.GoType()
		if gt == nil || !gt.Implements(raw.Go) {
			continue
		}
		if key.Qualified() && !sameQualifier(b.Key().Qualifier, key.Qualifier) {
			continue
		}
		if !c.admits(gt, raw) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (c *Container) compileLocked(b *binding.Binding) (binding.Supplier, error) {
	supplier := b.Compile(c.compiler)
	if marker := b.Scope(); marker != nil {
		s, ok := c.scopes[reflectPkg.TypeOf(marker)]
		if !ok {
			return nil, errs.Scope(marker).WithKey(b.Key().ID())
		}
		supplier = s.Scope(b.Key(), supplier)
	}
	return guarded(b.Key().ID(), supplier), nil
}

// guarded marks the binding's own key as resolving before its scope is
// entered. A binding reached through one of its supertype keys would
// otherwise re-enter its scope cell before the guard sees the repeat.
func guarded(id string, supplier binding.Supplier) binding.Supplier {
	return func(ctx context.Context) (any, error) {
		if top := resolvingOf(ctx); top == nil || top.key != id {
			var err error
			if ctx, err = pushResolving(ctx, id); err != nil {
				return nil, err
			}
		}
		return supplier(ctx)
	}
}

// listAggregationLocked collects every binding of the element type into a
// lazy list, highest priority first. An explicit List provider wins over
// aggregation; aggregate providers contribute their elements.
func (c *Container) listAggregationLocked(key binding.Key) (binding.Supplier, error) {
	elems := c.candidatesLocked(key.Param(0))
	lists := c.registry.Get(key)

	if explicit := findExplicit(elems, isListProvider); explicit != nil {
		return c.compileLocked(explicit)
	}
	if explicit := findExplicit(lists, isListProvider); explicit != nil {
		return c.compileLocked(explicit)
	}

	var contributions []*binding.Binding
	for _, b := range elems {
		if isListProvider(b) {
			if b.IsAggregate() {
				contributions = append(contributions, b)
			}
			continue
		}
		contributions = append(contributions, b)
	}
	for _, b := range lists {
		if isListProvider(b) && b.IsAggregate() && !slices.Contains(contributions, b) {
			contributions = append(contributions, b)
		}
	}

	type part struct {
		supplier binding.Supplier
		expand   bool
	}
	parts := make([]part, 0, len(contributions))
	for _, b := range byPriority(contributions) {
		s, err := c.compileLocked(b)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part{supplier: s, expand: isListProvider(b)})
	}

	return func(ctx context.Context) (any, error) {
		var suppliers []binding.Supplier
		for _, p := range parts {
			if !p.expand {
				suppliers = append(suppliers, p.supplier)
				continue
			}
			v, err := p.supplier(ctx)
			if err != nil {
				return nil, err
			}
			items, err := binding.Elements(ctx, v)
			if err != nil {
				return nil, errs.New(errs.CodeInvocation, "aggregate list provider", err).WithKey(key.ID())
			}
			for _, item := range items {
				suppliers = append(suppliers, constant(item))
			}
		}
		return binding.NewList(suppliers), nil
	}, nil
}

// mapAggregationLocked collects the string-named bindings of the value
// type into a lazy map. On duplicate names the higher priority, then the
// earlier registration, wins.
func (c *Container) mapAggregationLocked(key binding.Key) (binding.Supplier, error) {
	values := c.candidatesLocked(key.Param(1))
	maps := c.registry.Get(key)

	if explicit := findExplicit(values, isMapProvider); explicit != nil {
		return c.compileLocked(explicit)
	}
	if explicit := findExplicit(maps, isMapProvider); explicit != nil {
		return c.compileLocked(explicit)
	}

	var contributions []*binding.Binding
	for _, b := range values {
		switch {
		case isMapProvider(b):
			if b.IsAggregate() {
				contributions = append(contributions, b)
			}
		case nameOf(b) != "":
			contributions = append(contributions, b)
		}
	}
	for _, b := range maps {
		if isMapProvider(b) && b.IsAggregate() && !slices.Contains(contributions, b) {
			contributions = append(contributions, b)
		}
	}

	type part struct {
		name     string
		supplier binding.Supplier
	}
	parts := make([]part, 0, len(contributions))
	for _, b := range byPriority(contributions) {
		s, err := c.compileLocked(b)
		if err != nil {
			return nil, err
		}
		name := ""
		if !isMapProvider(b) {
			name = nameOf(b)
		}
		parts = append(parts, part{name: name, supplier: s})
	}

	return func(ctx context.Context) (any, error) {
		m := binding.NewMap()
		seen := make(map[string]bool)
		put := func(name string, s binding.Supplier) {
			if !seen[name] {
				seen[name] = true
				m.Put(name, s)
			}
		}
		for _, p := range parts {
			if p.name != "" {
				put(p.name, p.supplier)
				continue
			}
			v, err := p.supplier(ctx)
			if err != nil {
				return nil, err
			}
			names, entries, err := binding.Entries(ctx, v)
			if err != nil {
				return nil, errs.New(errs.CodeInvocation, "aggregate map provider", err).WithKey(key.ID())
			}
			for _, name := range names {
				put(name, constant(entries[name]))
			}
		}
		return m, nil
	}, nil
}

func (c *Container) knownKeysLocked() []string {
	keys := c.registry.Keys()
	slices.Sort(keys)
	return slices.Compact(keys)
}

func isListProvider(b *binding.Binding) bool { return b.Key().IsList() }

func isMapProvider(b *binding.Binding) bool { return b.Key().Raw() == types.Map }

func allAggregate(bs []*binding.Binding, provider func(*binding.Binding) bool) bool {
	for _, b := range bs {
		if !provider(b) || !b.IsAggregate() {
			return false
		}
	}
	return true
}

func findExplicit(bs []*binding.Binding, provider func(*binding.Binding) bool) *binding.Binding {
	for _, b := range bs {
		if provider(b) && !b.IsAggregate() {
			return b
		}
	}
	return nil
}

func nameOf(b *binding.Binding) string {
	name, _ := b.Key().Qualifier.(string)
	return name
}

// choose picks the binding a single-valued lookup resolves to. Aggregate
// providers only contribute to multibindings, so plain candidates win over
// them regardless of priority.
func choose(cands []*binding.Binding) *binding.Binding {
	plain := slices.DeleteFunc(slices.Clone(cands), (*binding.Binding).IsAggregate)
	if len(plain) == 0 {
		plain = cands
	}
	return byPriority(plain)[0]
}

// byPriority sorts a copy of bs, highest priority first. Ties keep
// registration order.
func byPriority(bs []*binding.Binding) []*binding.Binding {
	out := slices.Clone(bs)
	slices.SortStableFunc(
		out, func(a, b *binding.Binding) int {
			return cmp.Compare(b.Priority(), a.Priority())
		},
	)
	return out
}

func constant(v any) binding.Supplier {
	return func(context.Context) (any, error) { return v, nil }
}
