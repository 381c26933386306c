package spindle

import (
	"context"
	"reflect"

	"github.com/danpasecinic/spindle/discovery"
	"github.com/danpasecinic/spindle/meta"
)

// Module batches assembly steps so that a package can export its wiring.
// Steps run in the order they were added, after included modules.
type Module struct {
	name       string
	steps      []func(i *Injector) error
	submodules []*Module
}

func NewModule(name string) *Module {
	return &Module{
		name: name,
	}
}

func (m *Module) Name() string {
	return m.name
}

func (m *Module) Include(submodule *Module) *Module {
	m.submodules = append(m.submodules, submodule)
	return m
}

func (m *Module) Instance(t reflect.Type, v any) *Module {
	return m.step(func(i *Injector) error { return i.BindInstance(t, v) })
}

func (m *Module) Implicit(t reflect.Type) *Module {
	return m.step(func(i *Injector) error { return i.BindImplicit(t) })
}

func (m *Module) Declare(d meta.Decl) *Module {
	return m.step(func(i *Injector) error { return i.Declare(d) })
}

func (m *Module) Scope(marker any, s Scope) *Module {
	return m.step(func(i *Injector) error { return i.BindScope(marker, s) })
}

func (m *Module) Discover(sources ...discovery.Source) *Module {
	return m.step(func(i *Injector) error { return i.Discover(sources...) })
}

func (m *Module) step(fn func(i *Injector) error) *Module {
	m.steps = append(m.steps, fn)
	return m
}

func (m *Module) apply(i *Injector, applied map[*Module]bool) error {
	if applied[m] {
		return nil
	}
	applied[m] = true

	for _, sub := range m.submodules {
		if err := sub.apply(i, applied); err != nil {
			return err
		}
	}

	for _, step := range m.steps {
		if err := step(i); err != nil {
			return errModuleApplyFailed(m.name, err)
		}
	}
	return nil
}

// Apply runs the steps of each module. A module included twice is
// applied once.
func (i *Injector) Apply(modules ...*Module) error {
	applied := make(map[*Module]bool)
	for _, m := range modules {
		if err := m.apply(i, applied); err != nil {
			return err
		}
	}
	return nil
}

func ModuleInstance[T any](m *Module, v T) *Module {
	return m.step(func(i *Injector) error { return BindInstance(i, v) })
}

func ModuleSupplier[T any](m *Module, fn func(ctx context.Context) (T, error)) *Module {
	return m.step(func(i *Injector) error { return BindSupplier(i, fn) })
}

func ModuleImplicit[T any](m *Module) *Module {
	return m.step(func(i *Injector) error { return BindImplicit[T](i) })
}
