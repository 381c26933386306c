package container

import (
	"fmt"
	"slices"
	"strings"

	"github.com/danpasecinic/spindle/internal/binding"
	"github.com/danpasecinic/spindle/internal/errs"
	"github.com/danpasecinic/spindle/internal/graph"
)

// Graph builds the static dependency graph: each key points at the key
// of the binding it would resolve to, and each binding's key at its
// dependencies. Optional dependencies nobody satisfies are left out.
func (c *Container) Graph() *graph.Graph {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.graphLocked()
}

func (c *Container) graphLocked() *graph.Graph {
	g := graph.New()
	done := make(map[string]bool)
	queue := make([]binding.Key, 0, c.registry.Size())
	for _, id := range c.registry.Keys() {
		k, _ := c.registry.Key(id)
		queue = append(queue, k)
	}

	added := make(map[*binding.Binding]bool)
	addBinding := func(b *binding.Binding) {
		if added[b] {
			return
		}
		added[b] = true
		id := b.Key().ID()
		self := b.Key().Unqualified().ID()
		var deps []string
		for _, dep := range b.Dependencies() {
			// Injector methods list their owner first.
			if dep.Key.ID() == id || dep.Key.ID() == self {
				continue
			}
			if dep.Optional && !c.satisfiableLocked(dep.Key) {
				continue
			}
			deps = append(deps, dep.Key.ID())
			queue = append(queue, dep.Key)
		}
		g.AddNode(id, deps)
	}
	link := func(id string, b *binding.Binding) {
		if b.Key().ID() != id {
			g.AddNode(id, []string{b.Key().ID()})
		}
		addBinding(b)
	}

	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		id := key.ID()
		if done[id] {
			continue
		}
		done[id] = true

		cands := c.candidatesLocked(key)
		var elem binding.Key
		switch {
		case key.IsList() && (len(cands) == 0 || allAggregate(cands, isListProvider)):
			elem = key.Param(0)
		case key.IsStringMap() && (len(cands) == 0 || allAggregate(cands, isMapProvider)):
			elem = key.Param(1)
		case len(cands) > 0:
			link(id, choose(cands))
			continue
		default:
			continue
		}

		g.AddNode(id, nil)
		for _, b := range c.candidatesLocked(elem) {
			link(id, b)
		}
		for _, b := range cands {
			link(id, b)
		}
	}
	return g
}

// satisfiableLocked reports whether resolving key as required could find
// a binding.
func (c *Container) satisfiableLocked(key binding.Key) bool {
	return len(c.candidatesLocked(key)) > 0 || key.IsList() || key.IsStringMap()
}

// Validate reports, without constructing anything, the required keys no
// binding satisfies and the dependency cycles among the bindings that
// would be chosen.
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g := c.graphLocked()
	var problems []string

	missing := g.Missing()
	if len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("missing dependencies: [%s]", strings.Join(missing, ", ")))
	}

	paths := g.CyclePaths()
	for _, path := range paths {
		problems = append(problems, "cyclic dependency: "+strings.Join(path, " -> "))
	}

	if len(problems) == 0 {
		return nil
	}
	e := errs.New(errs.CodeValidation, strings.Join(problems, "; "), nil)
	e.Keys = missing
	if len(paths) > 0 {
		e.Chain = slices.Clone(paths[0])
	}
	return e
}

// ResolutionOrder lists the keys resolving key would construct,
// dependencies first.
func (c *Container) ResolutionOrder(key binding.Key) ([]string, error) {
	order, err := c.Graph().ResolutionOrder(key.ID())
	if err != nil {
		return nil, errs.New(errs.CodeCyclicDependency, "no resolution order for "+key.ID(), err)
	}
	return order, nil
}
