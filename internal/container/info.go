package container

import (
	"fmt"

	"github.com/danpasecinic/spindle/internal/binding"
)

type BindingInfo struct {
	Key          string
	Source       string
	Kind         string
	Scope        string
	Priority     int
	Aggregate    bool
	Dependencies []string
}

type KeyInfo struct {
	Key        string
	Candidates []BindingInfo
	Dependents []string
}

type GraphInfo struct {
	Keys    []KeyInfo
	Missing []string
	Cycles  [][]string
}

// Info describes every registered key with its candidates, highest
// priority first, and the keys that depend on it.
func (c *Container) Info() GraphInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g := c.graphLocked()
	info := GraphInfo{Missing: g.Missing(), Cycles: g.CyclePaths()}

	for _, id := range c.knownKeysLocked() {
		key, _ := c.registry.Key(id)
		ki := KeyInfo{Key: id, Dependents: g.Dependents(id)}
		for _, b := range byPriority(c.registry.Get(key)) {
			ki.Candidates = append(ki.Candidates, describe(b))
		}
		info.Keys = append(info.Keys, ki)
	}
	return info
}

func describe(b *binding.Binding) BindingInfo {
	bi := BindingInfo{
		Key:       b.Key().ID(),
		Source:    b.Source(),
		Kind:      b.Kind().String(),
		Priority:  b.Priority(),
		Aggregate: b.IsAggregate(),
	}
	if s := b.Scope(); s != nil {
		bi.Scope = fmt.Sprintf("%T", s)
	}
	for _, dep := range b.Dependencies() {
		bi.Dependencies = append(bi.Dependencies, dep.String())
	}
	return bi
}
