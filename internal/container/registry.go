package container

import (
	"github.com/danpasecinic/spindle/internal/binding"
)

// Registry is a multimap from key ID to candidate bindings. Candidates
// keep registration order; a binding appears at most once per key.
type Registry struct {
	entries map[string][]*binding.Binding
	keys    map[string]binding.Key
	order   []string
	all     []*binding.Binding
	seen    map[*binding.Binding]bool
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string][]*binding.Binding),
		keys:    make(map[string]binding.Key),
		seen:    make(map[*binding.Binding]bool),
	}
}

// Touch makes key known without adding a candidate.
func (r *Registry) Touch(key binding.Key) {
	id := key.ID()
	if _, exists := r.keys[id]; exists {
		return
	}
	r.keys[id] = key
	r.order = append(r.order, id)
}

// Add registers b under key. It reports false when b is already a
// candidate of key.
func (r *Registry) Add(key binding.Key, b *binding.Binding) bool {
	r.Touch(key)
	id := key.ID()
	for _, existing := range r.entries[id] {
		if existing == b {
			return false
		}
	}
	r.entries[id] = append(r.entries[id], b)
	if !r.seen[b] {
		r.seen[b] = true
		r.all = append(r.all, b)
	}
	return true
}

func (r *Registry) Get(key binding.Key) []*binding.Binding {
	return r.entries[key.ID()]
}

func (r *Registry) Known(key binding.Key) bool {
	_, ok := r.keys[key.ID()]
	return ok
}

// Key returns the registered key with the given ID.
func (r *Registry) Key(id string) (binding.Key, bool) {
	k, ok := r.keys[id]
	return k, ok
}

// Keys lists key IDs in first-registration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// All lists every distinct binding in registration order.
func (r *Registry) All() []*binding.Binding {
	return r.all
}

func (r *Registry) Size() int {
	return len(r.keys)
}

func (r *Registry) Clear() {
	clear(r.entries)
	clear(r.keys)
	clear(r.seen)
	r.order = nil
	r.all = nil
}
