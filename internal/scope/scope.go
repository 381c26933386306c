package scope

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/danpasecinic/spindle/internal/binding"
)

// Scope decorates the supplier of a binding with a reuse policy. key is
// the binding's original key.
type Scope interface {
	Scope(key binding.Key, unscoped binding.Supplier) binding.Supplier
}

// cell computes its value at most once. A failed computation leaves the
// cell empty so the next caller retries.
type cell struct {
	mu       sync.Mutex
	done     atomic.Bool
	value    any
	unscoped binding.Supplier
}

func (c *cell) get(ctx context.Context) (any, bool, error) {
	if c.done.Load() {
		return c.value, false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done.Load() {
		return c.value, false, nil
	}
	v, err := c.unscoped(ctx)
	if err != nil {
		return nil, false, err
	}
	c.value = v
	c.done.Store(true)
	return v, true, nil
}

// Singleton keeps one value per key for the life of the injector.
// Callers for the same key wait on that key's cell only.
type Singleton struct {
	cells  sync.Map
	logger *slog.Logger
}

func NewSingleton(logger *slog.Logger) *Singleton {
	if logger == nil {
		logger = slog.Default()
	}
	return &Singleton{logger: logger}
}

func (s *Singleton) Scope(key binding.Key, unscoped binding.Supplier) binding.Supplier {
	actual, _ := s.cells.LoadOrStore(key.ID(), &cell{unscoped: unscoped})
	c := actual.(*cell)
	return func(ctx context.Context) (any, error) {
		v, created, err := c.get(ctx)
		if created {
			s.logger.Debug("singleton constructed", "key", key.ID())
		}
		return v, err
	}
}

// Size counts the keys that have a cell, constructed or not.
func (s *Singleton) Size() int {
	n := 0
	s.cells.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

func (s *Singleton) Clear() {
	s.cells.Clear()
}
