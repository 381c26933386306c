package scope

import (
	"context"
	"sync"

	"github.com/danpasecinic/spindle/internal/binding"
	"github.com/danpasecinic/spindle/internal/errs"
)

type requestScopeKey struct{}

type requestCache struct {
	mu    sync.Mutex
	cells map[string]*cell
}

// WithRequestScope returns a context whose request-scoped values are
// shared by every resolution made with it.
func WithRequestScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestScopeKey{}, &requestCache{cells: make(map[string]*cell)})
}

func requestCacheOf(ctx context.Context) *requestCache {
	if rc, ok := ctx.Value(requestScopeKey{}).(*requestCache); ok {
		return rc
	}
	return nil
}

// Request keeps one value per key per request context.
type Request struct{}

func (Request) Scope(key binding.Key, unscoped binding.Supplier) binding.Supplier {
	return func(ctx context.Context) (any, error) {
		rc := requestCacheOf(ctx)
		if rc == nil {
			return nil, errs.New(
				errs.CodeScope, "request scope not found in context; use WithRequestScope(ctx)", nil,
			).WithKey(key.ID())
		}

		rc.mu.Lock()
		c, ok := rc.cells[key.ID()]
		if !ok {
			c = &cell{unscoped: unscoped}
			rc.cells[key.ID()] = c
		}
		rc.mu.Unlock()

		v, _, err := c.get(ctx)
		return v, err
	}
}
