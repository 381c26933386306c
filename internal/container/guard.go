package container

import (
	"context"
	"slices"

	"github.com/danpasecinic/spindle/internal/errs"
)

type resolvingKey struct{}

// resolving is an immutable stack of the keys being resolved by one call
// tree. Each goroutine carries its own through its context.
type resolving struct {
	key    string
	parent *resolving
}

func resolvingOf(ctx context.Context) *resolving {
	r, _ := ctx.Value(resolvingKey{}).(*resolving)
	return r
}

// pushResolving returns a context with key on top of the stack, or a
// CyclicDependency error when key is already being resolved.
func pushResolving(ctx context.Context, key string) (context.Context, error) {
	top := resolvingOf(ctx)
	for r := top; r != nil; r = r.parent {
		if r.key == key {
			chain := append(resolvingChain(ctx), key)
			start := slices.Index(chain, key)
			return ctx, errs.Cyclic(chain[start:]).WithKey(key)
		}
	}
	return context.WithValue(ctx, resolvingKey{}, &resolving{key: key, parent: top}), nil
}

// resolvingChain lists the stack from the outermost key.
func resolvingChain(ctx context.Context) []string {
	var chain []string
	for r := resolvingOf(ctx); r != nil; r = r.parent {
		chain = append(chain, r.key)
	}
	slices.Reverse(chain)
	return chain
}
