package spindle

import (
	"context"

	"github.com/danpasecinic/spindle/internal/scope"
)

// Scope decorates the supplier of a binding with a reuse policy.
type Scope = scope.Scope

// RequestScope keeps one value per key per request context.
type RequestScope = scope.Request

// WithRequestScope starts a request: request-scoped bindings resolved
// with the returned context share one value per key.
func WithRequestScope(ctx context.Context) context.Context {
	return scope.WithRequestScope(ctx)
}
