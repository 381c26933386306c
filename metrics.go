package spindle

import (
	"github.com/danpasecinic/spindle/internal/container"
)

// ResolveHook observes every GetInstance call with the requested key,
// the time spent and the error, if any.
type ResolveHook = container.ResolveHook

// BindHook observes every registration with its key and binding kind.
type BindHook = container.BindHook
