package spindle

import (
	"log/slog"

	"github.com/danpasecinic/spindle/meta"
)

type Option func(*injectorConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *injectorConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithCatalog reads declarations from catalog instead of
// meta.DefaultCatalog.
func WithCatalog(catalog *meta.Catalog) Option {
	return func(cfg *injectorConfig) {
		if catalog != nil {
			cfg.catalog = catalog
		}
	}
}

func WithResolveObserver(hook ResolveHook) Option {
	return func(cfg *injectorConfig) {
		cfg.onResolve = append(cfg.onResolve, hook)
	}
}

func WithBindObserver(hook BindHook) Option {
	return func(cfg *injectorConfig) {
		cfg.onBind = append(cfg.onBind, hook)
	}
}
