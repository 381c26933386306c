package spindle

import (
	"log/slog"

	"github.com/danpasecinic/spindle/internal/container"
	"github.com/danpasecinic/spindle/meta"
)

// Injector holds the bindings of an application. It is assembled by a
// single goroutine, then frozen and shared: resolution is safe for
// concurrent use.
type Injector struct {
	internal *container.Container
	config   *injectorConfig
}

type injectorConfig struct {
	logger    *slog.Logger
	catalog   *meta.Catalog
	onResolve []ResolveHook
	onBind    []BindHook
}

func New(opts ...Option) *Injector {
	cfg := &injectorConfig{
		logger:  slog.Default(),
		catalog: meta.DefaultCatalog,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	internal := container.New(
		&container.Config{
			Logger:    cfg.logger,
			Catalog:   cfg.catalog,
			OnResolve: cfg.onResolve,
			OnBind:    cfg.onBind,
		},
	)

	return &Injector{
		internal: internal,
		config:   cfg,
	}
}

// Catalog is the catalog the injector reads declarations from.
func (i *Injector) Catalog() *meta.Catalog {
	return i.internal.Catalog()
}

func (i *Injector) Logger() *slog.Logger {
	return i.config.logger
}

// Freeze ends assembly. Every later registration fails with a frozen
// error, and compiled lookups are cached.
func (i *Injector) Freeze() {
	i.internal.Freeze()
}

func (i *Injector) Frozen() bool {
	return i.internal.Frozen()
}

// Dispose drops every binding, cached singleton, bound scope and visited
// discovery location. The injector can be assembled again afterwards.
func (i *Injector) Dispose() {
	i.internal.Dispose()
}

func (i *Injector) Size() int {
	return i.internal.Size()
}

func (i *Injector) Keys() []string {
	return i.internal.Keys()
}

func (i *Injector) Has(key Key) bool {
	return i.internal.Has(key)
}

// Validate reports every required key no binding satisfies and every
// cycle among the bindings resolution would choose. Nothing is
// constructed.
func (i *Injector) Validate() error {
	return i.internal.Validate()
}
