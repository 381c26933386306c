package container

import (
	"fmt"
	"log/slog"
	reflectPkg "reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danpasecinic/spindle/internal/binding"
	"github.com/danpasecinic/spindle/internal/errs"
	"github.com/danpasecinic/spindle/internal/scope"
	"github.com/danpasecinic/spindle/internal/synth"
	"github.com/danpasecinic/spindle/meta"
)

type ResolveHook func(key string, duration time.Duration, err error)

type BindHook func(key string, kind string)

type Container struct {
	mu       sync.RWMutex
	registry *Registry
	scopes   map[reflectPkg.Type]scope.Scope
	visited  map[string]bool
	current  []string

	synth     *synth.Synthesizer
	catalog   *meta.Catalog
	singleton *scope.Singleton
	logger    *slog.Logger

	frozen   atomic.Bool
	compiled sync.Map

	onResolve []ResolveHook
	onBind    []BindHook
}

type Config struct {
	Logger    *slog.Logger
	Catalog   *meta.Catalog
	OnResolve []ResolveHook
	OnBind    []BindHook
}

func New(cfg *Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = meta.DefaultCatalog
	}

	c := &Container{
		registry:  NewRegistry(),
		visited:   make(map[string]bool),
		synth:     synth.New(catalog),
		catalog:   catalog,
		logger:    logger,
		onResolve: cfg.OnResolve,
		onBind:    cfg.OnBind,
	}
	c.resetScopes()
	return c
}

func (c *Container) resetScopes() {
	c.singleton = scope.NewSingleton(c.logger)
	c.scopes = map[reflectPkg.Type]scope.Scope{
		reflectPkg.TypeFor[meta.Singleton](): c.singleton,
		reflectPkg.TypeFor[meta.Request]():   scope.Request{},
	}
}

func (c *Container) Catalog() *meta.Catalog { return c.catalog }

func (c *Container) Synthesizer() *synth.Synthesizer { return c.synth }

// BindScope registers the implementation of a scope marker. A marker can
// be bound once.
func (c *Container) BindScope(marker any, s scope.Scope) error {
	if err := c.checkMutable("BindScope"); err != nil {
		return err
	}
	if !meta.IsScope(marker) {
		return errs.Configuration("%T is not a scope marker", marker)
	}
	if s == nil {
		return errs.Configuration("nil scope for marker %T", marker)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t := reflectPkg.TypeOf(marker)
	if _, exists := c.scopes[t]; exists {
		return errs.Configuration("cannot rebind scope marker %T to a different implementation", marker)
	}
	c.scopes[t] = s
	c.logger.Debug("scope bound", "marker", fmt.Sprintf("%T", marker))
	return nil
}

func (c *Container) scopeFor(marker any) (scope.Scope, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.scopes[reflectPkg.TypeOf(marker)]
	return s, ok
}

// Freeze ends the assembly phase. Registration fails afterwards and
// compiled suppliers are cached.
func (c *Container) Freeze() {
	if c.frozen.CompareAndSwap(false, true) {
		c.logger.Debug("injector frozen", "keys", c.Size())
	}
}

func (c *Container) Frozen() bool {
	return c.frozen.Load()
}

func (c *Container) checkMutable(op string) error {
	if c.frozen.Load() {
		return errs.Frozen(op)
	}
	return nil
}

// Dispose drops every binding, scope cache, bound scope and visited
// location. The built-in scopes are bound again and the injector accepts
// registrations.
func (c *Container) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.singleton.Clear()
	c.registry.Clear()
	c.resetScopes()
	clear(c.visited)
	c.current = nil
	c.compiled.Clear()
	c.frozen.Store(false)
	c.logger.Debug("injector disposed")
}

// Keys lists every registered key, sorted.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := c.registry.Keys()
	slices.Sort(keys)
	return slices.Compact(keys)
}

func (c *Container) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.registry.Size()
}

// Has reports whether key has at least one candidate binding, counting
// the bindings an interface key is satisfied by structurally.
func (c *Container) Has(key binding.Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.candidatesLocked(key)) > 0
}

// Bindings returns the candidates registered under key, in registration
// order.
func (c *Container) Bindings(key binding.Key) []*binding.Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.registry.Get(key))
}

func (c *Container) callResolveHooks(key string, duration time.Duration, err error) {
	for _, hook := range c.onResolve {
		hook(key, duration, err)
	}
}

func (c *Container) callBindHooks(key string, kind string) {
	for _, hook := range c.onBind {
		hook(key, kind)
	}
}
