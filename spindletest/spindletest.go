// Package spindletest provides helpers for tests that assemble an
// injector.
package spindletest

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/danpasecinic/spindle"
	"github.com/danpasecinic/spindle/discovery"
	"github.com/danpasecinic/spindle/meta"
)

type TB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Cleanup(f func())
}

type TestInjector struct {
	*spindle.Injector
	tb TB
}

// New returns an injector with a fresh catalog and a discarding logger.
// The injector is disposed when the test ends.
func New(tb TB, opts ...spindle.Option) *TestInjector {
	tb.Helper()

	opts = append(
		[]spindle.Option{
			spindle.WithCatalog(meta.NewCatalog()),
			spindle.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		}, opts...,
	)
	inj := spindle.New(opts...)
	tb.Cleanup(inj.Dispose)

	return &TestInjector{
		Injector: inj,
		tb:       tb,
	}
}

func (ti *TestInjector) RequireValidate() {
	ti.tb.Helper()

	if err := ti.Validate(); err != nil {
		ti.tb.Fatalf("injector validation failed: %v", err)
	}
}

func (ti *TestInjector) MustDeclare(decls ...meta.Decl) {
	ti.tb.Helper()

	for _, d := range decls {
		if err := ti.Declare(d); err != nil {
			ti.tb.Fatalf("failed to declare %s: %v", d.DisplayName(), err)
		}
	}
}

func (ti *TestInjector) MustApply(modules ...*spindle.Module) {
	ti.tb.Helper()

	if err := ti.Apply(modules...); err != nil {
		ti.tb.Fatalf("failed to apply modules: %v", err)
	}
}

func MustBindInstance[T any](ti *TestInjector, v T) {
	ti.tb.Helper()

	if err := spindle.BindInstance(ti.Injector, v); err != nil {
		ti.tb.Fatalf("failed to bind instance of %s: %v", spindle.KeyOf[T](ti.Injector), err)
	}
}

func MustBindImplicit[T any](ti *TestInjector) {
	ti.tb.Helper()

	if err := spindle.BindImplicit[T](ti.Injector); err != nil {
		ti.tb.Fatalf("failed to bind %s: %v", spindle.KeyOf[T](ti.Injector), err)
	}
}

func MustGet[T any](ti *TestInjector) T {
	ti.tb.Helper()

	v, err := spindle.Get[T](ti.Injector)
	if err != nil {
		ti.tb.Fatalf("failed to get %s: %v", spindle.KeyOf[T](ti.Injector), err)
	}
	return v
}

func MustGetNamed[T any](ti *TestInjector, name string) T {
	ti.tb.Helper()

	v, err := spindle.GetNamed[T](ti.Injector, name)
	if err != nil {
		ti.tb.Fatalf("failed to get %s: %v", spindle.KeyOf[T](ti.Injector, name), err)
	}
	return v
}

func AssertBound[T any](ti *TestInjector, qualifier ...any) {
	ti.tb.Helper()

	if !spindle.Has[T](ti.Injector, qualifier...) {
		ti.tb.Fatalf("expected injector to bind %s", spindle.KeyOf[T](ti.Injector, qualifier...))
	}
}

func AssertNotBound[T any](ti *TestInjector, qualifier ...any) {
	ti.tb.Helper()

	if spindle.Has[T](ti.Injector, qualifier...) {
		ti.tb.Fatalf("expected injector not to bind %s", spindle.KeyOf[T](ti.Injector, qualifier...))
	}
}

// CountingSource wraps a discovery source and counts how often each
// location is opened.
type CountingSource struct {
	discovery.Source

	mu    sync.Mutex
	opens map[string]int
	total atomic.Int64
}

func NewCountingSource(src discovery.Source) *CountingSource {
	return &CountingSource{Source: src, opens: make(map[string]int)}
}

func (s *CountingSource) Open(location string) (io.ReadCloser, error) {
	s.mu.Lock()
	s.opens[location]++
	s.mu.Unlock()
	s.total.Add(1)
	return s.Source.Open(location)
}

// Opens reports how often location was opened.
func (s *CountingSource) Opens(location string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.opens[location]
}

func (s *CountingSource) Total() int {
	return int(s.total.Load())
}
