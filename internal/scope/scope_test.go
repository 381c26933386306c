package scope

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/danpasecinic/spindle/internal/binding"
	"github.com/danpasecinic/spindle/internal/errs"
	"github.com/danpasecinic/spindle/types"
)

var (
	keyA = binding.MustKey(types.NewClass("app.A", types.KindClass), nil)
	keyB = binding.MustKey(types.NewClass("app.B", types.KindClass), nil)
)

func counting(calls *atomic.Int32) binding.Supplier {
	return func(context.Context) (any, error) {
		n := calls.Add(1)
		return &struct{ n int32 }{n}, nil
	}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSingleton_ConstructsOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	s := NewSingleton(quiet())
	supplier := s.Scope(keyA, counting(&calls))

	results := make([]any, 64)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			v, err := supplier(t.Context())
			results[i] = v
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

func TestSingleton_SharesCellPerKey(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	s := NewSingleton(quiet())
	first, err := s.Scope(keyA, counting(&calls))(t.Context())
	require.NoError(t, err)
	second, err := s.Scope(keyA, counting(&calls))(t.Context())
	require.NoError(t, err)
	other, err := s.Scope(keyB, counting(&calls))(t.Context())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, s.Size())

	s.Clear()
	assert.Equal(t, 0, s.Size())
}

func TestSingleton_RetriesAfterFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	boom := errors.New("boom")
	s := NewSingleton(quiet())
	supplier := s.Scope(
		keyA, func(context.Context) (any, error) {
			if calls.Add(1) == 1 {
				return nil, boom
			}
			return "ok", nil
		},
	)

	_, err := supplier(t.Context())
	assert.ErrorIs(t, err, boom)

	v, err := supplier(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	v, err = supplier(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	supplier := Request{}.Scope(keyA, counting(&calls))

	ctx1 := WithRequestScope(t.Context())
	ctx2 := WithRequestScope(t.Context())

	a1, err := supplier(ctx1)
	require.NoError(t, err)
	a2, err := supplier(ctx1)
	require.NoError(t, err)
	b, err := supplier(ctx2)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)

	_, err = supplier(t.Context())
	assert.True(t, errs.Has(err, errs.CodeScope))
}
