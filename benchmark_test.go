package spindle_test

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"testing"

	"github.com/danpasecinic/spindle"
	"github.com/danpasecinic/spindle/meta"
)

type Node struct {
	Next  *Node
	Depth int
}

type Nodes struct{}

func benchInjector(b *testing.B) *spindle.Injector {
	b.Helper()
	return spindle.New(
		spindle.WithCatalog(meta.NewCatalog()),
		spindle.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

// chainDecl provides named nodes "0".."depth-1", each depending on the
// previous one.
func chainDecl(depth int, markers ...any) meta.Decl {
	decl := meta.Decl{Type: reflect.TypeFor[*Nodes]()}
	decl.Provides = append(
		decl.Provides,
		meta.Fn(func() *Node { return &Node{} }, append([]any{meta.Named("0")}, markers...)...),
	)
	for n := 1; n < depth; n++ {
		decl.Provides = append(
			decl.Provides, meta.Func{
				Fn:      func(next *Node) *Node { return &Node{Next: next, Depth: next.Depth + 1} },
				Markers: append([]any{meta.Named(strconv.Itoa(n))}, markers...),
				Params:  [][]any{{meta.Named(strconv.Itoa(n - 1))}},
			},
		)
	}
	return decl
}

func BenchmarkGet_Instance(b *testing.B) {
	for _, frozen := range []bool{false, true} {
		b.Run(
			fmt.Sprintf("frozen=%t", frozen), func(b *testing.B) {
				inj := benchInjector(b)
				_ = spindle.BindInstance(inj, &Config{Port: 8080})
				if frozen {
					inj.Freeze()
				}

				b.ReportAllocs()
				for b.Loop() {
					_, _ = spindle.Get[*Config](inj)
				}
			},
		)
	}
}

func BenchmarkGet_Chain(b *testing.B) {
	for _, depth := range []int{5, 20} {
		for _, singleton := range []bool{false, true} {
			b.Run(
				fmt.Sprintf("depth=%d/singleton=%t", depth, singleton), func(b *testing.B) {
					var markers []any
					if singleton {
						markers = append(markers, meta.Singleton{})
					}
					inj := benchInjector(b)
					_ = inj.Declare(chainDecl(depth, markers...))
					inj.Freeze()
					last := strconv.Itoa(depth - 1)

					b.ReportAllocs()
					for b.Loop() {
						_, _ = spindle.GetNamed[*Node](inj, last)
					}
				},
			)
		}
	}
}

func BenchmarkGet_Parallel(b *testing.B) {
	inj := benchInjector(b)
	_ = inj.Declare(chainDecl(10, meta.Singleton{}))
	inj.Freeze()

	b.ReportAllocs()
	b.RunParallel(
		func(pb *testing.PB) {
			for pb.Next() {
				_, _ = spindle.GetNamed[*Node](inj, "9")
			}
		},
	)
}

func BenchmarkGetAll(b *testing.B) {
	inj := benchInjector(b)
	_ = inj.Declare(chainDecl(10, meta.Singleton{}))
	inj.Freeze()

	b.ReportAllocs()
	for b.Loop() {
		_, _ = spindle.GetAll[*Node](inj)
	}
}

func BenchmarkGet_Structural(b *testing.B) {
	inj := benchInjector(b)
	_ = spindle.BindInstance(inj, &StdLogger{prefix: "bench"})
	inj.Freeze()

	b.ReportAllocs()
	for b.Loop() {
		_, _ = spindle.Get[Logger](inj)
	}
}

func BenchmarkDeclare(b *testing.B) {
	catalog := meta.NewCatalog()
	decl := chainDecl(10)

	b.ReportAllocs()
	for b.Loop() {
		inj := spindle.New(
			spindle.WithCatalog(catalog),
			spindle.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		)
		_ = inj.Declare(decl)
	}
}
