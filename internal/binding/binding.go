package binding

import (
	"context"
	"fmt"
	"reflect"
)

// Supplier produces a value when called. The context carries the
// resolution stack of the current call tree.
type Supplier func(ctx context.Context) (any, error)

// Compiler turns a dependency into a supplier. Resolution of the
// dependency happens when the supplier is called, not when it is compiled.
type Compiler func(dep Dependency) Supplier

type Kind uint8

const (
	KindInstance Kind = iota
	KindSupplier
	KindConstructor
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindInstance:
		return "instance"
	case KindSupplier:
		return "supplier"
	case KindConstructor:
		return "constructor"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Absent is the value an unsatisfied optional dependency yields. It
// materializes as the zero value of the target type.
type Absent struct{}

// Binding is a recipe for the values of one key. Bindings are immutable;
// the With* modifiers return copies.
type Binding struct {
	key       Key
	deps      []Dependency
	scope     any
	priority  int
	compile   func(Compiler) Supplier
	source    string
	kind      Kind
	aggregate bool
	goType    reflect.Type
}

func ToInstance(v any) *Binding {
	return &Binding{
		kind:   KindInstance,
		goType: reflect.TypeOf(v),
		source: fmt.Sprintf("instance %T", v),
		compile: func(Compiler) Supplier {
			return func(context.Context) (any, error) { return v, nil }
		},
	}
}

func ToSupplier(fn func(ctx context.Context) (any, error)) *Binding {
	return &Binding{
		kind:   KindSupplier,
		source: "supplier",
		compile: func(Compiler) Supplier {
			return fn
		},
	}
}

// ToConstructor builds a binding that resolves args in order and hands the
// values to fn.
func ToConstructor(args []Dependency, fn func(ctx context.Context, values []any) (any, error)) *Binding {
	return &Binding{
		kind: KindConstructor,
		deps: args,
		compile: func(c Compiler) Supplier {
			suppliers := make([]Supplier, len(args))
			for i, dep := range args {
				suppliers[i] = c(dep)
			}
			return func(ctx context.Context) (any, error) {
				values := make([]any, len(suppliers))
				for i, s := range suppliers {
					v, err := s(ctx)
					if err != nil {
						return nil, err
					}
					values[i] = v
				}
				return fn(ctx, values)
			}
		},
	}
}

func (b *Binding) Key() Key { return b.key }

// Dependencies is the ordered, deduplicated dependency set.
func (b *Binding) Dependencies() []Dependency { return Dedup(b.deps) }

func (b *Binding) Scope() any { return b.scope }

func (b *Binding) Priority() int { return b.priority }

func (b *Binding) Source() string { return b.source }

func (b *Binding) Kind() Kind { return b.kind }

func (b *Binding) IsAggregate() bool { return b.aggregate }

// GoType is the Go type of the produced values, when known.
func (b *Binding) GoType() reflect.Type { return b.goType }

// Compile produces the unscoped supplier. Scope decoration is the
// injector's job.
func (b *Binding) Compile(c Compiler) Supplier {
	return b.compile(c)
}

func (b *Binding) clone() *Binding {
	cp := *b
	return &cp
}

func (b *Binding) WithScope(scope any) *Binding {
	cp := b.clone()
	cp.scope = scope
	return cp
}

func (b *Binding) Prioritize(priority int) *Binding {
	cp := b.clone()
	cp.priority = priority
	return cp
}

func (b *Binding) WithKey(key Key) *Binding {
	cp := b.clone()
	cp.key = key
	return cp
}

func (b *Binding) WithSource(source string) *Binding {
	cp := b.clone()
	cp.source = source
	return cp
}

func (b *Binding) WithKind(kind Kind) *Binding {
	cp := b.clone()
	cp.kind = kind
	return cp
}

func (b *Binding) WithGoType(t reflect.Type) *Binding {
	cp := b.clone()
	cp.goType = t
	return cp
}

func (b *Binding) Aggregated() *Binding {
	cp := b.clone()
	cp.aggregate = true
	return cp
}

// InitializeWith runs init on every value the binding produces, after
// construction and before the value is handed out.
func (b *Binding) InitializeWith(init Initializer) *Binding {
	if init.IsEmpty() {
		return b
	}
	cp := b.clone()
	cp.deps = append(append([]Dependency(nil), b.deps...), init.deps...)
	inner := b.compile
	cp.compile = func(c Compiler) Supplier {
		create := inner(c)
		apply := init.Compile(c)
		return func(ctx context.Context) (any, error) {
			v, err := create(ctx)
			if err != nil {
				return nil, err
			}
			if err := apply(ctx, v); err != nil {
				return nil, err
			}
			return v, nil
		}
	}
	return cp
}

func (b *Binding) String() string {
	s := b.kind.String()
	if b.source != "" {
		s = b.source
	}
	if b.key.Type != nil {
		s += " for " + b.key.ID()
	}
	return s
}
