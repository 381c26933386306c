package binding

import "context"

// Apply mutates an already constructed instance.
type Apply func(ctx context.Context, instance any) error

// Initializer is a post-construction step with its own dependencies.
type Initializer struct {
	deps    []Dependency
	compile func(Compiler) Apply
}

func NewInitializer(deps []Dependency, compile func(Compiler) Apply) Initializer {
	return Initializer{deps: deps, compile: compile}
}

func (i Initializer) Dependencies() []Dependency { return Dedup(i.deps) }

func (i Initializer) IsEmpty() bool { return i.compile == nil }

func (i Initializer) Compile(c Compiler) Apply {
	if i.compile == nil {
		return func(context.Context, any) error { return nil }
	}
	return i.compile(c)
}

// CombineInitializers runs inits in order, stopping at the first failure.
// Steps that ran before the failure are not undone.
func CombineInitializers(inits ...Initializer) Initializer {
	var live []Initializer
	var deps []Dependency
	for _, init := range inits {
		if init.IsEmpty() {
			continue
		}
		live = append(live, init)
		deps = append(deps, init.deps...)
	}
	switch len(live) {
	case 0:
		return Initializer{}
	case 1:
		return live[0]
	}
	return Initializer{
		deps: deps,
		compile: func(c Compiler) Apply {
			steps := make([]Apply, len(live))
			for i, init := range live {
				steps[i] = init.Compile(c)
			}
			return func(ctx context.Context, instance any) error {
				for _, step := range steps {
					if err := step(ctx, instance); err != nil {
						return err
					}
				}
				return nil
			}
		},
	}
}
