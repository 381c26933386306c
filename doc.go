// Package spindle provides a generic-aware dependency injection container for Go 1.25+.
//
// Types are described to the injector by declarations (meta.Decl): how to
// construct them, which markers apply, and what they provide. The injector
// registers every binding under every supertype of its type expression, so
// a concrete type satisfies each interface it implements and each generic
// instantiation it extends.
//
// # Quick Start
//
// Declare types, bind them and resolve:
//
//	inj := spindle.New()
//
//	inj.Declare(meta.Decl{
//	    Type:         reflect.TypeFor[*Server](),
//	    Markers:      []any{meta.Singleton{}},
//	    Constructors: []meta.Func{meta.Fn(NewServer)},
//	})
//	spindle.BindInstance(inj, &Config{Port: 8080})
//
//	srv, err := spindle.Get[*Server](inj)
//
// Types without a declaration are bound from their zero value, with
// fields tagged `inject:""` filled in:
//
//	type Service struct {
//	    Config *Config `inject:""`
//	    Cache  Cache   `inject:"optional"`
//	}
//	spindle.BindImplicit[*Service](inj)
//
// # Bindings
//
//	spindle.BindInstance(inj, value)         // Always the same value
//	spindle.BindSupplier(inj, fn)            // fn runs on every resolution
//	spindle.BindImplicit[T](inj)             // Synthesized from T's declaration
//	inj.Declare(decl)                        // Record and bind a declaration
//
// # Markers
//
// Markers attach to declarations, constructor parameters and provider
// funcs:
//
//	meta.Named("primary")                    // Qualifier
//	meta.Singleton{}, meta.Request{}         // Scope
//	meta.Priority(10)                        // Higher wins
//	meta.Typed{reflect.TypeFor[Greeter]()}   // Restrict exposed types
//	meta.Optional{}                          // Absent instead of an error
//	meta.Aggregate{}                         // Contribute to a multibinding
//
// # Resolution
//
//	svc, err := spindle.Get[*Service](inj)
//	svc := spindle.MustGet[*Service](inj)
//	db, err := spindle.GetNamed[*DB](inj, "replica")
//
// When several bindings match a key the one with the highest priority is
// chosen; equal priorities keep registration order.
//
// # Multibindings
//
// Lists and string-keyed maps of a type collect every binding of it:
//
//	handlers, err := spindle.GetAll[Handler](inj)     // Highest priority first
//	byName, err := spindle.GetMap[Handler](inj)       // Named bindings only
//
// # Optional Dependencies
//
//	opt, err := spindle.GetOptional[*Cache](ctx, inj)
//	cache := opt.OrElse(defaultCache)
//
// # Scopes
//
// Singleton and request scopes are bound by default. Request-scoped
// values live as long as the context:
//
//	ctx := spindle.WithRequestScope(ctx)
//	a, _ := spindle.GetCtx[*RequestID](ctx, inj)
//	b, _ := spindle.GetCtx[*RequestID](ctx, inj)  // a == b
//
// Custom scopes implement Scope and are bound to a marker type:
//
//	inj.BindScope(TenantScoped{}, tenantScope)
//
// # Discovery
//
// Resources listing declared type names, one per line, bind each type
// implicitly:
//
//	inj.Discover(discovery.NewFS("app", os.DirFS(".")))
//
// Each location is read once per injector.
//
// # Modules
//
//	var ConfigModule = spindle.NewModule("config")
//	spindle.ModuleInstance(ConfigModule, &Config{Port: 8080})
//
//	var AppModule = spindle.NewModule("app").Include(ConfigModule)
//	spindle.ModuleImplicit[*Server](AppModule)
//
//	inj.Apply(AppModule)
//
// # Validation and Freezing
//
//	err := inj.Validate()   // Missing dependencies and cycles
//	inj.Freeze()            // Reject new bindings, cache lookups
//	inj.Dispose()           // Drop every binding and unfreeze
//
// # Debug Visualization
//
//	inj.PrintGraph()        // Table to stdout
//	inj.PrintGraphDOT()     // Graphviz DOT to stdout
//	info := inj.Graph()     // Structured GraphInfo
//
// # Metrics Observers
//
//	inj := spindle.New(
//	    spindle.WithResolveObserver(func(key string, d time.Duration, err error) {}),
//	    spindle.WithBindObserver(func(key, kind string) {}),
//	)
//
// The metrics package exports both as Prometheus collectors.
//
// # Configuration
//
// NewFromConfig builds an injector from a config.Config, loaded from YAML,
// dotenv files and the environment:
//
//	cfg, err := config.Load("spindle.yaml", ".env")
//	inj, err := spindle.NewFromConfig(cfg)
//
// # Errors
//
// Every failure is an *Error with a code:
//
//	if spindle.IsResolution(err) { ... }
//	if spindle.IsCyclicDependency(err) { ... }
package spindle
