package benchmark

import (
	"reflect"

	"github.com/danpasecinic/spindle/meta"
)

type Config struct {
	Host string
	Port int
}

type Logger struct {
	Level string
}

type Database struct {
	Config *Config
	Logger *Logger
}

type Cache struct {
	Logger *Logger
}

type Repository struct {
	DB    *Database
	Cache *Cache
}

type Service struct {
	Repo   *Repository
	Logger *Logger
}

type Handler interface {
	Handle() int
}

type handler int

func (h handler) Handle() int { return int(h) }

type Handlers struct{}

// chainDecls declares the Config -> Service chain with constructors, each
// type scoped as marked.
func chainDecls(markers ...any) []meta.Decl {
	decl := func(t reflect.Type, ctor any) meta.Decl {
		return meta.Decl{Type: t, Markers: markers, Constructors: []meta.Func{meta.Fn(ctor)}}
	}
	return []meta.Decl{
		decl(reflect.TypeFor[*Config](), func() *Config { return &Config{Host: "localhost", Port: 8080} }),
		decl(reflect.TypeFor[*Logger](), func() *Logger { return &Logger{Level: "info"} }),
		decl(
			reflect.TypeFor[*Database](),
			func(cfg *Config, log *Logger) *Database { return &Database{Config: cfg, Logger: log} },
		),
		decl(reflect.TypeFor[*Cache](), func(log *Logger) *Cache { return &Cache{Logger: log} }),
		decl(
			reflect.TypeFor[*Repository](),
			func(db *Database, cache *Cache) *Repository { return &Repository{DB: db, Cache: cache} },
		),
		decl(
			reflect.TypeFor[*Service](),
			func(repo *Repository, log *Logger) *Service { return &Service{Repo: repo, Logger: log} },
		),
	}
}
