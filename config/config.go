// Package config reads the settings an injector is built from: a YAML
// file, then dotenv files and environment variables on top.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/danpasecinic/spindle/discovery"
)

const (
	EnvLogLevel          = "SPINDLE_LOG_LEVEL"
	EnvLogFormat         = "SPINDLE_LOG_FORMAT"
	EnvDiscoveryResource = "SPINDLE_DISCOVERY_RESOURCE"
	EnvDiscoveryRoots    = "SPINDLE_DISCOVERY_ROOTS"
	EnvFreeze            = "SPINDLE_FREEZE"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	// Freeze ends assembly once discovery is done.
	Freeze bool `yaml:"freeze"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DiscoveryConfig struct {
	Resource string   `yaml:"resource"`
	Roots    []string `yaml:"roots"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: FormatText,
		},
		Discovery: DiscoveryConfig{
			Resource: discovery.DefaultResource,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// dotenv files and the process environment. An empty path skips the file;
// missing dotenv files are ignored. The process environment wins over
// dotenv values.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config: %w", err)
		}
		err = cfg.decode(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	dotenv, err := readDotenv(envFiles)
	if err != nil {
		return nil, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse reads YAML from r over the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func readDotenv(files []string) (map[string]string, error) {
	values := make(map[string]string)
	for _, file := range files {
		read, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		for k, v := range read {
			if _, exists := values[k]; !exists {
				values[k] = v
			}
		}
	}
	return values, nil
}

// ApplyEnv overrides the settings named by the SPINDLE_ variables lookup
// finds.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.Log.Format = v
	}
	if v, ok := lookup(EnvDiscoveryResource); ok {
		c.Discovery.Resource = v
	}
	if v, ok := lookup(EnvDiscoveryRoots); ok {
		c.Discovery.Roots = splitList(v)
	}
	if v, ok := lookup(EnvFreeze); ok {
		freeze, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvFreeze, err)
		}
		c.Freeze = freeze
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	var problems []error

	if _, err := c.Level(); err != nil {
		problems = append(problems, err)
	}
	switch c.Log.Format {
	case FormatText, FormatJSON:
	default:
		problems = append(problems, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if strings.TrimSpace(c.Discovery.Resource) == "" {
		problems = append(problems, errors.New("discovery resource is empty"))
	}
	for _, root := range c.Discovery.Roots {
		if strings.TrimSpace(root) == "" {
			problems = append(problems, errors.New("empty discovery root"))
		}
	}
	return errors.Join(problems...)
}

func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return level, nil
}

// Logger builds the configured handler over w. An invalid level falls
// back to info.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := c.Level()
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Sources returns one discovery source per root directory. A root's
// location names start with the root path.
func (c *Config) Sources() []discovery.Source {
	sources := make([]discovery.Source, 0, len(c.Discovery.Roots))
	for _, root := range c.Discovery.Roots {
		sources = append(sources, discovery.NewFS(root, os.DirFS(root)))
	}
	return sources
}
