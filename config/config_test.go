package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/spindle/discovery"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, discovery.DefaultResource, cfg.Discovery.Resource)
	assert.Equal(t, FormatText, cfg.Log.Format)
	assert.False(t, cfg.Freeze)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		want    func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name: "empty keeps defaults",
			yaml: "",
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "full",
			yaml: "log:\n  level: debug\n  format: json\ndiscovery:\n  resource: app/injectables\n  roots: [a, b]\nfreeze: true\n",
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.Equal(t, FormatJSON, cfg.Log.Format)
				assert.Equal(t, "app/injectables", cfg.Discovery.Resource)
				assert.Equal(t, []string{"a", "b"}, cfg.Discovery.Roots)
				assert.True(t, cfg.Freeze)
			},
		},
		{
			name:    "unknown field",
			yaml:    "logging: {}\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()

				cfg, err := Parse(strings.NewReader(tt.yaml))
				if tt.wantErr {
					assert.Error(t, err)
					return
				}
				require.NoError(t, err)
				tt.want(t, cfg)
			},
		)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		EnvLogLevel:          "warn",
		EnvDiscoveryRoots:    " one , ,two",
		EnvFreeze:            "true",
		EnvDiscoveryResource: "custom",
	}
	cfg := Default()
	require.NoError(
		t, cfg.ApplyEnv(
			func(k string) (string, bool) {
				v, ok := env[k]
				return v, ok
			},
		),
	)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, FormatText, cfg.Log.Format)
	assert.Equal(t, []string{"one", "two"}, cfg.Discovery.Roots)
	assert.Equal(t, "custom", cfg.Discovery.Resource)
	assert.True(t, cfg.Freeze)

	err := cfg.ApplyEnv(
		func(k string) (string, bool) {
			return "maybe", k == EnvFreeze
		},
	)
	assert.ErrorContains(t, err, EnvFreeze)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Discovery.Resource = " "

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, `invalid log level "loud"`)
	assert.ErrorContains(t, err, `unknown log format "xml"`)
	assert.ErrorContains(t, err, "discovery resource is empty")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "spindle.yaml", "log:\n  level: debug\n")
	envFile := writeFile(t, dir, ".env", EnvLogFormat+"=json\n"+EnvLogLevel+"=error\n")

	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path, envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, FormatJSON, cfg.Log.Format)

	_, err = Load(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "log:\n  format: xml\n")
	_, err = Load(bad)
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = FormatJSON
	cfg.Log.Level = "warn"

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("META-INF", "spindle", "injectables"), "app.Service\n")

	cfg := Default()
	cfg.Discovery.Roots = []string{dir}

	sources := cfg.Sources()
	require.Len(t, sources, 1)

	locations, err := sources[0].Locations(cfg.Discovery.Resource)
	require.NoError(t, err)
	require.Equal(t, []string{dir + ":" + discovery.DefaultResource}, locations)

	rc, err := sources[0].Open(locations[0])
	require.NoError(t, err)
	defer rc.Close()
	names, err := discovery.ReadNames(rc)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.Service"}, names)
}
