package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.StrictFilters)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "locales.yaml", "default:\n  hello: Hello {{ name }}\n")
	write(t, dir, "scripts/shout.star", "def shout(s):\n    return s.upper()\n")
	write(t, dir, "templates/greet.liquid", "{{ 'hello' | t: name: who | shout }}")
	path := write(t, dir, "config.yaml", `
strict_filters: false
log:
  level: debug
locales: locales.yaml
filter_scripts: [scripts/shout.star]
templates: templates
server:
  addr: 127.0.0.1:9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.StrictFilters)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format, "unset keys keep their defaults")
	assert.Equal(t, filepath.Join(dir, "locales.yaml"), cfg.Locales)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	env, err := cfg.Environment()
	require.NoError(t, err)
	tpl, err := env.FromString("{% include 'greet' %}{{ 'x' | nope }}{{ 'a' if true else 'b' }}")
	require.NoError(t, err)
	out, err := tpl.Render(map[string]any{"who": "you"})
	require.NoError(t, err)
	assert.Equal(t, "HELLO YOUxa", out)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	script := write(t, dir, "a.star", "")

	tests := []struct {
		name    string
		mutate  func(c *Config)
		message string
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level must be one of"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"log file path", func(c *Config) { c.Log.Output = "file" }, "log.file_path must not be empty"},
		{"missing locales", func(c *Config) { c.Locales = filepath.Join(dir, "nope.yaml") }, "does not exist"},
		{"duplicate scripts", func(c *Config) { c.FilterScripts = []string{script, script} }, "duplicate"},
		{"missing script", func(c *Config) { c.FilterScripts = []string{filepath.Join(dir, "b.star")} }, "filter_scripts[0]"},
		{"templates not a dir", func(c *Config) { c.Templates = script }, "is not a directory"},
		{"templates and url", func(c *Config) { c.Templates = dir; c.TemplatesURL = "https://example.com/t" }, "mutually exclusive"},
		{"bad url", func(c *Config) { c.TemplatesURL = "ftp://example.com"; c.CacheDir = dir }, "http or https"},
		{"url without cache", func(c *Config) { c.TemplatesURL = "https://example.com/t" }, "cache_dir must not be empty"},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"negative body limit", func(c *Config) { c.Server.BodyLimit = -1 }, "server.body_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	cfg := Default()
	cfg.Server = nil
	assert.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(write(t, dir, "bad.yaml", "strict_filters: [\n"))
	assert.Error(t, err)

	_, err = Load(write(t, dir, "invalid.yaml", "log:\n  level: loud\n"))
	assert.ErrorContains(t, err, "invalid config")
}
