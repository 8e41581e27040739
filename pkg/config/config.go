// Package config loads the liquid-extra YAML configuration and builds
// template environments from it.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jg-rp/liquid-extra/pkg/extra"
	"github.com/jg-rp/liquid-extra/pkg/filters"
	"github.com/jg-rp/liquid-extra/pkg/liquid"
	"github.com/jg-rp/liquid-extra/pkg/logger"
	"github.com/jg-rp/liquid-extra/pkg/netcache"
	"github.com/jg-rp/liquid-extra/pkg/starlark"
	"github.com/jg-rp/liquid-extra/pkg/validator"
)

type Config struct {
	StrictFilters   bool          `yaml:"strict_filters"`
	StrictVariables bool          `yaml:"strict_variables"`
	Log             logger.Config `yaml:"log"`
	// YAML file of locale name to nested translation keys, for the t filter.
	Locales       string   `yaml:"locales"`
	FilterScripts []string `yaml:"filter_scripts"`
	// Directory searched by include.
	Templates   string `yaml:"templates"`
	TemplateExt string `yaml:"template_ext"`
	// Remote template root, used by include when Templates is empty.
	TemplatesURL string        `yaml:"templates_url"`
	CacheDir     string        `yaml:"cache_dir"`
	Server       *ServerConfig `yaml:"server"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Maximum request body size in bytes. Zero means the server default.
	BodyLimit int `yaml:"body_limit"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		StrictFilters: true,
		Log:           logger.Config{Level: "info", Format: "console", Output: "stderr"},
		TemplateExt:   ".liquid",
		Server:        &ServerConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults. Relative paths in the file are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) resolve(dir string) {
	rel := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Locales = rel(c.Locales)
	c.Templates = rel(c.Templates)
	c.CacheDir = rel(c.CacheDir)
	c.Log.FilePath = rel(c.Log.FilePath)
	for i, s := range c.FilterScripts {
		c.FilterScripts[i] = rel(s)
	}
}

func (c *Config) Validate() error {
	return validator.All(
		validator.MatchesAllowed(c.Log.Level, []string{"debug", "info", "warn", "error"}, "log.level"),
		validator.MatchesAllowed(c.Log.Format, []string{"console", "json"}, "log.format"),
		validator.MatchesAllowed(c.Log.Output, []string{"stderr", "file", "both"}, "log.output"),
		c.validateLogFile(),
		validator.FileExists(c.Locales, "locales"),
		validator.NoDuplicates(c.FilterScripts, "filter_scripts"),
		validator.Map(c.FilterScripts, validator.FileExists, "filter_scripts"),
		validator.DirExists(c.Templates, "templates"),
		c.validateRemote(),
		validator.Optional(c.Server),
	)
}

func (c *Config) validateLogFile() error {
	if c.Log.Output != "file" && c.Log.Output != "both" {
		return nil
	}
	return validator.All(
		validator.NotEmpty(c.Log.FilePath, "log.file_path"),
		validator.NonNegative(c.Log.MaxSize, "log.max_size"),
		validator.NonNegative(c.Log.MaxBackups, "log.max_backups"),
		validator.NonNegative(c.Log.MaxAge, "log.max_age"),
	)
}

func (c *Config) validateRemote() error {
	if c.TemplatesURL == "" {
		return nil
	}
	if c.Templates != "" {
		return fmt.Errorf("templates and templates_url are mutually exclusive")
	}
	u, err := url.Parse(c.TemplatesURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("templates_url must be an http or https URL, got %q", c.TemplatesURL)
	}
	return validator.NotEmpty(c.CacheDir, "cache_dir")
}

func (s ServerConfig) Validate() error {
	return validator.All(
		validator.NotEmpty(s.Addr, "server.addr"),
		validator.NonNegative(s.BodyLimit, "server.body_limit"),
	)
}

// Environment builds a template environment with every extension, the
// extra filters, the configured locales and the filter scripts.
func (c *Config) Environment() (*liquid.Environment, error) {
	opts := []liquid.Option{
		liquid.WithStrictFilters(c.StrictFilters),
		liquid.WithStrictVariables(c.StrictVariables),
	}
	switch {
	case c.Templates != "":
		opts = append(opts, liquid.WithLoader(liquid.FileLoader{Root: c.Templates, Ext: c.TemplateExt}))
	case c.TemplatesURL != "":
		remote := netcache.New(c.TemplatesURL, c.CacheDir)
		remote.Ext = c.TemplateExt
		opts = append(opts, liquid.WithLoader(remote))
	}
	env := liquid.NewEnvironment(opts...)
	extra.Register(env)

	var locales map[string]any
	if c.Locales != "" {
		var err error
		if locales, err = filters.LoadLocales(c.Locales); err != nil {
			return nil, err
		}
	}
	filters.Register(env, locales)

	for _, path := range c.FilterScripts {
		script, err := starlark.LoadFile(path)
		if err != nil {
			return nil, err
		}
		script.Register(env)
	}
	logger.L().Debug("environment ready",
		zap.Bool("strict_filters", c.StrictFilters),
		zap.Int("filter_scripts", len(c.FilterScripts)),
		zap.Int("filters", len(env.FilterNames())))
	return env, nil
}
