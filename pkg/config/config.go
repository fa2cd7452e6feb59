// Package config loads vulnpack's optional TOML configuration file.
//
// Every field has a default, so a missing file and an empty file behave the
// same. Command-line flags override file values in internal/cli.
//
//	[manifest]
//	name = "vulnerability-check"
//	version = "1.0.0"
//
//	[filter]
//	min_confidence = 0
//
//	[[rule]]
//	name = "charts"
//	categories = ["javascript-graphics"]
//
//	[registry]
//	backend = "http"       # or "npm"
//	url = "https://registry.npmjs.org"
//	timeout = "10s"
//	concurrency = 1
//
//	[npm]
//	bin = "npm"
//	timeout = "5m"
package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	vperrors "github.com/matzehuels/vulnpack/pkg/errors"
	"github.com/matzehuels/vulnpack/pkg/integrations/npm"
	"github.com/matzehuels/vulnpack/pkg/resolve"
)

// Registry backends.
const (
	BackendHTTP = "http"
	BackendNPM  = "npm"
)

// Config is the parsed configuration file.
type Config struct {
	Manifest Manifest       `toml:"manifest"`
	Filter   Filter         `toml:"filter"`
	Rules    []resolve.Rule `toml:"rule"`
	Registry Registry       `toml:"registry"`
	NPM      NPM            `toml:"npm"`
}

// Manifest configures the generated package.json.
type Manifest struct {
	Name      string `toml:"name"`
	Version   string `toml:"version"`
	OutputDir string `toml:"output_dir"`
}

// Filter configures eligibility.
type Filter struct {
	MinConfidence int `toml:"min_confidence"`
}

// Registry selects how candidates are validated.
type Registry struct {
	Backend     string   `toml:"backend"`
	URL         string   `toml:"url"`
	Timeout     Duration `toml:"timeout"`
	Concurrency int      `toml:"concurrency"`
}

// NPM configures the package-manager subprocesses.
type NPM struct {
	Bin         string   `toml:"bin"`
	Timeout     Duration `toml:"timeout"`
	SkipInstall bool     `toml:"skip_install"`
}

// Duration is a time.Duration written as a Go duration string ("10s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Manifest: Manifest{Name: "vulnerability-check", Version: "1.0.0"},
		Rules:    resolve.DefaultRules(),
		Registry: Registry{
			Backend:     BackendHTTP,
			URL:         npm.DefaultRegistry,
			Timeout:     Duration{10 * time.Second},
			Concurrency: 1,
		},
		NPM: NPM{Bin: "npm", Timeout: Duration{5 * time.Minute}},
	}
}

// Load reads path over the defaults. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, vperrors.Wrap(vperrors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return nil, vperrors.Wrap(vperrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := cfg.decode(data); err != nil {
		return nil, vperrors.Wrap(vperrors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML data over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, vperrors.Wrap(vperrors.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	// A file that declares [[rule]] replaces the defaults entirely.
	defaults := c.Rules
	c.Rules = nil
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return err
	}
	if !md.IsDefined("rule") {
		c.Rules = defaults
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return vperrors.New(vperrors.ErrCodeInvalidConfig, "unknown key %s", undecoded[0])
	}
	return nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case !slices.Contains([]string{BackendHTTP, BackendNPM}, c.Registry.Backend):
		return vperrors.New(vperrors.ErrCodeInvalidConfig,
			"registry.backend must be %q or %q, got %q", BackendHTTP, BackendNPM, c.Registry.Backend)
	case c.Filter.MinConfidence < 0 || c.Filter.MinConfidence > 100:
		return vperrors.New(vperrors.ErrCodeInvalidConfig,
			"filter.min_confidence must be within 0..100, got %d", c.Filter.MinConfidence)
	case c.Registry.Concurrency < 0:
		return vperrors.New(vperrors.ErrCodeInvalidConfig,
			"registry.concurrency must not be negative, got %d", c.Registry.Concurrency)
	case c.Registry.Timeout.Duration < 0 || c.NPM.Timeout.Duration < 0:
		return vperrors.New(vperrors.ErrCodeInvalidConfig, "timeouts must not be negative")
	}
	if c.Registry.Backend == BackendHTTP {
		if err := vperrors.ValidateURL(c.Registry.URL); err != nil {
			return vperrors.Wrap(vperrors.ErrCodeInvalidConfig, err, "registry.url")
		}
	}
	for i, r := range c.Rules {
		if r.Name == "" {
			return vperrors.New(vperrors.ErrCodeInvalidConfig, "rule %d has no name", i+1)
		}
		if len(r.Categories) == 0 {
			return vperrors.New(vperrors.ErrCodeInvalidConfig, "rule %q has no categories", r.Name)
		}
	}
	return nil
}
