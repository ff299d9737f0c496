// Package config holds the settings of the pinlicenses command.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/git-pkgs/pinlicenses/fetch"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the command configuration. Values from a config file are
// overridden by flags.
type Config struct {
	Manifest    string        `yaml:"manifest"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	Format      string        `yaml:"format"`
	UserAgent   string        `yaml:"user_agent"`

	// BreakerThreshold turns on per-host circuit breaking at this many
	// consecutive transport failures. 0 leaves it off.
	BreakerThreshold int `yaml:"breaker_threshold"`

	Progress bool `yaml:"progress"`
	Debug    bool `yaml:"debug"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Concurrency: 8,
		Timeout:     fetch.DefaultTimeout,
		Format:      FormatTable,
		UserAgent:   "pinlicenses/1.0",
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.Timeout)
	}
	switch c.Format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}
	return nil
}
