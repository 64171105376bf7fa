// Package config handles dtdgen configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CurrentConfigVersion is the current version of the config file format.
const CurrentConfigVersion = 1

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "dtdgen.yaml"

// Config represents the dtdgen.yaml configuration file.
type Config struct {
	Version int `yaml:"version"`
	// Module names the vocabulary module used when a file extension does not
	// select one.
	Module string `yaml:"module,omitempty"`
	// CacheSize bounds the per-run cache of resolved documents. Zero disables it.
	CacheSize             int  `yaml:"cacheSize,omitempty"`
	KeepParameterEntities bool `yaml:"keepParameterEntities,omitempty"`

	Log      Log      `yaml:"log,omitempty"`
	Generate Generate `yaml:"generate,omitempty"`
}

// Log configures the structured logger.
type Log struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Generate configures code generation.
type Generate struct {
	Package string `yaml:"package,omitempty"`
	Output  string `yaml:"output,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Log:     Log{Level: "info", Format: "text"},
		Generate: Generate{
			Package: "model",
			Output:  "model",
		},
	}
}

// Load reads a Config from a file path. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	cfg := Default()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault reads path, or returns Default when path is empty and the
// default file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := Load(DefaultFileName)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes the Config to a file path.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(c)
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	if c.Version != CurrentConfigVersion {
		return errors.New("unsupported config version")
	}
	if c.CacheSize < 0 {
		return errors.New("cacheSize must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
