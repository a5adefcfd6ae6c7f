// Package config holds the settings of an inference run.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"martianoff/cshape/internal/inference"
)

// FileName is the config file picked up from the working directory.
const FileName = ".cshape.yaml"

// EnvMaxIterations overrides MaxIterations when set.
const EnvMaxIterations = "CSHAPE_MAX_ITERATIONS"

// Formats lists the report formats the CLI can write.
var Formats = []string{"text", "yaml", "json"}

// Config holds configuration for inference and reporting.
type Config struct {
	// MaxIterations bounds the fixed-point loop.
	// Defaults to inference.DefaultMaxIterations
	MaxIterations int `yaml:"max_iterations"`

	// Format is the report format: text, yaml or json.
	Format string `yaml:"format"`

	// Verbose prints diagnostics to stderr.
	Verbose bool `yaml:"verbose"`

	// Dump prints the raw inference result.
	Dump bool `yaml:"dump"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxIterations: inference.DefaultMaxIterations,
		Format:        "text",
	}
}

// Load reads path over the defaults. An empty path tries FileName in the
// working directory and silently keeps the defaults when it is missing.
// The environment override is applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = FileName
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	v := os.Getenv(EnvMaxIterations)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvMaxIterations, err)
	}
	c.MaxIterations = n
	return nil
}

// Validate rejects settings inference cannot run with.
func (c *Config) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q, expected one of %v", c.Format, Formats)
	}
	return nil
}

// Options returns the inference options for c.
func (c *Config) Options() inference.Options {
	return inference.Options{MaxIterations: c.MaxIterations}
}
