// Package config loads the optional sdfgen defaults file. Flags
// given on the command line always win over file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the in-memory representation of ~/.sdfgen.yaml.
type Config struct {
	Padding       int     `yaml:"padding,omitempty"`
	Threads       int     `yaml:"threads,omitempty"`
	WeldTolerance float64 `yaml:"weld_tolerance,omitempty"`
	ExactBand     int     `yaml:"exact_band,omitempty"`
	ForceCPU      bool    `yaml:"force_cpu,omitempty"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Padding:       1,
		WeldTolerance: 1e-5,
		ExactBand:     1,
	}
}

// Path returns the absolute path to ~/.sdfgen.yaml.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".sdfgen.yaml"), nil
}

// Load reads the defaults file at path, or the home file when path
// is empty. A missing file is not an error; Default() is returned.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		var err error
		path, err = Path()
		if err != nil {
			return cfg, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Padding < 0 {
		return fmt.Errorf("padding %d must not be negative", c.Padding)
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads %d must not be negative", c.Threads)
	}
	return nil
}
