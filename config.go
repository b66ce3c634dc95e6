package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/chazu/batoms/pkg/cavity"
	"github.com/chazu/batoms/pkg/engine"
	"github.com/sirupsen/logrus"
)

// Config holds the settings read from batoms.toml. Script builtins override
// the cavity values per system.
type Config struct {
	LogLevel string `toml:"log_level"`
	Workers  int    `toml:"workers"`

	// ScriptTimeout bounds a script evaluation, e.g. "5s".
	ScriptTimeout time.Duration `toml:"script_timeout"`

	Cavity    CavityConfig    `toml:"cavity"`
	Instancer InstancerConfig `toml:"instancer"`
}

// CavityConfig sets the detection defaults a script starts from.
type CavityConfig struct {
	Resolution float64 `toml:"resolution"`
	MinRadius  float64 `toml:"min_radius"`
}

// InstancerConfig controls template tessellation.
type InstancerConfig struct {
	MeshCells int `toml:"mesh_cells"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		Workers:       1,
		ScriptTimeout: engine.EvalTimeout,
		Cavity: CavityConfig{
			Resolution: cavity.DefaultResolution,
			MinRadius:  cavity.DefaultMinRadius,
		},
		Instancer: InstancerConfig{MeshCells: 64},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Keys missing from
// the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: unknown keys %v", undecoded)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if c.ScriptTimeout <= 0 {
		return fmt.Errorf("config: script_timeout must be positive, got %s", c.ScriptTimeout)
	}
	if c.Cavity.Resolution <= 0 {
		return fmt.Errorf("config: cavity.resolution must be positive, got %g", c.Cavity.Resolution)
	}
	if c.Cavity.MinRadius < 0 {
		return fmt.Errorf("config: cavity.min_radius must not be negative, got %g", c.Cavity.MinRadius)
	}
	return nil
}
