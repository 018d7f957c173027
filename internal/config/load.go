package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the standard locations
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks values that would make grass generation meaningless.
func (c *Config) Validate() error {
	g := c.Grass
	var errs []error
	if g.Sampler != SamplerScan && g.Sampler != SamplerGrid {
		errs = append(errs, fmt.Errorf("grass.sampler must be %q or %q, got %q", SamplerScan, SamplerGrid, g.Sampler))
	}
	if g.GridResolution <= 0 {
		errs = append(errs, fmt.Errorf("grass.grid_resolution must be positive, got %d", g.GridResolution))
	}
	if g.BladeArea <= 0 {
		errs = append(errs, fmt.Errorf("grass.blade_area must be positive, got %d", g.BladeArea))
	}
	if g.MinScale <= 0 || g.MaxScale < g.MinScale {
		errs = append(errs, fmt.Errorf("grass scale range must satisfy 0 < min <= max, got [%v, %v]", g.MinScale, g.MaxScale))
	}
	if g.CoverageThreshold < 0 || g.CoverageThreshold > 1 {
		errs = append(errs, fmt.Errorf("grass.coverage_threshold must be in [0, 1], got %v", g.CoverageThreshold))
	}
	if c.Assets.PlacementMap == "" {
		errs = append(errs, errors.New("assets.placement_map is required"))
	}
	return errors.Join(errs...)
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		UserConfigPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Birdylook")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Birdylook")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "birdylook")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "birdylook")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
