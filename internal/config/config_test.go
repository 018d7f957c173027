package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Graphics defaults
	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}
	if cfg.Graphics.ScreenshotDir != "screenshots" {
		t.Errorf("expected screenshot dir screenshots, got %s", cfg.Graphics.ScreenshotDir)
	}

	// Grass defaults
	if cfg.Grass.GridResolution != 512 {
		t.Errorf("expected grid resolution 512, got %d", cfg.Grass.GridResolution)
	}
	if cfg.Grass.BladeArea != 4 {
		t.Errorf("expected blade area 4, got %d", cfg.Grass.BladeArea)
	}
	if cfg.Grass.EarlyExitEpsilon != 1.0 {
		t.Errorf("expected early exit epsilon 1.0, got %f", cfg.Grass.EarlyExitEpsilon)
	}
	if cfg.Grass.SearchRadius != 100 {
		t.Errorf("expected search radius 100, got %f", cfg.Grass.SearchRadius)
	}
	if cfg.Grass.Sampler != SamplerScan {
		t.Errorf("expected scan sampler, got %s", cfg.Grass.Sampler)
	}
	if cfg.Grass.MinScale != 0.2 || cfg.Grass.MaxScale != 0.7 {
		t.Errorf("expected scale range [0.2, 0.7], got [%f, %f]", cfg.Grass.MinScale, cfg.Grass.MaxScale)
	}
	if cfg.Grass.Color != [4]float32{0.1, 0.2, 0.01, 1} {
		t.Errorf("unexpected default color %v", cfg.Grass.Color)
	}
	if cfg.Grass.PerBladeHeight {
		t.Error("expected per-region height anchoring by default")
	}

	// Assets defaults
	if cfg.Assets.PlacementMap != "layers/grass_placement.ron" {
		t.Errorf("unexpected placement map path %s", cfg.Assets.PlacementMap)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false
  msaa: 1

assets:
  root: "/srv/world"
  placement_map: "layers/grass_placement.png"
  watch: false

grass:
  seed: 42
  sampler: grid
  per_blade_height: true
  color: [0.2, 0.4, 0.05, 1]

logging:
  level: "debug"
  log_file: "grass.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.MSAA != 1 {
		t.Errorf("expected msaa 1, got %d", cfg.Graphics.MSAA)
	}

	if cfg.Assets.Root != "/srv/world" {
		t.Errorf("expected root /srv/world, got %s", cfg.Assets.Root)
	}
	if cfg.Assets.Watch {
		t.Error("expected watch to be false")
	}

	if cfg.Grass.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Grass.Seed)
	}
	if cfg.Grass.Sampler != SamplerGrid {
		t.Errorf("expected grid sampler, got %s", cfg.Grass.Sampler)
	}
	if !cfg.Grass.PerBladeHeight {
		t.Error("expected per_blade_height to be true")
	}
	if cfg.Grass.Color != [4]float32{0.2, 0.4, 0.05, 1} {
		t.Errorf("unexpected color %v", cfg.Grass.Color)
	}
	// Untouched fields keep their defaults
	if cfg.Grass.GridResolution != 512 {
		t.Errorf("expected grid resolution to stay 512, got %d", cfg.Grass.GridResolution)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown sampler", func(c *Config) { c.Grass.Sampler = "kdtree" }},
		{"zero grid resolution", func(c *Config) { c.Grass.GridResolution = 0 }},
		{"zero blade area", func(c *Config) { c.Grass.BladeArea = 0 }},
		{"inverted scale range", func(c *Config) { c.Grass.MinScale, c.Grass.MaxScale = 0.7, 0.2 }},
		{"non-positive min scale", func(c *Config) { c.Grass.MinScale = 0 }},
		{"threshold above one", func(c *Config) { c.Grass.CoverageThreshold = 1.5 }},
		{"missing placement map", func(c *Config) { c.Assets.PlacementMap = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "seed flag",
			setup: func() { *flagSeed = 7 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Grass.Seed != 7 {
					t.Errorf("expected seed 7, got %d", cfg.Grass.Seed)
				}
			},
			teardown: func() { *flagSeed = 0 },
		},
		{
			name:  "placement and sampler flags",
			setup: func() { *flagPlacement = "layers/alt.bin"; *flagSampler = SamplerGrid },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Assets.PlacementMap != "layers/alt.bin" {
					t.Errorf("expected placement override, got %s", cfg.Assets.PlacementMap)
				}
				if cfg.Grass.Sampler != SamplerGrid {
					t.Errorf("expected grid sampler, got %s", cfg.Grass.Sampler)
				}
			},
			teardown: func() { *flagPlacement = ""; *flagSampler = "" },
		},
		{
			name:  "no-watch flag",
			setup: func() { *flagNoWatch = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Assets.Watch {
					t.Error("expected watch to be disabled")
				}
			},
			teardown: func() { *flagNoWatch = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name:  "width and height flags",
			setup: func() { *flagWidth = 2560; *flagHeight = 1440 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() { *flagWidth = 0; *flagHeight = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
grass:
  seed: 11
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width comes from the flag, height and seed from the file
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
	if cfg.Grass.Seed != 11 {
		t.Errorf("expected seed 11 from file, got %d", cfg.Grass.Seed)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("grass:\n  sampler: octree\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject unknown sampler")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Grass.Seed = 99
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Grass.Seed != 99 {
		t.Errorf("expected seed 99 after reload, got %d", loaded.Grass.Seed)
	}
}

func TestSave(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("user config dir is only redirectable through XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Scene.HillHeight = 12
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path := UserConfigPath()
	if filepath.Base(filepath.Dir(path)) != "birdylook" {
		t.Errorf("unexpected config path %s", path)
	}
	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Scene.HillHeight != 12 {
		t.Errorf("expected hill height 12 after reload, got %v", loaded.Scene.HillHeight)
	}
}
