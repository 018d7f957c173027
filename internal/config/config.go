// Package config handles viewer and grass generation configuration.
package config

// Config holds all settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Assets   AssetsConfig   `yaml:"assets"`
	Grass    GrassConfig    `yaml:"grass"`
	Scene    SceneConfig    `yaml:"scene"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	MSAA       int  `yaml:"msaa"` // Sample count, 1 disables multisampling
	HDR        bool `yaml:"hdr"`

	ScreenshotDir string `yaml:"screenshot_dir"`
}

// AssetsConfig holds asset locations.
type AssetsConfig struct {
	Root         string `yaml:"root"`          // Directory all other asset paths are relative to
	PlacementMap string `yaml:"placement_map"` // layers/grass_placement.*
	ShaderDir    string `yaml:"shader_dir"`    // Overrides the embedded grass shaders when present
	Watch        bool   `yaml:"watch"`         // Regenerate grass when the placement map changes
}

// GrassConfig holds instance generation settings.
type GrassConfig struct {
	Seed              uint64     `yaml:"seed"`            // 0 picks a new seed every run
	GridResolution    int        `yaml:"grid_resolution"` // Map-grid units across the ground
	BladeArea         int        `yaml:"blade_area"`      // Grid cells per blade in rectangle records
	EarlyExitEpsilon  float32    `yaml:"early_exit_epsilon"`
	SearchRadius      float32    `yaml:"search_radius"`
	Sampler           string     `yaml:"sampler"`          // "scan" or "grid"
	PerBladeHeight    bool       `yaml:"per_blade_height"` // Sample height per blade instead of per region
	CoverageThreshold float32    `yaml:"coverage_threshold"`
	MinScale          float32    `yaml:"min_scale"`
	MaxScale          float32    `yaml:"max_scale"`
	Color             [4]float32 `yaml:"color"`
	CapacityHint      int        `yaml:"capacity_hint"`
}

// SceneConfig describes the procedural ground used by the viewer.
type SceneConfig struct {
	GroundSize     float32 `yaml:"ground_size"`
	GroundSegments int     `yaml:"ground_segments"`
	HillHeight     float32 `yaml:"hill_height"`
	SunAzimuth     float32 `yaml:"sun_azimuth"`   // Degrees around +Y from +Z
	SunElevation   float32 `yaml:"sun_elevation"` // Degrees above the horizon
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Sampler names.
const (
	SamplerScan = "scan"
	SamplerGrid = "grid"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			MSAA:       4,
			HDR:        false,

			ScreenshotDir: "screenshots",
		},
		Assets: AssetsConfig{
			Root:         "assets",
			PlacementMap: "layers/grass_placement.ron",
			ShaderDir:    "shaders",
			Watch:        true,
		},
		Grass: GrassConfig{
			Seed:              0,
			GridResolution:    512,
			BladeArea:         4,
			EarlyExitEpsilon:  1.0,
			SearchRadius:      100.0,
			Sampler:           SamplerScan,
			PerBladeHeight:    false,
			CoverageThreshold: 0.05,
			MinScale:          0.2,
			MaxScale:          0.7,
			Color:             [4]float32{0.1, 0.2, 0.01, 1},
			CapacityHint:      60_000,
		},
		Scene: SceneConfig{
			GroundSize:     256,
			GroundSegments: 128,
			HillHeight:     6,
			SunAzimuth:     235,
			SunElevation:   55,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
