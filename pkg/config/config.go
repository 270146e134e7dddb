package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	Server    ServerConfig    `yaml:"server"`
	Grid      GridConfig      `yaml:"grid"`
	Raster    RasterConfig    `yaml:"raster"`
	Cost      CostConfig      `yaml:"cost"`
	Search    SearchConfig    `yaml:"search"`
	Aggregate AggregateConfig `yaml:"aggregate"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	// RateLimit is the sustained request rate per second; RateBurst the
	// burst size. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// GridConfig holds settings for the aggregated hexagon grid.
type GridConfig struct {
	Resolution int    `yaml:"resolution"`
	Path       string `yaml:"path"`
}

// RasterConfig holds settings for the input friction raster.
type RasterConfig struct {
	Path   string  `yaml:"path"`
	NoData float64 `yaml:"nodata"`
}

// CostConfig holds cost model settings.
type CostConfig struct {
	Blend string `yaml:"blend"`
}

// SearchConfig holds traversal settings.
type SearchConfig struct {
	// MaxCost bounds point-to-point searches toward unreachable
	// destinations. Zero means unlimited.
	MaxCost Duration `yaml:"max_cost"`
}

// AggregateConfig holds aggregation pass settings.
type AggregateConfig struct {
	Workers int    `yaml:"workers"`
	Reducer string `yaml:"reducer"`
	// FrictionScale divides the raster's scaled friction rates back into
	// minutes per meter (the MAP surface publishes rates x100).
	FrictionScale float64 `yaml:"friction_scale"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/friction.db",
		},
		Server: ServerConfig{
			Address:   "localhost:1867",
			RateLimit: 20,
			RateBurst: 40,
		},
		Grid: GridConfig{
			Resolution: 6,
			Path:       "./data/outputs/friction_surface.csv.gz",
		},
		Raster: RasterConfig{
			Path:   "./data/friction100.asc",
			NoData: -9999,
		},
		Cost: CostConfig{
			Blend: "destination",
		},
		Search: SearchConfig{
			MaxCost: Duration(3000 * time.Minute),
		},
		Aggregate: AggregateConfig{
			Workers:       4,
			Reducer:       "min",
			FrictionScale: 100,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		return cfg, nil
	}

	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# frictiongo Configuration
# -----------------------
# Supported Duration units: ns, us, ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	// Inject comments for enum fields.
	reReducer := regexp.MustCompile(`(?m)^(\s+)reducer:`)
	data = reReducer.ReplaceAll(data, []byte("${1}# Options: min, max, mean, sum, count, first\n${1}reducer:"))

	reBlend := regexp.MustCompile(`(?m)^(\s+)blend:`)
	data = reBlend.ReplaceAll(data, []byte("${1}# Options: destination (asymmetric), average (symmetric)\n${1}blend:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
