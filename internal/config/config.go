package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the tracker configuration.
const (
	DefaultListen    = ":8090"
	DefaultTick      = 250 * time.Millisecond
	DefaultThreshold = 10
)

// Config holds the tracker configuration parsed from the `tracker:` section
// of the config file.
type Config struct {
	Tracker TrackerConfig `yaml:"tracker"`
}

// TrackerConfig holds all tracker settings.
type TrackerConfig struct {
	// Listen is the address the combined HTTP server (ingest, REST API,
	// WebSocket hub, metrics) binds to. Default ":8090".
	Listen string `yaml:"listen"`

	// Tick is the recomputation period of the render scheduler. Default 250ms.
	Tick time.Duration `yaml:"tick"`

	// DefaultThreshold is the spot-count cutoff newly created runs start
	// with. Default 10. Reloaded live when the config file changes.
	DefaultThreshold int `yaml:"default_threshold"`

	// Beamlines is the endpoint table shown in the renderer's connection
	// toolbar. Purely informational to the core.
	Beamlines []Beamline `yaml:"beamlines"`
}

// Beamline is one named data source the renderer can point its feed at.
type Beamline struct {
	Name string `yaml:"name" json:"name"`
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation. A missing file yields the full default
// configuration.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tracker config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("tracker config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("tracker config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Tracker: TrackerConfig{
			Listen:           DefaultListen,
			Tick:             DefaultTick,
			DefaultThreshold: DefaultThreshold,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Tracker.Listen == "" {
		return fmt.Errorf("tracker.listen must not be empty")
	}
	if cfg.Tracker.Tick <= 0 {
		return fmt.Errorf("tracker.tick must be positive, got %s", cfg.Tracker.Tick)
	}
	if cfg.Tracker.DefaultThreshold < 0 {
		return fmt.Errorf("tracker.default_threshold must not be negative")
	}
	for _, bl := range cfg.Tracker.Beamlines {
		if bl.Name == "" {
			return fmt.Errorf("beamline with empty name")
		}
		if bl.Port <= 0 || bl.Port > 65535 {
			return fmt.Errorf("beamline %q: port %d is out of range [1, 65535]", bl.Name, bl.Port)
		}
	}
	return nil
}
