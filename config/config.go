// Package config composes the scheduler, telemetry and HTTP settings into
// one validated application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sgerami52009-hash/wizardai/scheduler"
	"github.com/sgerami52009-hash/wizardai/telemetry"
)

// Config is the top-level application configuration.
type Config struct {
	Scheduler scheduler.Config `json:"scheduler"`
	Telemetry telemetry.Config `json:"telemetry"`
	HTTP      HTTPConfig       `json:"http"`
}

// HTTPConfig configures the operational HTTP surface.
type HTTPConfig struct {
	ListenAddress string        `json:"listen_address"`
	ReadTimeout   time.Duration `json:"read_timeout"`
	WriteTimeout  time.Duration `json:"write_timeout"`
}

// Default returns the configuration for the embedded assistant target.
func Default() *Config {
	return &Config{
		Scheduler: scheduler.DefaultConfig(),
		Telemetry: telemetry.DefaultConfig(),
		HTTP: HTTPConfig{
			ListenAddress: ":8090",
			ReadTimeout:   5 * time.Second,
			WriteTimeout:  10 * time.Second,
		},
	}
}

// Load reads a JSON configuration file over the defaults. A missing path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if c.HTTP.ListenAddress == "" {
		return fmt.Errorf("http: listen address cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("http: timeouts must be positive")
	}
	return nil
}
