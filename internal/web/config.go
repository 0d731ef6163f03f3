package web

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// Config represents the web server configuration
type Config struct {
	Server   ServerConfig  `json:"server"`
	Auth     AuthConfig    `json:"auth"`
	Features FeatureConfig `json:"features"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"api_key"`
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	ReloadEnabled  bool `json:"reload_enabled"`
	MetricsEnabled bool `json:"metrics_enabled"`
	DebugEnabled   bool `json:"debug_enabled"`
}

// LoadConfig loads configuration from a JSON file over the defaults
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "web: read config %s", filename)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, eris.Wrapf(err, "web: parse config %s", filename)
	}

	return config, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Auth: AuthConfig{
			Enabled: false,
		},
		Features: FeatureConfig{
			ReloadEnabled:  true,
			MetricsEnabled: true,
		},
	}
}
