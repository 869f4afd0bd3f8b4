package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TransportConfig is one transport's listen configuration. Addr is unused
// by the native and WebRTC transports, which communicate over stdio and a
// data channel respectively.
type TransportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// RateLimitConfig overrides the default per-tier request budgets (§12).
type RateLimitConfig struct {
	Inference int `yaml:"inference"`
	Standard  int `yaml:"standard"`
}

// Config is memoriad's full runtime configuration.
type Config struct {
	DataDir string `yaml:"data_dir"`

	LogLevel    string `yaml:"log_level"`
	LogJSON     bool   `yaml:"log_json"`
	MetricsAddr string `yaml:"metrics_addr"`

	ActivityLevel      string `yaml:"activity_level"`      // "high", "low", "sleep"
	QuantizationScheme string `yaml:"quantization_scheme"` // "scalar", "product"

	HTTP   TransportConfig `yaml:"http"`
	Native TransportConfig `yaml:"native"`
	WebRTC TransportConfig `yaml:"webrtc"`

	RateLimits RateLimitConfig `yaml:"rate_limits"`
	AuthTokens []string        `yaml:"auth_tokens"`
}

// Default returns the zero-value-safe configuration memoriad runs with
// when no config file is supplied.
func Default() *Config {
	return &Config{
		DataDir:            "./memoria-data",
		LogLevel:           "info",
		MetricsAddr:        "127.0.0.1:9090",
		ActivityLevel:      "low",
		QuantizationScheme: "scalar",
		HTTP:               TransportConfig{Enabled: true, Addr: "127.0.0.1:8088"},
		RateLimits:         RateLimitConfig{Inference: 30, Standard: 120},
	}
}

// Load reads and parses a YAML config file at path, starting from
// Default() so any field the file omits keeps its sane default rather
// than zeroing out (§10.3, matching the Rust original's
// NativeMessagingConfig::default() style).
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
