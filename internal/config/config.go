package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig is the on-disk shape of a respd configuration file.
type ServerConfig struct {
	Addr          string       `toml:"addr"`
	Password      string       `toml:"password"`
	ReadTimeoutMS int64        `toml:"read_timeout_ms"`
	Limits        LimitsConfig `toml:"limits"`
	TLS           TLSConfig    `toml:"tls"`
}

// LimitsConfig bounds inbound protocol payloads. Zero fields fall back to
// the decoder defaults.
type LimitsConfig struct {
	MaxLineBytes     int `toml:"max_line_bytes"`
	MaxBulkBytes     int `toml:"max_bulk_bytes"`
	MaxArrayElements int `toml:"max_array_elements"`
	MaxDepth         int `toml:"max_depth"`
}

type TLSConfig struct {
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`
}

func LoadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6380"
	}
	if cfg.ReadTimeoutMS == 0 {
		cfg.ReadTimeoutMS = 30_000
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if cfg.ReadTimeoutMS < 0 {
		return fmt.Errorf("server config read_timeout_ms must not be negative")
	}
	if err := validateLimits(cfg.Limits); err != nil {
		return fmt.Errorf("server config limits invalid: %w", err)
	}
	cert := strings.TrimSpace(cfg.TLS.CertFile)
	key := strings.TrimSpace(cfg.TLS.KeyFile)
	if (cert == "") != (key == "") {
		return fmt.Errorf("server config tls requires both cert_file and key_file")
	}
	return nil
}

func validateLimits(limits LimitsConfig) error {
	if limits.MaxLineBytes < 0 {
		return fmt.Errorf("max_line_bytes must not be negative")
	}
	if limits.MaxBulkBytes < 0 {
		return fmt.Errorf("max_bulk_bytes must not be negative")
	}
	if limits.MaxArrayElements < 0 {
		return fmt.Errorf("max_array_elements must not be negative")
	}
	if limits.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative")
	}
	return nil
}
