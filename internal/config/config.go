package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultListenAddr        = ":8080"
	DefaultOhsomeAPI         = "https://api.ohsome.org/v1"
	DefaultUserAgent         = "osmquality"
	DefaultOhsomeTimeout     = 10 * time.Minute
	DefaultGeomSizeLimitSqkm = 100.0
)

// Config is the top-level configuration for server and precompute binaries.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Ohsome   OhsomeConfig   `yaml:"ohsome"`

	// GeomSizeLimitSqkm is the area ceiling, in square kilometers, applied
	// to ad-hoc input geometries on size-restricted requests. Changing it in
	// the config file takes effect without a restart when Watch is running.
	GeomSizeLimitSqkm float64 `yaml:"geom_size_limit_sqkm"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	// ListenAddr is the host:port the HTTP API binds to.
	ListenAddr string `yaml:"listen_addr"`
}

// DatabaseConfig holds the PostGIS connection settings.
type DatabaseConfig struct {
	// URL is a libpq connection string or postgres:// URL.
	URL string `yaml:"url"`
}

// OhsomeConfig holds the ohsome API client settings.
type OhsomeConfig struct {
	// API is the base URL of the ohsome API.
	API string `yaml:"api"`

	// UserAgent is sent with every ohsome request.
	UserAgent string `yaml:"user_agent"`

	// Timeout bounds a single ohsome request. Aggregations over large
	// regions routinely take minutes.
	Timeout time.Duration `yaml:"timeout"`
}

// Load reads and parses the YAML config file at path. Missing optional fields
// are filled with defaults, then environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	fromEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: DefaultListenAddr,
		},
		Ohsome: OhsomeConfig{
			API:       DefaultOhsomeAPI,
			UserAgent: DefaultUserAgent,
			Timeout:   DefaultOhsomeTimeout,
		},
		GeomSizeLimitSqkm: DefaultGeomSizeLimitSqkm,
	}
}

// fromEnv applies environment overrides on top of file values.
func fromEnv(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("OHSOME_API"); v != "" {
		cfg.Ohsome.API = v
	}
	if v := os.Getenv("USER_AGENT"); v != "" {
		cfg.Ohsome.UserAgent = v
	}
	if v := os.Getenv("GEOM_SIZE_LIMIT_SQKM"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.GeomSizeLimitSqkm = f
		}
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required (or set DATABASE_URL)")
	}
	if cfg.Ohsome.API == "" {
		return fmt.Errorf("ohsome.api is required")
	}
	if cfg.Ohsome.Timeout <= 0 {
		return fmt.Errorf("ohsome.timeout must be positive")
	}
	if cfg.GeomSizeLimitSqkm <= 0 {
		return fmt.Errorf("geom_size_limit_sqkm must be positive")
	}
	return nil
}
