// Package config loads runtime settings from an optional YAML file and
// MURMURATIONS_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	EnvLocal       = "local"
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds everything the server and CLI need.
type Config struct {
	Env           string        `yaml:"env" env:"MURMURATIONS_ENV"`
	Addr          string        `yaml:"addr" env:"MURMURATIONS_ADDR"`
	IndexURL      string        `yaml:"index_url" env:"MURMURATIONS_INDEX_URL"`
	LibraryURL    string        `yaml:"library_url" env:"MURMURATIONS_LIBRARY_URL"`
	DataProxyURL  string        `yaml:"data_proxy_url" env:"MURMURATIONS_DATA_PROXY_URL"`
	ToolsURL      string        `yaml:"tools_url" env:"MURMURATIONS_TOOLS_URL"`
	LocalToolsURL string        `yaml:"local_tools_url" env:"MURMURATIONS_LOCAL_TOOLS_URL"`
	HTTPTimeout   time.Duration `yaml:"http_timeout" env:"MURMURATIONS_HTTP_TIMEOUT"`
	Storage       Storage       `yaml:"storage"`
	Log           Log           `yaml:"log"`
}

// Storage selects the persistence backend.
type Storage struct {
	Driver string `yaml:"driver" env:"MURMURATIONS_STORAGE_DRIVER"`
	Path   string `yaml:"path" env:"MURMURATIONS_STORAGE_PATH"`
}

// Log configures the zap logger.
type Log struct {
	Level string `yaml:"level" env:"MURMURATIONS_LOG_LEVEL"`
	JSON  bool   `yaml:"json" env:"MURMURATIONS_LOG_JSON"`
}

// Default returns the settings used when nothing overrides them. The remote
// services point at the Murmurations test network.
func Default() Config {
	return Config{
		Env:           EnvDevelopment,
		Addr:          ":8080",
		IndexURL:      "https://test-index.murmurations.network",
		LibraryURL:    "https://test-library.murmurations.network",
		DataProxyURL:  "https://test-data-proxy.murmurations.network",
		ToolsURL:      "https://test-tools.murmurations.network",
		LocalToolsURL: "http://localhost:8080",
		HTTPTimeout:   15 * time.Second,
		Storage:       Storage{Driver: DriverMemory},
		Log:           Log{Level: "info"},
	}
}

// Load applies the YAML file at path (optional) and then the environment on
// top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decodeYAML(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv overlays MURMURATIONS_* variables onto target. Unset variables
// leave the current values alone.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func decodeYAML(raw []byte, cfg *Config) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	switch c.Env {
	case EnvLocal, EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("config: unknown env %q", c.Env))
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, errors.New("config: storage.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver))
	}
	for name, value := range map[string]string{
		"index_url":   c.IndexURL,
		"library_url": c.LibraryURL,
		"tools_url":   c.ToolsURL,
	} {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("config: %s is required", name))
		}
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, errors.New("config: http_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether cookies must be marked Secure.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// ProfileURL is the public address the Index fetches a hosted profile from.
func (c Config) ProfileURL(cuid string) string {
	base := c.ToolsURL
	if c.Env == EnvLocal && c.LocalToolsURL != "" {
		base = c.LocalToolsURL
	}
	return strings.TrimRight(base, "/") + "/profiles/" + cuid
}
