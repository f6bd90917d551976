package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrConfigLoad is returned when the config file exists but cannot be
// read or parsed.
var ErrConfigLoad = errors.MustNewCode("icebergctl.config_load_failed")

// Config is the CLI's YAML configuration.
type Config struct {
	// Warehouse is the location prefix new tables are created under.
	Warehouse string        `yaml:"warehouse"`
	Catalog   CatalogConfig `yaml:"catalog"`
	Commit    CommitConfig  `yaml:"commit"`
	Logging   LogConfig     `yaml:"logging"`
}

// CatalogConfig locates the SQLite file backing both the object store
// and the catalog pointer store.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// CommitConfig holds commit-engine tuning.
type CommitConfig struct {
	MaxRetries int `yaml:"max_retries"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no config file is
// present.
func DefaultConfig() *Config {
	return &Config{
		Warehouse: "warehouse",
		Catalog:   CatalogConfig{Path: "icebergctl.db"},
		Commit:    CommitConfig{MaxRetries: 4},
		Logging:   LogConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML config from path. A missing file is not an
// error: the defaults apply. Unset fields fall back to their defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.New(ErrConfigLoad, "cannot read config file", err).AddContext("path", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(ErrConfigLoad, "cannot parse config file", err).AddContext("path", path)
	}

	if cfg.Warehouse == "" {
		cfg.Warehouse = DefaultConfig().Warehouse
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = DefaultConfig().Catalog.Path
	}
	if cfg.Commit.MaxRetries <= 0 {
		cfg.Commit.MaxRetries = DefaultConfig().Commit.MaxRetries
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultConfig().Logging.Level
	}
	return cfg, nil
}
