// Package config loads reader settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultPageSize = 2000

// Config holds the reader settings. Display preferences (fonts, colors)
// are presentation concerns and deliberately have no place here.
type Config struct {
	// StorePath is the progress database location.
	StorePath string `yaml:"store_path"`
	// PageSize is the fixed page length in characters.
	PageSize int `yaml:"page_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		StorePath: filepath.Join(home, ".epubreader", "progress.db"),
		PageSize:  defaultPageSize,
	}
}

// Load reads configuration from path. A missing file yields the
// defaults; fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.StorePath == "" {
		cfg.StorePath = Default().StorePath
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return cfg, nil
}
