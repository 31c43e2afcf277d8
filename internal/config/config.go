// Package config loads the packaging pipeline configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	OutputDir string `yaml:"output_dir"`
	WorkDir   string `yaml:"work_dir"`
	CachePath string `yaml:"cache_path"`
	LogDir    string `yaml:"log_dir"`

	Textures TexturesConfig `yaml:"textures"`
	Batch    BatchConfig    `yaml:"batch"`
}

type TexturesConfig struct {
	MaxDimension      int  `yaml:"max_dimension"`
	RequirePowerOfTwo bool `yaml:"require_power_of_two"`
	FallbackSize      int  `yaml:"fallback_size"`
}

type BatchConfig struct {
	Workers        int `yaml:"workers"`
	ItemTimeoutSec int `yaml:"item_timeout_sec"`
}

// Load reads the config at path, or returns defaults when path is empty.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("packager.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("packager.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		OutputDir: "./out",
		WorkDir:   "",
		CachePath: filepath.Join("./data", "cache", "conversions.db"),
		LogDir:    filepath.Join("./data", "logs"),
		Textures: TexturesConfig{
			MaxDimension:      1024,
			RequirePowerOfTwo: true,
			FallbackSize:      16,
		},
		Batch: BatchConfig{
			Workers:        4,
			ItemTimeoutSec: 0,
		},
	}
}

// Normalize fills omitted fields with defaults.
func (c *Config) Normalize() {
	d := defaults()
	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = d.OutputDir
	}
	if strings.TrimSpace(c.CachePath) == "" {
		c.CachePath = d.CachePath
	}
	if strings.TrimSpace(c.LogDir) == "" {
		c.LogDir = d.LogDir
	}
	if c.Textures.MaxDimension == 0 {
		c.Textures.MaxDimension = d.Textures.MaxDimension
	}
	if c.Textures.FallbackSize == 0 {
		c.Textures.FallbackSize = d.Textures.FallbackSize
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = d.Batch.Workers
	}
}

func (c *Config) Validate() error {
	if c.Textures.MaxDimension < 1 {
		return fmt.Errorf("textures.max_dimension must be positive")
	}
	if c.Textures.FallbackSize < 1 {
		return fmt.Errorf("textures.fallback_size must be positive")
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1")
	}
	if c.Batch.ItemTimeoutSec < 0 {
		return fmt.Errorf("batch.item_timeout_sec must not be negative")
	}
	return nil
}
