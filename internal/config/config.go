// Package config loads the ambient settings a leafbase process needs
// to open a database: page size, the backing data file, the storage
// mode, and a checkpoint interval. Neither engine.Scheduler nor
// cmd/leafbase reads CheckpointInterval.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// StorageMode selects which pager.BlockDevice a Config opens.
type StorageMode string

const (
	StorageMemory StorageMode = "memory"
	StorageDisk   StorageMode = "disk"
)

// Config is the shared settings struct populated by either loader
// below (SPEC_FULL.md §3: "the config layer is format-agnostic the
// way the teacher's own catalog supports multiple serialization entry
// points").
type Config struct {
	PageSize          int           `yaml:"page_size" toml:"page_size"`
	DataFile          string        `yaml:"data_file" toml:"data_file"`
	StorageMode       StorageMode   `yaml:"storage_mode" toml:"storage_mode"`
	CheckpointInterval time.Duration `yaml:"checkpoint_interval" toml:"checkpoint_interval"`
}

// Default returns the zero-config in-memory defaults.
func Default() Config {
	return Config{
		PageSize:          4096,
		DataFile:          "",
		StorageMode:       StorageMemory,
		CheckpointInterval: 5 * time.Minute,
	}
}

// LoadYAML reads a YAML config document at path.
func LoadYAML(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, validate(cfg)
}

// LoadTOML reads a TOML config document at path, for callers who
// prefer TOML to YAML (SPEC_FULL.md §3).
func LoadTOML(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, validate(cfg)
}

func validate(cfg Config) error {
	if cfg.StorageMode == StorageDisk && cfg.DataFile == "" {
		return fmt.Errorf("storage_mode %q requires data_file", cfg.StorageMode)
	}
	return nil
}
