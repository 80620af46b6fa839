// Package config loads tagtool's TOML configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	DefaultFolder   string `koanf:"default_folder"`   // start folder for scan, empty means cwd
	ShowCustom      *bool  `koanf:"show_custom"`      // include custom APE items in read output (default: true)
	PreferredFormat string `koanf:"preferred_format"` // tag created on an untagged file: id3v1, id3v2 or ape (default: id3v2)
	Padding         int    `koanf:"padding"`          // minimum ID3v2 padding in bytes, 0 keeps the codec default
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.DefaultFolder != "" {
		cfg.DefaultFolder = expandPath(cfg.DefaultFolder)
	}
	return cfg, nil
}

// ShowCustomEntries returns show_custom with its default applied.
func (c *Config) ShowCustomEntries() bool {
	if c.ShowCustom == nil {
		return true
	}
	return *c.ShowCustom
}

// CreateFormat returns preferred_format with its default applied.
func (c *Config) CreateFormat() string {
	if c.PreferredFormat == "" {
		return "id3v2"
	}
	return c.PreferredFormat
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. XDG config dir, e.g. ~/.config/tagtool/config.toml
	if path, err := xdg.SearchConfigFile(filepath.Join("tagtool", "config.toml")); err == nil {
		paths = append(paths, path)
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
