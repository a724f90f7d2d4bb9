package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DBPath     string `toml:"db_path"`
	BuildRoot  string `toml:"build_root"`
	SourceRoot string `toml:"source_root"`
	LogLevel   string `toml:"log_level"`
}

// DefaultPath is where Load looks for a config file.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "logdiff", "config.toml"), nil
}

// Load reads the default config file if it exists. A missing file is not an error.
func Load() (*Config, error) {
	cfgPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return load(cfgPath, false)
}

// LoadFile reads an explicit config file, which must exist.
func LoadFile(cfgPath string) (*Config, error) {
	return load(cfgPath, true)
}

func load(cfgPath string, required bool) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:   filepath.Join(home, ".local", "share", "logdiff", "data.db"),
		LogLevel: "info",
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	} else if required {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	if v := os.Getenv("LOGDIFF_DB"); v != "" {
		cfg.DBPath = v
	}

	// expand ~ in paths
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.BuildRoot = expandHome(cfg.BuildRoot, home)
	cfg.SourceRoot = expandHome(cfg.SourceRoot, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
