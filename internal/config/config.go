package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional flatzip configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Archive  ArchiveConfig  `toml:"archive"`
}

// DefaultsConfig holds persistent flag defaults.
type DefaultsConfig struct {
	SkipBroken *bool `toml:"skip_broken"`
	Verify     *bool `toml:"verify"`
	Quiet      *bool `toml:"quiet"`
	Verbose    *bool `toml:"verbose"`
}

// ArchiveConfig holds archive behavior settings.
type ArchiveConfig struct {
	// Exclude patterns applied on top of the built-in metadata excludes.
	Exclude []string `toml:"exclude"`
	// OutputDir overrides where archives are written (default: the
	// invocation directory).
	OutputDir *string `toml:"output_dir"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "flatzip", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}

	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}
