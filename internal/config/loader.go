package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Loader handles loading the configuration.
type Loader struct {
	Version      string // Build version, used to determine dev mode
	OverridePath string // Set from -config or at compile time
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

// Load reads the rc file, if any, and applies environment overrides.
func (l *Loader) Load() (*Config, error) {
	cfg := New()
	if path := l.GetConfigPath(); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cfg, err = Parse(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg.ApplyEnv(nil)
	return cfg, nil
}

// GetConfigPath returns the path to the configuration file, or empty string if not found.
func (l *Loader) GetConfigPath() string {
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
	}

	if l.Version == "dev" {
		wd, _ := os.Getwd()
		localPath := filepath.Join(wd, ".s2crc")
		if _, err := os.Stat(localPath); err == nil {
			return localPath
		}
	}

	home, _ := os.UserHomeDir()
	for _, name := range []string{"config.rc", "s2c.rc"} {
		p := filepath.Join(home, ".config", "s2c", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
