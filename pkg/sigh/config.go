package sigh

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProjectConfig represents a sigh.toml project configuration file.
type ProjectConfig struct {
	// Debug enables debug logging, as if --debug were passed.
	Debug bool `toml:"debug,omitempty"`

	// Color toggles ANSI styling of diagnostics. Defaults to on.
	Color *bool `toml:"color,omitempty"`
}

// ColorEnabled resolves the color toggle with its default.
func (c *ProjectConfig) ColorEnabled() bool {
	if c == nil || c.Color == nil {
		return true
	}
	return *c.Color
}

// LoadProjectConfig loads a sigh.toml file from the given path.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	var config ProjectConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &config, nil
}

// FindProjectConfig walks up from startDir looking for a sigh.toml.
// Returns empty values (no error) when none is found.
func FindProjectConfig(startDir string) (string, *ProjectConfig, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", nil, err
	}
	for {
		candidate := filepath.Join(dir, "sigh.toml")
		if _, err := os.Stat(candidate); err == nil {
			config, err := LoadProjectConfig(candidate)
			if err != nil {
				return candidate, nil, err
			}
			return candidate, config, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}
