package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the name of the engine configuration file.
const ConfigFileName = "engine.toml"

// FindConfigFile walks up from the given directory looking for engine.toml.
// Returns the absolute path to the config file, or an empty string if none
// is found before reaching the filesystem root.
func FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadFromFile parses the TOML file at path over a copy of NewDefaults, so
// that any section the file omits keeps its built-in default rather than
// zero-valuing. The returned metadata can be used to detect unknown keys via
// MetaData.Undecoded().
func LoadFromFile(path string) (*Config, toml.MetaData, error) {
	cfg := NewDefaults()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, md, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, md, nil
}

// Resolve loads engine.toml starting from dir (searching upward), falling
// back to built-in defaults when no file is found. CLI callers layer flag
// overrides on top of the returned Config themselves.
func Resolve(dir string) (*Config, error) {
	path, err := FindConfigFile(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return NewDefaults(), nil
	}
	cfg, _, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
