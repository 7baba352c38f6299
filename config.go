package trellis

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is looked up at the workspace root.
const ConfigFileName = ".trellis.yml"

// defaultEntryPoints are filenames always considered referenced by orphan
// analysis.
var defaultEntryPoints = []string{
	"index.ts", "index.tsx", "index.js",
	"main.ts", "main.tsx", "main.js",
	"app.ts", "app.tsx", "app.js",
}

// defaultExcludePrefixes mark library paths skipped by cycle detection.
var defaultExcludePrefixes = []string{"node_modules"}

// Config is the optional per-workspace configuration file.
type Config struct {
	// EntryPoints extends the built-in entry-point filename list.
	EntryPoints []string `yaml:"entry_points"`
	// ExcludeDirs adds directory names skipped during enumeration.
	ExcludeDirs []string `yaml:"exclude_dirs"`
	// Languages restricts the scan to the named languages.
	Languages []string `yaml:"languages"`
	// LibraryPrefixes replaces the path prefixes excluded from cycle
	// detection (default: node_modules).
	LibraryPrefixes []string `yaml:"library_prefixes"`
}

// LoadConfig reads .trellis.yml from root. A missing file yields a zero
// Config, not an error; a malformed file is an error.
func LoadConfig(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", ConfigFileName, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ConfigFileName, err)
	}
	return &cfg, nil
}

// entryPoints returns the effective entry-point filename list.
func (c *Config) entryPoints() []string {
	return append(append([]string{}, defaultEntryPoints...), c.EntryPoints...)
}

// libraryPrefixes returns the effective excluded-library prefixes.
func (c *Config) libraryPrefixes() []string {
	if len(c.LibraryPrefixes) > 0 {
		return c.LibraryPrefixes
	}
	return defaultExcludePrefixes
}
