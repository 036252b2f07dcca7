// Package config loads codegraph settings from a .codegraph.toml file in
// the scan root, applying defaults for everything the file omits.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is looked up in the scan root unless an explicit path
// is given.
const ConfigFileName = ".codegraph.toml"

// Config controls scanning and output. Zero values mean "use default";
// Load never returns a Config with unset required fields.
type Config struct {
	// RootDir is the directory to scan. Defaults to the current directory.
	RootDir string `toml:"root"`

	// Exclude holds doublestar glob patterns matched against the
	// forward-slash relative path. A match skips the file (and prunes
	// the directory, for directory matches).
	Exclude []string `toml:"exclude"`

	// Include, when non-empty, restricts scanning to matching paths on
	// top of the built-in extension filter.
	Include []string `toml:"include"`

	// MaxFileSize in bytes; larger files are skipped with a parse error
	// rather than read into memory.
	MaxFileSize int64 `toml:"max_file_size"`

	// Workers bounds concurrent file extraction. 0 means GOMAXPROCS.
	Workers int `toml:"workers"`

	// Format selects CLI output: json, markdown, mermaid, or dot.
	Format string `toml:"format"`

	// Verbose surfaces unresolved-import warnings in reports.
	Verbose bool `toml:"verbose"`
}

// DefaultExcludes skip the directories that dominate real project trees
// without contributing source: package caches, build output, VCS metadata.
var DefaultExcludes = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/dist/**",
	"**/build/**",
	"**/out/**",
	"**/__pycache__/**",
	"**/.venv/**",
	"**/venv/**",
	"**/vendor/**",
	"**/coverage/**",
	"**/.next/**",
	"**/*.min.js",
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RootDir:     ".",
		Exclude:     append([]string(nil), DefaultExcludes...),
		MaxFileSize: 2 << 20, // 2 MiB
		Workers:     runtime.GOMAXPROCS(0),
		Format:      "json",
	}
}

// Load reads configuration from path, or from .codegraph.toml under root
// when path is empty. A missing file is not an error: defaults apply.
// User excludes extend the defaults rather than replacing them.
func Load(root, path string) (*Config, error) {
	cfg := Default()
	if root != "" {
		cfg.RootDir = root
	}

	explicit := path != ""
	if path == "" {
		path = filepath.Join(cfg.RootDir, ConfigFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var file Config
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.merge(&file, root != "")
	return cfg, nil
}

// merge overlays file values onto defaults. rootFlagSet keeps a --root
// flag authoritative over the file's root key.
func (c *Config) merge(file *Config, rootFlagSet bool) {
	if file.RootDir != "" && !rootFlagSet {
		c.RootDir = file.RootDir
	}
	if len(file.Exclude) > 0 {
		c.Exclude = append(c.Exclude, file.Exclude...)
	}
	if len(file.Include) > 0 {
		c.Include = append([]string(nil), file.Include...)
	}
	if file.MaxFileSize > 0 {
		c.MaxFileSize = file.MaxFileSize
	}
	if file.Workers > 0 {
		c.Workers = file.Workers
	}
	if file.Format != "" {
		c.Format = file.Format
	}
	if file.Verbose {
		c.Verbose = true
	}
}

// Example renders a commented starter config for `codegraph config init`.
func Example() string {
	return `# codegraph configuration
# Globs use doublestar syntax and match forward-slash relative paths.

root = "."

exclude = [
  "**/node_modules/**",
  "**/dist/**",
]

# include = ["src/**"]

max_file_size = 2097152
workers = 0        # 0 = number of CPUs
format = "json"    # json | markdown | mermaid | dot
verbose = false
`
}
