// Package config loads the optional nps.yaml configuration file named by
// --config: a kernel root override, a refresh delay and a hierarchy-mode
// default. The CLI consults only Root (used when --root is not given);
// DefaultDelay and HierarchyMode are parsed but nothing reads them.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk nps.yaml shape.
type Config struct {
	Root          string `yaml:"root"`           // kernel-exported filesystem root, default /proc
	DefaultDelay  int    `yaml:"default_delay"`  // top's refresh interval in seconds
	HierarchyMode bool   `yaml:"hierarchy_mode"` // indent commands by ancestry depth
}

// Default returns the built-in configuration used when no file is
// present or named.
func Default() Config {
	return Config{Root: "/proc", DefaultDelay: 3}
}

// Load reads and parses path, returning Default() unchanged if path is
// empty or does not exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
