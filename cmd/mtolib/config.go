package main

import (
	"fmt"
	"os"

	"github.com/mtolib/mtolib-go/objects"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk, YAML-shaped mirror of objects.Parameters plus the
// handful of settings that only make sense at the CLI boundary (which image
// to load, its dimensions, where to cache the tree). It's the same idea as
// the teacher's flag-driven RdbDir/RdbFilename pair in app/server.go, scaled
// up to a parameter set too large to hang entirely off flags.
type Config struct {
	Image struct {
		Path   string `yaml:"path"`
		Width  int16  `yaml:"width"`
		Height int16  `yaml:"height"`
	} `yaml:"image"`

	Connectivity string `yaml:"connectivity"` // "4", "8", or "12"

	Parameters objects.Parameters `yaml:"parameters"`

	SnapshotPath string `yaml:"snapshot_path"`
}

// defaultConfig mirrors the original's default mt_parameters (a unit-gain,
// unit-variance, move-free setup with the bundled significance test).
func defaultConfig() Config {
	var c Config
	c.Connectivity = "4"
	c.Parameters = objects.Parameters{
		BgVariance: 1,
		Gain:       1,
		Alpha:      1e-6,
	}
	return c
}

// loadConfig reads and parses a YAML config file at path, starting from
// defaultConfig so a partial file only overrides what it mentions.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("mtolib: opening config %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("mtolib: parsing config %s: %w", path, err)
	}
	return cfg, nil
}
