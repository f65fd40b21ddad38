// Package runconfig loads the YAML batch-run manifest consumed by the
// "batch" CLI subcommand: one or more input trace paths plus the injector
// and simulator constructor parameters of spec.md §6.
package runconfig

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tracefec/tracefec/sim"
	"github.com/tracefec/tracefec/sim/trace"
)

// BatchConfig is the top-level shape of a run manifest. All fields must be
// listed to satisfy KnownFields(true) strict parsing: an unrecognized key
// (a typo) is a load error, not a silently-ignored default.
type BatchConfig struct {
	Traces    []string `yaml:"traces"`
	OutputDir string   `yaml:"output_dir"`

	Strategy        string  `yaml:"strategy"`
	WindowSize      int     `yaml:"window_size"`
	BlockSize       int     `yaml:"block_size"`
	LossRate        float64 `yaml:"loss_rate"`
	RTT             float64 `yaml:"rtt"`
	MaxInflight     int     `yaml:"max_inflight"`
	Seed            int64   `yaml:"seed"`
	ExternalFECRate float64 `yaml:"external_fec_rate"`

	Concurrency int `yaml:"concurrency"`
}

// Load reads and strictly parses a BatchConfig YAML manifest.
func Load(path string) (*BatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runconfig: read %s: %w", path, err)
	}
	var cfg BatchConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("runconfig: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// SimConfig converts the manifest's flat parameter set into a sim.Config,
// applying spec.md §6 defaults for anything left at its zero value.
func (c *BatchConfig) SimConfig() (sim.Config, error) {
	strategy, ok := trace.ParseStrategy(c.Strategy)
	if !ok {
		return sim.Config{}, fmt.Errorf("%w: strategy %q", trace.ErrInvalidStrategy, c.Strategy)
	}
	cfg := sim.DefaultConfig(strategy)
	if c.WindowSize > 0 {
		cfg.Injector.WindowSize = c.WindowSize
	}
	if c.BlockSize > 0 {
		cfg.Injector.BlockSize = c.BlockSize
	}
	cfg.LossRate = c.LossRate
	if c.RTT > 0 {
		cfg.RTT = c.RTT
	}
	if c.MaxInflight > 0 {
		cfg.MaxInflight = c.MaxInflight
	}
	cfg.Seed = c.Seed
	cfg.ExternalFECRate = c.ExternalFECRate
	if err := cfg.Validate(); err != nil {
		return sim.Config{}, err
	}
	return cfg, nil
}

// WorkerCount returns the configured fan-out width, defaulting to 4 (spec.md
// §5's independence requirement does not mandate a specific width).
func (c *BatchConfig) WorkerCount() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return 4
}
