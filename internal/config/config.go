// Package config loads a node's optional startup defaults from a TOML file,
// adapted from the teacher's LogConfig (config.go) and its TOML-driven
// TestCase fixtures (sim/exp.go): here the "config" is not a compaction
// strategy but a node's default power, friend list, and alphabet.
package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// NodeConfig holds a node's startup defaults. CLI flags and interactive
// commands always override values loaded from a NodeConfig.
type NodeConfig struct {
	Power         uint32   `toml:"power"`
	Friends       []string `toml:"friends"`
	DefaultAlpha  string   `toml:"default_alphabet"`
	ConnectSecs   int      `toml:"connect_timeout_secs"`
	FrameMaxBytes int      `toml:"frame_max_bytes"`
	MeasureFile   string   `toml:"measure_file"`
}

// DefaultNodeConfig mirrors the teacher's DefaultLogConfig: a ready-to-use
// zero-friction configuration.
func DefaultNodeConfig() *NodeConfig {
	return &NodeConfig{
		Power:         1,
		ConnectSecs:   3,
		FrameMaxBytes: 1024,
	}
}

// Load reads and parses a TOML file at path into a NodeConfig seeded with
// DefaultNodeConfig's values, then validates it.
func Load(path string) (*NodeConfig, error) {
	cfg := DefaultNodeConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects a zero power, a duplicate friend entry, and a default
// alphabet with duplicate characters — never panics, per the error handling
// design's Invariant-violation policy. Friends are not compared against the
// node's own address, which a NodeConfig does not carry.
func (c *NodeConfig) Validate() error {
	if c.Power < 1 {
		return errors.New("config: power must be >= 1")
	}

	seen := make(map[string]bool, len(c.Friends))
	for _, f := range c.Friends {
		if seen[f] {
			return fmt.Errorf("config: duplicate friend entry %q", f)
		}
		seen[f] = true
	}

	if c.DefaultAlpha != "" {
		chars := make(map[rune]bool, len(c.DefaultAlpha))
		for _, r := range c.DefaultAlpha {
			if chars[r] {
				return fmt.Errorf("config: duplicate character %q in default_alphabet", r)
			}
			chars[r] = true
		}
	}

	if c.ConnectSecs < 1 {
		return errors.New("config: connect_timeout_secs must be >= 1")
	}
	if c.FrameMaxBytes < 1 {
		return errors.New("config: frame_max_bytes must be >= 1")
	}
	return nil
}
