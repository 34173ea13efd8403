// Package config loads match configuration from YAML, merged over embedded defaults.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/daniacca/overreaction/internal/kinetics"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds everything needed to start a match.
type Config struct {
	Species       []SpeciesConfig `yaml:"species"`
	InitialCounts []int           `yaml:"initial_counts"`
	Scheduler     SchedulerConfig `yaml:"scheduler"`
	Reactions     ReactionsConfig `yaml:"reactions"`
	Match         MatchConfig     `yaml:"match"`
	Batch         BatchConfig     `yaml:"batch"`
}

// SpeciesConfig names one slot of the species vector.
type SpeciesConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// SchedulerConfig tunes the random scheduler.
type SchedulerConfig struct {
	TimeScale float64 `yaml:"time_scale"`
	Seed      int64   `yaml:"seed"` // 0 seeds from the clock
}

// ReactionsConfig holds reaction defaults and the reactions a match starts with.
type ReactionsConfig struct {
	Lifetime  float64  `yaml:"lifetime"`
	MaxActive int      `yaml:"max_active"`
	Initial   []string `yaml:"initial"`
}

// MatchConfig holds realtime driver settings.
type MatchConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	SyncInterval time.Duration `yaml:"sync_interval"`
	WinThreshold int           `yaml:"win_threshold"`
}

// BatchConfig holds settings for the non-realtime driver.
type BatchConfig struct {
	EndTime float64       `yaml:"end_time"`
	Pace    time.Duration `yaml:"pace"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem found in the configuration at once.
func (c *Config) Validate() error {
	verr := &kinetics.ValidationError{}

	if len(c.Species) == 0 {
		verr.Add("at least one species is required")
	}
	seen := make(map[string]bool)
	for i, sp := range c.Species {
		if sp.Name == "" {
			verr.Add(fmt.Sprintf("species %d has no name", i))
			continue
		}
		if seen[sp.Name] {
			verr.Add(fmt.Sprintf("duplicate species name %q", sp.Name))
		}
		seen[sp.Name] = true
	}

	if len(c.InitialCounts) != len(c.Species) {
		verr.Add(fmt.Sprintf("initial_counts has %d entries, want %d", len(c.InitialCounts), len(c.Species)))
	}
	for i, n := range c.InitialCounts {
		if n < 0 {
			verr.Add(fmt.Sprintf("initial count %d is negative (%d)", i, n))
		}
	}

	if !(c.Scheduler.TimeScale > 0) || math.IsInf(c.Scheduler.TimeScale, 0) {
		verr.Add(fmt.Sprintf("scheduler.time_scale must be positive, got %v", c.Scheduler.TimeScale))
	}
	if c.Reactions.Lifetime < 0 {
		verr.Add(fmt.Sprintf("reactions.lifetime must not be negative, got %v", c.Reactions.Lifetime))
	}
	if c.Reactions.MaxActive < 0 {
		verr.Add(fmt.Sprintf("reactions.max_active must not be negative, got %d", c.Reactions.MaxActive))
	}
	for i, line := range c.Reactions.Initial {
		r, err := kinetics.ParseReaction(strings.Split(line, ","))
		if err != nil {
			verr.Add(fmt.Sprintf("reactions.initial[%d]: %v", i, err))
			continue
		}
		if len(r.Reactants) != len(c.Species) {
			verr.Add(fmt.Sprintf("reactions.initial[%d] covers %d species, want %d", i, len(r.Reactants), len(c.Species)))
		}
	}

	if c.Match.TickInterval <= 0 {
		verr.Add("match.tick_interval must be positive")
	}
	if c.Match.SyncInterval <= 0 {
		verr.Add("match.sync_interval must be positive")
	}
	if c.Batch.EndTime < 0 {
		verr.Add("batch.end_time must not be negative")
	}
	if c.Batch.Pace < 0 {
		verr.Add("batch.pace must not be negative")
	}

	return verr.OrNil()
}

// SpeciesList converts the configured species for the kinetics package.
func (c *Config) SpeciesList() []kinetics.Species {
	out := make([]kinetics.Species, len(c.Species))
	for i, sp := range c.Species {
		out[i] = kinetics.Species{Name: kinetics.SpeciesName(sp.Name), Description: sp.Description}
	}
	return out
}

// InitialReactions parses the configured initial reactions with the
// configured lifetime.
func (c *Config) InitialReactions() ([]kinetics.Reaction, error) {
	out := make([]kinetics.Reaction, 0, len(c.Reactions.Initial))
	for i, line := range c.Reactions.Initial {
		r, err := kinetics.ParseReaction(strings.Split(line, ","))
		if err != nil {
			return nil, fmt.Errorf("reactions.initial[%d]: %w", i, err)
		}
		if c.Reactions.Lifetime > 0 {
			r.RemainingTime = c.Reactions.Lifetime
		}
		out = append(out, r)
	}
	return out, nil
}

// RandSource returns the configured seed as a source, or nil for a clock seed.
func (c *Config) RandSource() rand.Source {
	if c.Scheduler.Seed == 0 {
		return nil
	}
	return rand.NewSource(c.Scheduler.Seed)
}

// NewSimulation builds a simulation from the configuration, including its
// initial reactions.
func (c *Config) NewSimulation() (*kinetics.Simulation, error) {
	sim, err := kinetics.NewSimulation(c.SpeciesList(), kinetics.SpeciesVector(c.InitialCounts))
	if err != nil {
		return nil, err
	}
	scheduler, err := kinetics.NewScheduler(c.RandSource(), c.Scheduler.TimeScale)
	if err != nil {
		return nil, err
	}
	sim.SetScheduler(scheduler)
	sim.SetMaxActive(c.Reactions.MaxActive)

	reactions, err := c.InitialReactions()
	if err != nil {
		return nil, err
	}
	for _, r := range reactions {
		if _, err := sim.AddReaction(r); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
