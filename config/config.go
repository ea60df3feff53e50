// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Population PopulationConfig `yaml:"population"`
	World      WorldConfig      `yaml:"world"`
	Species    SpeciesConfig    `yaml:"species"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// PopulationConfig holds initial seeding counts and the step budget.
type PopulationConfig struct {
	Producers int `yaml:"producers"`
	Grazers   int `yaml:"grazers"`
	Predators int `yaml:"predators"`
	MaxSteps  int `yaml:"max_steps"`
}

// WorldConfig holds world parameters.
type WorldConfig struct {
	// GridSize is declared for forward compatibility but does not constrain
	// anything yet: target selection is population-wide by design.
	GridSize int `yaml:"grid_size"`
}

// SpeciesConfig holds the default trait tables per species. Any field left
// out of a user config keeps its embedded default.
type SpeciesConfig struct {
	Producer ProducerTraits `yaml:"producer"`
	Grazer   GrazerTraits   `yaml:"grazer"`
	Predator PredatorTraits `yaml:"predator"`
}

// ProducerTraits holds the producer trait table.
type ProducerTraits struct {
	Energy           float64 `yaml:"energy"`
	MaxAge           float64 `yaml:"max_age"`
	ReproductionCost float64 `yaml:"reproduction_cost"`
	MutationRate     float64 `yaml:"mutation_rate"`
	GrowthRate       float64 `yaml:"growth_rate"`
}

// GrazerTraits holds the grazer trait table.
type GrazerTraits struct {
	Energy            float64 `yaml:"energy"`
	MaxAge            float64 `yaml:"max_age"`
	ReproductionCost  float64 `yaml:"reproduction_cost"`
	MutationRate      float64 `yaml:"mutation_rate"`
	GrazingEfficiency float64 `yaml:"grazing_efficiency"`
	EvasionSkill      float64 `yaml:"evasion_skill"`
}

// PredatorTraits holds the predator trait table.
type PredatorTraits struct {
	Energy           float64 `yaml:"energy"`
	MaxAge           float64 `yaml:"max_age"`
	ReproductionCost float64 `yaml:"reproduction_cost"`
	MutationRate     float64 `yaml:"mutation_rate"`
	HuntingSkill     float64 `yaml:"hunting_skill"`
}

// TelemetryConfig holds reporting parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // steps per stats window
	PerfWindow  int `yaml:"perf_window"`  // steps averaged for perf stats
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
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
		// Unmarshal into the same struct - only overwrites fields present in
		// the file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
