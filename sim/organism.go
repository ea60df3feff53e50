// Package sim implements the core ecosystem: the organism model, species
// behaviors, reproduction, and the per-step population scheduler. The
// package has no configuration or reporting dependencies; trait tables and
// event recorders are supplied by the caller.
package sim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/pthm-cable/foodweb/traits"
)

// MetabolicCost is the flat energy deduction every organism pays per step.
const MetabolicCost = 1.0

// GrazeCap is the maximum energy a grazer can consume from a single producer
// in one step.
const GrazeCap = 15.0

// HuntYield is the fraction of a killed grazer's energy absorbed by the
// predator.
const HuntYield = 0.8

// Organism is one individual. The species-specific trait fields are
// meaningful only for the matching Species tag; clone and the mutation pass
// switch on the tag so the other variants' fields stay zero.
type Organism struct {
	ID      uint64
	Species traits.Species

	Energy float64
	Age    int
	Alive  bool

	// Heritable traits shared by all species.
	MaxAge           float64
	ReproductionCost float64
	MutationRate     float64

	// Producer.
	GrowthRate float64

	// Grazer.
	GrazingEfficiency float64
	EvasionSkill      float64

	// Predator.
	HuntingSkill float64
}

// ProducerConfig holds the trait table for constructing a producer.
type ProducerConfig struct {
	Energy           float64
	MaxAge           float64
	ReproductionCost float64
	MutationRate     float64
	GrowthRate       float64
}

// GrazerConfig holds the trait table for constructing a grazer.
type GrazerConfig struct {
	Energy            float64
	MaxAge            float64
	ReproductionCost  float64
	MutationRate      float64
	GrazingEfficiency float64
	EvasionSkill      float64
}

// PredatorConfig holds the trait table for constructing a predator.
type PredatorConfig struct {
	Energy           float64
	MaxAge           float64
	ReproductionCost float64
	MutationRate     float64
	HuntingSkill     float64
}

// DefaultProducerConfig returns the default producer trait table. Callers
// override individual fields before passing the config to NewProducer.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Energy:           10,
		MaxAge:           30,
		ReproductionCost: 5,
		MutationRate:     0.1,
		GrowthRate:       2,
	}
}

// DefaultGrazerConfig returns the default grazer trait table.
func DefaultGrazerConfig() GrazerConfig {
	return GrazerConfig{
		Energy:            50,
		MaxAge:            40,
		ReproductionCost:  20,
		MutationRate:      0.1,
		GrazingEfficiency: 0.7,
		EvasionSkill:      0.3,
	}
}

// DefaultPredatorConfig returns the default predator trait table.
func DefaultPredatorConfig() PredatorConfig {
	return PredatorConfig{
		Energy:           80,
		MaxAge:           50,
		ReproductionCost: 30,
		MutationRate:     0.1,
		HuntingSkill:     0.6,
	}
}

// NewProducer builds a producer from the given trait table. The organism has
// no ID until an Ecosystem admits it.
func NewProducer(cfg ProducerConfig) (*Organism, error) {
	if err := validateCommon(cfg.Energy, cfg.MaxAge, cfg.MutationRate); err != nil {
		return nil, fmt.Errorf("producer: %w", err)
	}
	return &Organism{
		Species:          traits.SpeciesProducer,
		Energy:           cfg.Energy,
		Alive:            true,
		MaxAge:           cfg.MaxAge,
		ReproductionCost: cfg.ReproductionCost,
		MutationRate:     cfg.MutationRate,
		GrowthRate:       cfg.GrowthRate,
	}, nil
}

// NewGrazer builds a grazer from the given trait table.
func NewGrazer(cfg GrazerConfig) (*Organism, error) {
	if err := validateCommon(cfg.Energy, cfg.MaxAge, cfg.MutationRate); err != nil {
		return nil, fmt.Errorf("grazer: %w", err)
	}
	return &Organism{
		Species:           traits.SpeciesGrazer,
		Energy:            cfg.Energy,
		Alive:             true,
		MaxAge:            cfg.MaxAge,
		ReproductionCost:  cfg.ReproductionCost,
		MutationRate:      cfg.MutationRate,
		GrazingEfficiency: cfg.GrazingEfficiency,
		EvasionSkill:      cfg.EvasionSkill,
	}, nil
}

// NewPredator builds a predator from the given trait table.
func NewPredator(cfg PredatorConfig) (*Organism, error) {
	if err := validateCommon(cfg.Energy, cfg.MaxAge, cfg.MutationRate); err != nil {
		return nil, fmt.Errorf("predator: %w", err)
	}
	return &Organism{
		Species:          traits.SpeciesPredator,
		Energy:           cfg.Energy,
		Alive:            true,
		MaxAge:           cfg.MaxAge,
		ReproductionCost: cfg.ReproductionCost,
		MutationRate:     cfg.MutationRate,
		HuntingSkill:     cfg.HuntingSkill,
	}, nil
}

func validateCommon(energy, maxAge, mutationRate float64) error {
	if energy <= 0 {
		return fmt.Errorf("energy must be positive, got %v", energy)
	}
	if maxAge <= 0 {
		return fmt.Errorf("max age must be positive, got %v", maxAge)
	}
	if mutationRate < 0 || mutationRate > 1 {
		return fmt.Errorf("mutation rate must be in [0,1], got %v", mutationRate)
	}
	return nil
}

// kill marks the organism dead. Death is monotone; killing an organism twice
// means step bookkeeping is corrupted, so it is fatal.
func (o *Organism) kill() {
	if !o.Alive {
		panic(fmt.Sprintf("sim: organism %d killed twice", o.ID))
	}
	o.Alive = false
}

// clone copies exactly the fields the organism's variant declares. The
// offspring starts at age zero with no ID; its energy is the parent's
// reproduction cost as it stood before the offspring mutation pass.
func (o *Organism) clone() *Organism {
	child := &Organism{
		Species:          o.Species,
		Energy:           o.ReproductionCost,
		Alive:            true,
		MaxAge:           o.MaxAge,
		ReproductionCost: o.ReproductionCost,
		MutationRate:     o.MutationRate,
	}
	switch o.Species {
	case traits.SpeciesProducer:
		child.GrowthRate = o.GrowthRate
	case traits.SpeciesGrazer:
		child.GrazingEfficiency = o.GrazingEfficiency
		child.EvasionSkill = o.EvasionSkill
	case traits.SpeciesPredator:
		child.HuntingSkill = o.HuntingSkill
	}
	return child
}

// reproduce returns a mutated clone, or nil when the parent cannot afford
// it. The parent pays its reproduction cost. Every mutation draw uses the
// mutation rate snapshot taken at clone time, so the order the traits mutate
// in cannot influence one another.
func (o *Organism) reproduce(rng *rand.Rand) *Organism {
	if !o.Alive {
		panic(fmt.Sprintf("sim: reproduce called on dead organism %d", o.ID))
	}
	if o.Energy <= 2*o.ReproductionCost {
		return nil
	}
	o.Energy -= o.ReproductionCost

	child := o.clone()
	rate := child.MutationRate

	child.MaxAge = roundAge(traits.Mutate(rng, child.MaxAge, rate))
	child.ReproductionCost = traits.Mutate(rng, child.ReproductionCost, rate)
	child.MutationRate = traits.Mutate(rng, child.MutationRate, rate)

	switch child.Species {
	case traits.SpeciesProducer:
		child.GrowthRate = traits.Mutate(rng, child.GrowthRate, rate)
	case traits.SpeciesGrazer:
		child.GrazingEfficiency = traits.Mutate(rng, child.GrazingEfficiency, rate)
		child.EvasionSkill = traits.Mutate(rng, child.EvasionSkill, rate)
	case traits.SpeciesPredator:
		child.HuntingSkill = traits.Mutate(rng, child.HuntingSkill, rate)
	}
	return child
}

// roundAge rounds a mutated max age to the nearest non-negative integer.
func roundAge(v float64) float64 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	return r
}
