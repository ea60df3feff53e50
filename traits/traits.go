// Package traits defines the species variants and the heritable trait
// mutation engine.
package traits

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Species is the closed set of trophic variants. Behavior and the set of
// heritable traits an organism carries are dispatched by switching on this
// tag; there is no open hierarchy.
type Species uint8

const (
	SpeciesProducer Species = iota // autotroph, gains energy every step
	SpeciesGrazer                  // consumes producers
	SpeciesPredator                // hunts grazers
)

// All lists every species in trophic order.
var All = []Species{SpeciesProducer, SpeciesGrazer, SpeciesPredator}

// String returns the lowercase species name.
func (s Species) String() string {
	switch s {
	case SpeciesProducer:
		return "producer"
	case SpeciesGrazer:
		return "grazer"
	case SpeciesPredator:
		return "predator"
	default:
		return fmt.Sprintf("species(%d)", uint8(s))
	}
}

// ParseSpecies converts a config or CLI name into a Species.
func ParseSpecies(name string) (Species, error) {
	switch name {
	case "producer":
		return SpeciesProducer, nil
	case "grazer":
		return SpeciesGrazer, nil
	case "predator":
		return SpeciesPredator, nil
	default:
		return 0, fmt.Errorf("unknown species %q", name)
	}
}

// TraitFloor is the lower bound every continuous trait is clamped to after a
// mutation draw.
const TraitFloor = 0.01

// Mutate perturbs a trait value with probability rate. The perturbation is
// Gaussian with a standard deviation proportional to the trait's magnitude,
// so large traits drift in larger absolute steps. The result never drops
// below TraitFloor. All randomness comes from the supplied generator.
func Mutate(rng *rand.Rand, value, rate float64) float64 {
	if rng.Float64() >= rate {
		return value
	}

	noise := distuv.Normal{
		Mu:    0,
		Sigma: 0.1*value + 0.01,
		Src:   rng,
	}

	mutated := value + noise.Rand()
	if mutated < TraitFloor {
		return TraitFloor
	}
	return mutated
}
