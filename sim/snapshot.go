package sim

import "github.com/pthm-cable/foodweb/traits"

// OrganismState is a read-only copy of one organism for reporting. The
// species-specific trait fields are zero for the variants that do not
// declare them.
type OrganismState struct {
	ID      uint64
	Species traits.Species
	Energy  float64
	Age     int

	MaxAge           float64
	ReproductionCost float64
	MutationRate     float64

	GrowthRate        float64
	GrazingEfficiency float64
	EvasionSkill      float64
	HuntingSkill      float64
}

// Snapshot returns value copies of the current population in its current
// (post-shuffle) order. Mutating the result has no effect on the
// simulation.
func (e *Ecosystem) Snapshot() []OrganismState {
	states := make([]OrganismState, len(e.organisms))
	for i, o := range e.organisms {
		states[i] = OrganismState{
			ID:                o.ID,
			Species:           o.Species,
			Energy:            o.Energy,
			Age:               o.Age,
			MaxAge:            o.MaxAge,
			ReproductionCost:  o.ReproductionCost,
			MutationRate:      o.MutationRate,
			GrowthRate:        o.GrowthRate,
			GrazingEfficiency: o.GrazingEfficiency,
			EvasionSkill:      o.EvasionSkill,
			HuntingSkill:      o.HuntingSkill,
		}
	}
	return states
}

// EnergyBySpecies returns the energy values of living organisms grouped by
// species, for aggregate statistics.
func (e *Ecosystem) EnergyBySpecies() map[traits.Species][]float64 {
	energies := make(map[traits.Species][]float64, len(traits.All))
	for _, o := range e.organisms {
		energies[o.Species] = append(energies[o.Species], o.Energy)
	}
	return energies
}

// TraitMeans holds per-species averages of the behavioral traits, for
// tracking heritable drift over a run. A species with no living members
// reports zero.
type TraitMeans struct {
	GrowthRate        float64
	GrazingEfficiency float64
	EvasionSkill      float64
	HuntingSkill      float64
}

// TraitMeans averages the behavioral traits over the current population.
func (e *Ecosystem) TraitMeans() TraitMeans {
	var tm TraitMeans
	var producers, grazers, predators int
	for _, o := range e.organisms {
		switch o.Species {
		case traits.SpeciesProducer:
			tm.GrowthRate += o.GrowthRate
			producers++
		case traits.SpeciesGrazer:
			tm.GrazingEfficiency += o.GrazingEfficiency
			tm.EvasionSkill += o.EvasionSkill
			grazers++
		case traits.SpeciesPredator:
			tm.HuntingSkill += o.HuntingSkill
			predators++
		}
	}
	if producers > 0 {
		tm.GrowthRate /= float64(producers)
	}
	if grazers > 0 {
		tm.GrazingEfficiency /= float64(grazers)
		tm.EvasionSkill /= float64(grazers)
	}
	if predators > 0 {
		tm.HuntingSkill /= float64(predators)
	}
	return tm
}
