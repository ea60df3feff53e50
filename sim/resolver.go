package sim

import "github.com/pthm-cable/foodweb/traits"

// findTarget uniformly samples a currently-alive organism of the requested
// species, excluding the seeker. Organisms killed earlier in the same step
// are never candidates. Returns nil when no candidate exists.
//
// Selection is population-wide: the configured grid size deliberately does
// not constrain it.
func (e *Ecosystem) findTarget(seeker *Organism, sp traits.Species) *Organism {
	var candidates []*Organism
	for _, o := range e.organisms {
		if o == seeker || !o.Alive || o.Species != sp {
			continue
		}
		candidates = append(candidates, o)
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[e.rng.Intn(len(candidates))]
}
