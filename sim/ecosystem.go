package sim

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/pthm-cable/foodweb/traits"
)

// Recorder receives lifecycle and interaction events as they happen during a
// step. Implementations must not mutate simulation state. A nil Recorder
// disables event reporting.
type Recorder interface {
	RecordBirth(sp traits.Species)
	RecordDeath(sp traits.Species)
	RecordGraze(consumed float64)
	RecordHunt(success bool)
}

// Options configures an Ecosystem beyond its random source.
type Options struct {
	Recorder Recorder
}

// Ecosystem owns the population and advances it one discrete step at a time.
// It is the sole owner of its organisms; Snapshot returns value copies for
// reporting. All randomness flows through the single generator supplied at
// construction, so a fixed seed and a fixed initial population reproduce an
// identical run.
type Ecosystem struct {
	rng       *rand.Rand
	organisms []*Organism
	stepCount int
	nextID    uint64
	recorder  Recorder
}

// New creates an empty ecosystem driven by the given random source.
func New(rng *rand.Rand) *Ecosystem {
	return NewWithOptions(rng, Options{})
}

// NewWithOptions creates an empty ecosystem with the given options.
func NewWithOptions(rng *rand.Rand, opts Options) *Ecosystem {
	if rng == nil {
		panic("sim: nil random source")
	}
	return &Ecosystem{
		rng:      rng,
		recorder: opts.Recorder,
	}
}

// Add admits an organism into the population and assigns it the next ID.
// IDs increase monotonically across the whole run, offspring included.
// Admitting a dead organism is a configuration error.
func (e *Ecosystem) Add(o *Organism) error {
	if o == nil {
		return errors.New("sim: nil organism")
	}
	if !o.Alive {
		return fmt.Errorf("sim: cannot add dead %s", o.Species)
	}
	e.nextID++
	o.ID = e.nextID
	e.organisms = append(e.organisms, o)
	return nil
}

// StepCount returns the number of completed steps.
func (e *Ecosystem) StepCount() int {
	return e.stepCount
}

// Len returns the current population size.
func (e *Ecosystem) Len() int {
	return len(e.organisms)
}

// CountBySpecies returns the current population count per species.
func (e *Ecosystem) CountBySpecies() map[traits.Species]int {
	counts := make(map[traits.Species]int, len(traits.All))
	for _, o := range e.organisms {
		counts[o.Species]++
	}
	return counts
}

// Step advances the simulation one tick: shuffle, per-organism update and
// interaction, reproduction, prune. Returns true while the population is
// non-empty; the driver owns the decision to stop.
func (e *Ecosystem) Step() bool {
	e.stepCount++

	// The shuffle is the sole source of who acts first this step.
	e.rng.Shuffle(len(e.organisms), func(i, j int) {
		e.organisms[i], e.organisms[j] = e.organisms[j], e.organisms[i]
	})

	// Update phase. Kills by earlier-acting organisms are visible here: an
	// organism killed as a target before its own turn is skipped outright.
	survivors := make([]*Organism, 0, len(e.organisms))
	for _, o := range e.organisms {
		if !o.Alive {
			continue
		}
		if e.updateOrganism(o) {
			survivors = append(survivors, o)
		}
	}

	// Reproduction phase. A survivor may have been killed as a target after
	// its own turn already ran; those never reproduce.
	var offspring []*Organism
	for _, o := range survivors {
		if !o.Alive {
			continue
		}
		child := o.reproduce(e.rng)
		if child == nil {
			continue
		}
		e.nextID++
		child.ID = e.nextID
		offspring = append(offspring, child)
		e.recordBirth(child.Species)
	}
	working := append(survivors, offspring...)

	// Prune phase: drop everything that died this step, whether by its own
	// metabolic check or as somebody's target.
	alive := working[:0]
	for _, o := range working {
		if o.Alive {
			alive = append(alive, o)
		}
	}
	e.organisms = alive

	return len(e.organisms) > 0
}

// updateOrganism runs one organism's turn: aging, metabolic cost, death
// check, then the species behavior. Returns false when the organism died
// during its own turn.
func (e *Ecosystem) updateOrganism(o *Organism) bool {
	o.Age++
	o.Energy -= MetabolicCost
	if o.Energy <= 0 || float64(o.Age) > o.MaxAge {
		o.kill()
		e.recordDeath(o.Species)
		return false
	}

	switch o.Species {
	case traits.SpeciesProducer:
		o.Energy += o.GrowthRate
	case traits.SpeciesGrazer:
		e.graze(o)
	case traits.SpeciesPredator:
		e.hunt(o)
	}
	return true
}

// graze transfers energy from a random living producer, capped per step. A
// producer drained to zero dies immediately, before its own turn.
func (e *Ecosystem) graze(g *Organism) {
	target := e.findTarget(g, traits.SpeciesProducer)
	if target == nil {
		return
	}
	consumed := math.Min(target.Energy, GrazeCap)
	g.Energy += consumed * g.GrazingEfficiency
	target.Energy -= consumed
	e.recordGraze(consumed)
	if target.Energy <= 0 {
		target.kill()
		e.recordDeath(target.Species)
	}
}

// hunt attempts to kill a random living grazer. Success probability is the
// predator's hunting skill minus the target's evasion skill, floored at
// zero. A failed hunt costs nothing beyond the metabolic deduction.
func (e *Ecosystem) hunt(p *Organism) {
	target := e.findTarget(p, traits.SpeciesGrazer)
	if target == nil {
		return
	}
	success := math.Max(0, p.HuntingSkill-target.EvasionSkill)
	hit := e.rng.Float64() < success
	e.recordHunt(hit)
	if !hit {
		return
	}
	p.Energy += HuntYield * target.Energy
	target.kill()
	e.recordDeath(target.Species)
}

func (e *Ecosystem) recordBirth(sp traits.Species) {
	if e.recorder != nil {
		e.recorder.RecordBirth(sp)
	}
}

func (e *Ecosystem) recordDeath(sp traits.Species) {
	if e.recorder != nil {
		e.recorder.RecordDeath(sp)
	}
}

func (e *Ecosystem) recordGraze(consumed float64) {
	if e.recorder != nil {
		e.recorder.RecordGraze(consumed)
	}
}

func (e *Ecosystem) recordHunt(success bool) {
	if e.recorder != nil {
		e.recorder.RecordHunt(success)
	}
}
