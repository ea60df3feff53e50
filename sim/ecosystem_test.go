package sim

import (
	"math"
	"reflect"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/pthm-cable/foodweb/traits"
)

func newTestEcosystem(t *testing.T, seed uint64) *Ecosystem {
	t.Helper()
	return New(rand.New(rand.NewSource(seed)))
}

func addProducer(t *testing.T, e *Ecosystem, cfg ProducerConfig) *Organism {
	t.Helper()
	o, err := NewProducer(cfg)
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	if err := e.Add(o); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return o
}

func addGrazer(t *testing.T, e *Ecosystem, cfg GrazerConfig) *Organism {
	t.Helper()
	o, err := NewGrazer(cfg)
	if err != nil {
		t.Fatalf("NewGrazer: %v", err)
	}
	if err := e.Add(o); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return o
}

func addPredator(t *testing.T, e *Ecosystem, cfg PredatorConfig) *Organism {
	t.Helper()
	o, err := NewPredator(cfg)
	if err != nil {
		t.Fatalf("NewPredator: %v", err)
	}
	if err := e.Add(o); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return o
}

func TestAddAssignsMonotonicIDs(t *testing.T) {
	e := newTestEcosystem(t, 1)

	var last uint64
	for i := 0; i < 10; i++ {
		o := addProducer(t, e, DefaultProducerConfig())
		if o.ID <= last {
			t.Fatalf("ID %d not greater than previous %d", o.ID, last)
		}
		last = o.ID
	}
}

func TestAddRejectsNilAndDead(t *testing.T) {
	e := newTestEcosystem(t, 1)

	if err := e.Add(nil); err == nil {
		t.Error("Add(nil) should fail")
	}

	o, err := NewProducer(DefaultProducerConfig())
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	o.kill()
	if err := e.Add(o); err == nil {
		t.Error("adding a dead organism should fail")
	}
}

func TestEmptyEcosystemHalts(t *testing.T) {
	e := newTestEcosystem(t, 1)

	if e.Step() {
		t.Error("Step on an empty population should return false")
	}
	if e.StepCount() != 1 {
		t.Errorf("step count = %d, want 1", e.StepCount())
	}
}

// One predator, no grazers: pure metabolic decay until starvation.
func TestPredatorStarvationScenario(t *testing.T) {
	e := newTestEcosystem(t, 1)
	addPredator(t, e, PredatorConfig{
		Energy:           3,
		MaxAge:           10,
		ReproductionCost: 50,
		MutationRate:     0.1,
		HuntingSkill:     0.6,
	})

	for step, wantEnergy := range []float64{2, 1} {
		if !e.Step() {
			t.Fatalf("step %d: population should survive", step+1)
		}
		snap := e.Snapshot()
		if len(snap) != 1 {
			t.Fatalf("step %d: population size = %d, want 1", step+1, len(snap))
		}
		if snap[0].Energy != wantEnergy {
			t.Errorf("step %d: energy = %v, want %v", step+1, snap[0].Energy, wantEnergy)
		}
	}

	if e.Step() {
		t.Error("step 3: predator at energy 0 must die and empty the population")
	}
	if e.Len() != 0 {
		t.Errorf("dead predator not pruned, population = %d", e.Len())
	}
}

// Exact energy bookkeeping for a grazing interaction, with the acting order
// fixed as producer first, grazer second.
func TestGrazeScenario(t *testing.T) {
	e := newTestEcosystem(t, 1)

	producer := addProducer(t, e, ProducerConfig{
		Energy:           10,
		MaxAge:           30,
		ReproductionCost: 5,
		MutationRate:     0.1,
		GrowthRate:       2,
	})
	grazer := addGrazer(t, e, GrazerConfig{
		Energy:            50,
		MaxAge:            40,
		ReproductionCost:  20,
		MutationRate:      0.1,
		GrazingEfficiency: 0.7,
		EvasionSkill:      0.3,
	})

	// Drive the update phase directly so shuffle order cannot flip who acts
	// first.
	if !e.updateOrganism(producer) {
		t.Fatal("producer should survive its turn")
	}
	if producer.Energy != 11 {
		t.Errorf("producer energy = %v, want 10-1+2 = 11", producer.Energy)
	}

	if !e.updateOrganism(grazer) {
		t.Fatal("grazer should survive its turn")
	}
	if math.Abs(grazer.Energy-56.7) > 1e-9 {
		t.Errorf("grazer energy = %v, want 49 + 11*0.7 = 56.7", grazer.Energy)
	}
	if producer.Energy != 0 {
		t.Errorf("producer energy = %v, want fully drained", producer.Energy)
	}
	if producer.Alive {
		t.Error("a fully drained producer dies immediately")
	}
}

// A producer with no interactions gains exactly growth minus metabolism.
func TestProducerEnergyAccounting(t *testing.T) {
	e := newTestEcosystem(t, 1)
	producer := addProducer(t, e, ProducerConfig{
		Energy:           10,
		MaxAge:           100,
		ReproductionCost: 50,
		MutationRate:     0.1,
		GrowthRate:       2.5,
	})

	before := producer.Energy
	if !e.Step() {
		t.Fatal("producer should survive")
	}
	if producer.Energy != before-1+2.5 {
		t.Errorf("energy = %v, want %v", producer.Energy, before-1+2.5)
	}
	if producer.Age != 1 {
		t.Errorf("age = %d, want 1", producer.Age)
	}
}

func TestMaxAgeDeath(t *testing.T) {
	e := newTestEcosystem(t, 1)
	addProducer(t, e, ProducerConfig{
		Energy:           100,
		MaxAge:           2,
		ReproductionCost: 500,
		MutationRate:     0.1,
		GrowthRate:       2,
	})

	// Survives while age <= max age, dies on the step that pushes past it.
	for step := 1; step <= 2; step++ {
		if !e.Step() {
			t.Fatalf("step %d: producer should still be within max age", step)
		}
	}
	if e.Step() {
		t.Error("producer past max age must die")
	}
}

func TestHuntGuaranteedKill(t *testing.T) {
	e := newTestEcosystem(t, 1)

	grazer := addGrazer(t, e, GrazerConfig{
		Energy:            50,
		MaxAge:            40,
		ReproductionCost:  20,
		MutationRate:      0.1,
		GrazingEfficiency: 0.7,
		EvasionSkill:      0, // success probability 1 - 0 = 1
	})
	predator := addPredator(t, e, PredatorConfig{
		Energy:           20,
		MaxAge:           50,
		ReproductionCost: 30,
		MutationRate:     0.1,
		HuntingSkill:     1,
	})

	// Grazer acts first: no producers to graze, so it only pays metabolism.
	if !e.updateOrganism(grazer) {
		t.Fatal("grazer should survive its own turn")
	}
	if !e.updateOrganism(predator) {
		t.Fatal("predator should survive its turn")
	}

	if grazer.Alive {
		t.Error("a guaranteed hunt must kill the grazer")
	}
	want := 20.0 - 1 + 0.8*49
	if math.Abs(predator.Energy-want) > 1e-9 {
		t.Errorf("predator energy = %v, want %v", predator.Energy, want)
	}
}

func TestHuntGuaranteedMiss(t *testing.T) {
	e := newTestEcosystem(t, 1)

	grazer := addGrazer(t, e, GrazerConfig{
		Energy:            50,
		MaxAge:            40,
		ReproductionCost:  20,
		MutationRate:      0.1,
		GrazingEfficiency: 0.7,
		EvasionSkill:      0.9, // evasion exceeds skill: probability floored at 0
	})
	predator := addPredator(t, e, PredatorConfig{
		Energy:           20,
		MaxAge:           50,
		ReproductionCost: 30,
		MutationRate:     0.1,
		HuntingSkill:     0.5,
	})

	if !e.updateOrganism(grazer) {
		t.Fatal("grazer should survive its own turn")
	}
	if !e.updateOrganism(predator) {
		t.Fatal("predator should survive its turn")
	}

	if !grazer.Alive {
		t.Error("hunt with zero success probability must not kill")
	}
	if predator.Energy != 19 {
		t.Errorf("failed hunt costs nothing beyond metabolism: energy = %v", predator.Energy)
	}
}

// Organisms killed mid-step are unreachable through the resolver and removed
// by the prune, and never come back.
func TestDeathMonotonicity(t *testing.T) {
	e := newTestEcosystem(t, 1)

	producer := addProducer(t, e, ProducerConfig{
		Energy:           5, // drained to 0 by a single graze
		MaxAge:           30,
		ReproductionCost: 5,
		MutationRate:     0.1,
		GrowthRate:       2,
	})
	grazer := addGrazer(t, e, GrazerConfig{
		Energy:            50,
		MaxAge:            40,
		ReproductionCost:  40,
		MutationRate:      0.1,
		GrazingEfficiency: 0.7,
		EvasionSkill:      0.3,
	})

	e.updateOrganism(producer)
	e.updateOrganism(grazer)
	if producer.Alive {
		t.Fatal("producer should have been drained and killed")
	}

	if got := e.findTarget(grazer, traits.SpeciesProducer); got != nil {
		t.Error("resolver must never return a dead organism")
	}

	// The next full step prunes the corpse.
	if !e.Step() {
		t.Fatal("grazer should keep the population alive")
	}
	for _, s := range e.Snapshot() {
		if s.ID == producer.ID {
			t.Error("dead producer still present after prune")
		}
	}
}

func TestResolverExcludesSeeker(t *testing.T) {
	e := newTestEcosystem(t, 1)
	p1 := addProducer(t, e, DefaultProducerConfig())

	if got := e.findTarget(p1, traits.SpeciesProducer); got != nil {
		t.Error("the only candidate is the seeker itself; resolver must return nil")
	}

	p2 := addProducer(t, e, DefaultProducerConfig())
	for i := 0; i < 50; i++ {
		got := e.findTarget(p1, traits.SpeciesProducer)
		if got != p2 {
			t.Fatalf("resolver returned %v, want the other producer", got)
		}
	}
}

func TestResolverFiltersSpecies(t *testing.T) {
	e := newTestEcosystem(t, 1)
	grazer := addGrazer(t, e, DefaultGrazerConfig())
	addPredator(t, e, DefaultPredatorConfig())

	if got := e.findTarget(grazer, traits.SpeciesProducer); got != nil {
		t.Error("no producers exist; resolver must return nil")
	}
}

func TestReproductionDuringStep(t *testing.T) {
	e := newTestEcosystem(t, 1)
	parent := addProducer(t, e, ProducerConfig{
		Energy:           100,
		MaxAge:           50,
		ReproductionCost: 5,
		MutationRate:     0, // offspring is an exact clone
		GrowthRate:       2,
	})

	if !e.Step() {
		t.Fatal("population should survive")
	}
	if e.Len() != 2 {
		t.Fatalf("population = %d, want parent plus offspring", e.Len())
	}

	for _, s := range e.Snapshot() {
		if s.ID == parent.ID {
			continue
		}
		if s.Age != 0 {
			t.Errorf("offspring age = %d, want 0 (no turn in its birth step)", s.Age)
		}
		if s.Energy != 5 {
			t.Errorf("offspring energy = %v, want the reproduction cost 5", s.Energy)
		}
		if s.ID <= parent.ID {
			t.Errorf("offspring ID %d not greater than parent ID %d", s.ID, parent.ID)
		}
	}
}

func TestIDsUniqueAndOrderedAcrossRun(t *testing.T) {
	e := newTestEcosystem(t, 11)
	for i := 0; i < 5; i++ {
		addProducer(t, e, ProducerConfig{
			Energy:           60,
			MaxAge:           50,
			ReproductionCost: 5,
			MutationRate:     0.1,
			GrowthRate:       3,
		})
	}

	known := make(map[uint64]bool)
	var maxID uint64
	record := func() {
		prevMax := maxID
		var fresh []uint64
		for _, s := range e.Snapshot() {
			if !known[s.ID] {
				fresh = append(fresh, s.ID)
			}
		}
		for _, id := range fresh {
			if id <= prevMax {
				t.Fatalf("new ID %d not greater than earlier max %d", id, prevMax)
			}
			known[id] = true
			if id > maxID {
				maxID = id
			}
		}
	}
	record()

	for i := 0; i < 30 && e.Step(); i++ {
		record()
	}
	if len(known) <= 5 {
		t.Fatal("expected reproduction to create new organisms in this run")
	}
}

func TestDeterminism(t *testing.T) {
	build := func(seed uint64) *Ecosystem {
		e := New(rand.New(rand.NewSource(seed)))
		for i := 0; i < 8; i++ {
			addProducer(t, e, DefaultProducerConfig())
		}
		for i := 0; i < 4; i++ {
			addGrazer(t, e, DefaultGrazerConfig())
		}
		for i := 0; i < 2; i++ {
			addPredator(t, e, DefaultPredatorConfig())
		}
		return e
	}

	a := build(99)
	b := build(99)

	for step := 0; step < 50; step++ {
		ra, rb := a.Step(), b.Step()
		if ra != rb {
			t.Fatalf("step %d: continue flags diverged", step+1)
		}
		if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
			t.Fatalf("step %d: snapshots diverged", step+1)
		}
		if !ra {
			break
		}
	}
}

func TestTraitMeans(t *testing.T) {
	e := newTestEcosystem(t, 1)

	if tm := e.TraitMeans(); tm != (TraitMeans{}) {
		t.Errorf("empty population trait means = %+v, want zero", tm)
	}

	cfgA := DefaultProducerConfig()
	cfgA.GrowthRate = 2
	cfgB := DefaultProducerConfig()
	cfgB.GrowthRate = 4
	addProducer(t, e, cfgA)
	addProducer(t, e, cfgB)
	addPredator(t, e, DefaultPredatorConfig())

	tm := e.TraitMeans()
	if tm.GrowthRate != 3 {
		t.Errorf("growth rate mean = %v, want 3", tm.GrowthRate)
	}
	if tm.HuntingSkill != DefaultPredatorConfig().HuntingSkill {
		t.Errorf("hunting skill mean = %v, want %v", tm.HuntingSkill, DefaultPredatorConfig().HuntingSkill)
	}
	if tm.GrazingEfficiency != 0 || tm.EvasionSkill != 0 {
		t.Errorf("grazer trait means = %+v, want zero with no grazers", tm)
	}
}

func TestCountBySpecies(t *testing.T) {
	e := newTestEcosystem(t, 1)
	addProducer(t, e, DefaultProducerConfig())
	addProducer(t, e, DefaultProducerConfig())
	addGrazer(t, e, DefaultGrazerConfig())

	counts := e.CountBySpecies()
	if counts[traits.SpeciesProducer] != 2 || counts[traits.SpeciesGrazer] != 1 || counts[traits.SpeciesPredator] != 0 {
		t.Errorf("counts = %v", counts)
	}
}
