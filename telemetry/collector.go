package telemetry

import "github.com/pthm-cable/foodweb/traits"

// Collector accumulates lifecycle and interaction events within step windows
// and produces WindowStats. It satisfies the ecosystem's Recorder interface
// and only ever reads simulation data handed to it at flush time.
type Collector struct {
	windowSteps int
	windowStart int

	births [3]int
	deaths [3]int

	grazes       int
	energyGrazed float64

	huntsAttempted int
	huntsSucceeded int
}

// NewCollector creates a collector flushing every windowSteps steps.
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{windowSteps: windowSteps}
}

// RecordBirth records an offspring admission.
func (c *Collector) RecordBirth(sp traits.Species) {
	c.births[sp]++
}

// RecordDeath records a death, whatever its cause.
func (c *Collector) RecordDeath(sp traits.Species) {
	c.deaths[sp]++
}

// RecordGraze records a grazing interaction and the energy consumed.
func (c *Collector) RecordGraze(consumed float64) {
	c.grazes++
	c.energyGrazed += consumed
}

// RecordHunt records a hunt attempt and its outcome.
func (c *Collector) RecordHunt(success bool) {
	c.huntsAttempted++
	if success {
		c.huntsSucceeded++
	}
}

// ShouldFlush returns true once enough steps have passed to close the
// current window.
func (c *Collector) ShouldFlush(step int) bool {
	return step-c.windowStart >= c.windowSteps
}

// Flush produces a WindowStats for the closing window and resets all
// counters. The caller supplies the current population counts, energy values
// per species, and trait means.
func (c *Collector) Flush(step int, counts map[traits.Species]int, energies map[traits.Species][]float64, tm TraitMeans) WindowStats {
	var successRate float64
	if c.huntsAttempted > 0 {
		successRate = float64(c.huntsSucceeded) / float64(c.huntsAttempted)
	}

	producer := Summarize(energies[traits.SpeciesProducer])
	grazer := Summarize(energies[traits.SpeciesGrazer])
	predator := Summarize(energies[traits.SpeciesPredator])

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   step,

		Producers: counts[traits.SpeciesProducer],
		Grazers:   counts[traits.SpeciesGrazer],
		Predators: counts[traits.SpeciesPredator],

		ProducerBirths: c.births[traits.SpeciesProducer],
		GrazerBirths:   c.births[traits.SpeciesGrazer],
		PredatorBirths: c.births[traits.SpeciesPredator],
		ProducerDeaths: c.deaths[traits.SpeciesProducer],
		GrazerDeaths:   c.deaths[traits.SpeciesGrazer],
		PredatorDeaths: c.deaths[traits.SpeciesPredator],

		Grazes:       c.grazes,
		EnergyGrazed: c.energyGrazed,

		HuntsAttempted:  c.huntsAttempted,
		HuntsSucceeded:  c.huntsSucceeded,
		HuntSuccessRate: successRate,

		ProducerEnergyMean: producer.Mean,
		ProducerEnergyStd:  producer.Std,
		ProducerEnergyP10:  producer.P10,
		ProducerEnergyP50:  producer.P50,
		ProducerEnergyP90:  producer.P90,

		GrazerEnergyMean: grazer.Mean,
		GrazerEnergyStd:  grazer.Std,
		GrazerEnergyP10:  grazer.P10,
		GrazerEnergyP50:  grazer.P50,
		GrazerEnergyP90:  grazer.P90,

		PredatorEnergyMean: predator.Mean,
		PredatorEnergyStd:  predator.Std,
		PredatorEnergyP10:  predator.P10,
		PredatorEnergyP50:  predator.P50,
		PredatorEnergyP90:  predator.P90,

		GrowthRateMean:        tm.GrowthRate,
		GrazingEfficiencyMean: tm.GrazingEfficiency,
		EvasionSkillMean:      tm.EvasionSkill,
		HuntingSkillMean:      tm.HuntingSkill,
	}

	c.windowStart = step
	c.births = [3]int{}
	c.deaths = [3]int{}
	c.grazes = 0
	c.energyGrazed = 0
	c.huntsAttempted = 0
	c.huntsSucceeded = 0

	return stats
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}
