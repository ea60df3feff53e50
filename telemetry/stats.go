// Package telemetry provides windowed population statistics, performance
// tracking, and structured run output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// EnergySummary holds aggregate statistics for one species' energy values at
// a window boundary.
type EnergySummary struct {
	Mean float64
	Std  float64
	P10  float64
	P50  float64
	P90  float64
}

// Summarize computes mean, standard deviation, and percentiles for a set of
// energy values. Returns the zero summary for an empty input.
func Summarize(values []float64) EnergySummary {
	n := len(values)
	if n == 0 {
		return EnergySummary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	s := EnergySummary{
		Mean: stat.Mean(sorted, nil),
		P10:  stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, sorted, nil),
	}
	if n > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	return s
}

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStart int `csv:"-"`
	WindowEnd   int `csv:"window_end"`

	// Population counts at window end
	Producers int `csv:"producers"`
	Grazers   int `csv:"grazers"`
	Predators int `csv:"predators"`

	// Events during the window
	ProducerBirths int `csv:"producer_births"`
	GrazerBirths   int `csv:"grazer_births"`
	PredatorBirths int `csv:"predator_births"`
	ProducerDeaths int `csv:"producer_deaths"`
	GrazerDeaths   int `csv:"grazer_deaths"`
	PredatorDeaths int `csv:"predator_deaths"`

	Grazes       int     `csv:"grazes"`
	EnergyGrazed float64 `csv:"energy_grazed"`

	HuntsAttempted  int     `csv:"hunts_attempted"`
	HuntsSucceeded  int     `csv:"hunts_succeeded"`
	HuntSuccessRate float64 `csv:"hunt_success_rate"`

	// Energy distribution per species (sampled at window end)
	ProducerEnergyMean float64 `csv:"producer_energy_mean"`
	ProducerEnergyStd  float64 `csv:"producer_energy_std"`
	ProducerEnergyP10  float64 `csv:"producer_energy_p10"`
	ProducerEnergyP50  float64 `csv:"producer_energy_p50"`
	ProducerEnergyP90  float64 `csv:"producer_energy_p90"`

	GrazerEnergyMean float64 `csv:"grazer_energy_mean"`
	GrazerEnergyStd  float64 `csv:"grazer_energy_std"`
	GrazerEnergyP10  float64 `csv:"grazer_energy_p10"`
	GrazerEnergyP50  float64 `csv:"grazer_energy_p50"`
	GrazerEnergyP90  float64 `csv:"grazer_energy_p90"`

	PredatorEnergyMean float64 `csv:"predator_energy_mean"`
	PredatorEnergyStd  float64 `csv:"predator_energy_std"`
	PredatorEnergyP10  float64 `csv:"predator_energy_p10"`
	PredatorEnergyP50  float64 `csv:"predator_energy_p50"`
	PredatorEnergyP90  float64 `csv:"predator_energy_p90"`

	// Mean behavioral traits per species, for tracking drift over a run
	GrowthRateMean        float64 `csv:"growth_rate_mean"`
	GrazingEfficiencyMean float64 `csv:"grazing_efficiency_mean"`
	EvasionSkillMean      float64 `csv:"evasion_skill_mean"`
	HuntingSkillMean      float64 `csv:"hunting_skill_mean"`
}

// TraitMeans holds the per-species averages of the behavioral traits at a
// window boundary.
type TraitMeans struct {
	GrowthRate        float64
	GrazingEfficiency float64
	EvasionSkill      float64
	HuntingSkill      float64
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("producers", s.Producers),
		slog.Int("grazers", s.Grazers),
		slog.Int("predators", s.Predators),
		slog.Int("producer_births", s.ProducerBirths),
		slog.Int("grazer_births", s.GrazerBirths),
		slog.Int("predator_births", s.PredatorBirths),
		slog.Int("producer_deaths", s.ProducerDeaths),
		slog.Int("grazer_deaths", s.GrazerDeaths),
		slog.Int("predator_deaths", s.PredatorDeaths),
		slog.Int("grazes", s.Grazes),
		slog.Float64("energy_grazed", s.EnergyGrazed),
		slog.Int("hunts_attempted", s.HuntsAttempted),
		slog.Int("hunts_succeeded", s.HuntsSucceeded),
		slog.Float64("hunt_success_rate", s.HuntSuccessRate),
		slog.Float64("producer_energy_mean", s.ProducerEnergyMean),
		slog.Float64("grazer_energy_mean", s.GrazerEnergyMean),
		slog.Float64("predator_energy_mean", s.PredatorEnergyMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEnd,
		"producers", s.Producers,
		"grazers", s.Grazers,
		"predators", s.Predators,
		"producer_births", s.ProducerBirths,
		"grazer_births", s.GrazerBirths,
		"predator_births", s.PredatorBirths,
		"producer_deaths", s.ProducerDeaths,
		"grazer_deaths", s.GrazerDeaths,
		"predator_deaths", s.PredatorDeaths,
		"grazes", s.Grazes,
		"energy_grazed", s.EnergyGrazed,
		"hunts_attempted", s.HuntsAttempted,
		"hunts_succeeded", s.HuntsSucceeded,
		"hunt_success_rate", s.HuntSuccessRate,
		"producer_energy_mean", s.ProducerEnergyMean,
		"grazer_energy_mean", s.GrazerEnergyMean,
		"predator_energy_mean", s.PredatorEnergyMean,
	)
}
