package telemetry

import (
	"log/slog"
	"time"
)

// PerfCollector tracks step wall-times over a rolling window.
type PerfCollector struct {
	windowSize  int
	samples     []time.Duration
	writeIndex  int
	sampleCount int
	stepStart   time.Time
}

// NewPerfCollector creates a performance collector averaging over windowSize
// steps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]time.Duration, windowSize),
	}
}

// StartStep begins timing a simulation step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
}

// EndStep finishes timing the current step and records the sample.
func (p *PerfCollector) EndStep() {
	p.samples[p.writeIndex] = time.Since(p.stepStart)
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgStepDuration time.Duration
	MinStepDuration time.Duration
	MaxStepDuration time.Duration
	StepsPerSecond  float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{}
	}

	var total, minStep, maxStep time.Duration
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s
		if i == 0 || s < minStep {
			minStep = s
		}
		if s > maxStep {
			maxStep = s
		}
	}

	avg := total / time.Duration(p.sampleCount)
	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgStepDuration: avg,
		MinStepDuration: minStep,
		MaxStepDuration: maxStep,
		StepsPerSecond:  perSec,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf",
		"avg_step_us", s.AvgStepDuration.Microseconds(),
		"min_step_us", s.MinStepDuration.Microseconds(),
		"max_step_us", s.MaxStepDuration.Microseconds(),
		"steps_per_sec", int(s.StepsPerSecond),
	)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd   int     `csv:"window_end"`
	AvgStepUS   int64   `csv:"avg_step_us"`
	MinStepUS   int64   `csv:"min_step_us"`
	MaxStepUS   int64   `csv:"max_step_us"`
	StepsPerSec float64 `csv:"steps_per_sec"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:   windowEnd,
		AvgStepUS:   s.AvgStepDuration.Microseconds(),
		MinStepUS:   s.MinStepDuration.Microseconds(),
		MaxStepUS:   s.MaxStepDuration.Microseconds(),
		StepsPerSec: s.StepsPerSecond,
	}
}
