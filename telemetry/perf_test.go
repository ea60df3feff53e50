package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorEmpty(t *testing.T) {
	p := NewPerfCollector(10)
	stats := p.Stats()
	if stats.AvgStepDuration != 0 || stats.StepsPerSecond != 0 {
		t.Errorf("empty collector should report zero stats: %+v", stats)
	}
}

func TestPerfCollectorRecordsSamples(t *testing.T) {
	p := NewPerfCollector(10)

	for i := 0; i < 3; i++ {
		p.StartStep()
		time.Sleep(time.Millisecond)
		p.EndStep()
	}

	stats := p.Stats()
	if stats.AvgStepDuration < time.Millisecond {
		t.Errorf("avg step duration = %v, want at least 1ms", stats.AvgStepDuration)
	}
	if stats.MinStepDuration > stats.MaxStepDuration {
		t.Errorf("min %v greater than max %v", stats.MinStepDuration, stats.MaxStepDuration)
	}
	if stats.StepsPerSecond <= 0 {
		t.Errorf("steps per second = %v, want positive", stats.StepsPerSecond)
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	p := NewPerfCollector(4)

	// More samples than the window holds; old ones must be overwritten, not
	// accumulated.
	for i := 0; i < 10; i++ {
		p.StartStep()
		p.EndStep()
	}
	if p.sampleCount != 4 {
		t.Errorf("sample count = %d, want capped at window size 4", p.sampleCount)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	stats := PerfStats{
		AvgStepDuration: 1500 * time.Microsecond,
		MinStepDuration: time.Millisecond,
		MaxStepDuration: 2 * time.Millisecond,
		StepsPerSecond:  666.6,
	}

	row := stats.ToCSV(42)
	if row.WindowEnd != 42 {
		t.Errorf("window end = %d, want 42", row.WindowEnd)
	}
	if row.AvgStepUS != 1500 || row.MinStepUS != 1000 || row.MaxStepUS != 2000 {
		t.Errorf("microsecond conversion wrong: %+v", row)
	}
}
