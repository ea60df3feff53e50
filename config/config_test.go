package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Population.Producers <= 0 || cfg.Population.Grazers <= 0 || cfg.Population.Predators <= 0 {
		t.Errorf("default population counts must be positive: %+v", cfg.Population)
	}
	if cfg.Species.Producer.GrowthRate != 2 {
		t.Errorf("producer growth rate = %v, want 2", cfg.Species.Producer.GrowthRate)
	}
	if cfg.Species.Grazer.GrazingEfficiency != 0.7 {
		t.Errorf("grazing efficiency = %v, want 0.7", cfg.Species.Grazer.GrazingEfficiency)
	}
	if cfg.Species.Predator.HuntingSkill != 0.6 {
		t.Errorf("hunting skill = %v, want 0.6", cfg.Species.Predator.HuntingSkill)
	}
	if cfg.Telemetry.StatsWindow <= 0 {
		t.Errorf("stats window = %d, want positive", cfg.Telemetry.StatsWindow)
	}
}

func TestLoadMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	override := `
population:
  producers: 3
species:
  predator:
    hunting_skill: 0.9
`
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Population.Producers != 3 {
		t.Errorf("producers = %d, want override 3", cfg.Population.Producers)
	}
	if cfg.Species.Predator.HuntingSkill != 0.9 {
		t.Errorf("hunting skill = %v, want override 0.9", cfg.Species.Predator.HuntingSkill)
	}
	// Fields absent from the override keep their defaults.
	if cfg.Population.Grazers <= 0 {
		t.Errorf("grazers = %d, default lost in merge", cfg.Population.Grazers)
	}
	if cfg.Species.Predator.Energy != 80 {
		t.Errorf("predator energy = %v, default lost in merge", cfg.Species.Predator.Energy)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load should fail on a missing config file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Population.MaxSteps = 123

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if back.Population.MaxSteps != 123 {
		t.Errorf("max steps = %d, want 123", back.Population.MaxSteps)
	}
}
