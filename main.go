package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/exp/rand"

	"github.com/pthm-cable/foodweb/config"
	"github.com/pthm-cable/foodweb/sim"
	"github.com/pthm-cable/foodweb/storage"
	"github.com/pthm-cable/foodweb/telemetry"
	"github.com/pthm-cable/foodweb/traits"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxSteps := flag.Int("max-steps", 0, "Stop after N steps (0 = use config)")
	producers := flag.Int("producers", 0, "Initial producer count (0 = use config)")
	grazers := flag.Int("grazers", 0, "Initial grazer count (0 = use config)")
	predators := flag.Int("predators", 0, "Initial predator count (0 = use config)")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in steps (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dbPath := flag.String("db", "", "SQLite database for run results (empty = disabled)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// CLI overrides onto the effective config
	if *producers > 0 {
		cfg.Population.Producers = *producers
	}
	if *grazers > 0 {
		cfg.Population.Grazers = *grazers
	}
	if *predators > 0 {
		cfg.Population.Predators = *predators
	}
	if *maxSteps > 0 {
		cfg.Population.MaxSteps = *maxSteps
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	// Set up seed; everything stochastic flows from this one generator.
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(uint64(rngSeed)))

	collector := telemetry.NewCollector(cfg.Telemetry.StatsWindow)
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)

	eco := sim.NewWithOptions(rng, sim.Options{Recorder: collector})
	if err := seedPopulation(eco, cfg); err != nil {
		slog.Error("invalid species configuration", "error", err)
		os.Exit(1)
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to initialize output", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	// Cancellation is cooperative and only checked between steps.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store *storage.ResultStore
		runID string
	)
	if *dbPath != "" {
		store = storage.NewResultStore(*dbPath)
		if err := store.Init(ctx); err != nil {
			slog.Error("failed to open results database", "error", err)
			os.Exit(1)
		}
		defer store.Close()

		cfgYAML, err := cfg.YAML()
		if err != nil {
			slog.Error("failed to render config", "error", err)
			os.Exit(1)
		}
		runID, err = store.CreateRun(ctx, rngSeed, string(cfgYAML))
		if err != nil {
			slog.Error("failed to create run record", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_steps", cfg.Population.MaxSteps,
		"producers", cfg.Population.Producers,
		"grazers", cfg.Population.Grazers,
		"predators", cfg.Population.Predators,
		"stats_window", cfg.Telemetry.StatsWindow,
	)

	start := time.Now()
	alive := true

	for alive && eco.StepCount() < cfg.Population.MaxSteps {
		if ctx.Err() != nil {
			slog.Info("interrupted", "step", eco.StepCount())
			break
		}

		perf.StartStep()
		alive = eco.Step()
		perf.EndStep()
		step := eco.StepCount()

		if collector.ShouldFlush(step) {
			tm := eco.TraitMeans()
			stats := collector.Flush(step, eco.CountBySpecies(), eco.EnergyBySpecies(), telemetry.TraitMeans{
				GrowthRate:        tm.GrowthRate,
				GrazingEfficiency: tm.GrazingEfficiency,
				EvasionSkill:      tm.EvasionSkill,
				HuntingSkill:      tm.HuntingSkill,
			})
			if *logStats {
				stats.LogStats()
				perf.Stats().LogStats()
			}
			if err := out.WriteTelemetry(stats); err != nil {
				slog.Error("failed to write telemetry", "error", err)
			}
			if err := out.WritePerf(perf.Stats(), step); err != nil {
				slog.Error("failed to write perf stats", "error", err)
			}
			if store != nil {
				if err := store.SaveWindow(context.Background(), runID, stats); err != nil {
					slog.Error("failed to save window stats", "error", err)
				}
			}
		}
	}

	if !alive {
		slog.Info("population extinct", "step", eco.StepCount())
	}

	if store != nil {
		if err := store.FinishRun(context.Background(), runID, eco.StepCount(), eco.Len()); err != nil {
			slog.Error("failed to finish run record", "error", err)
		}
	}

	counts := eco.CountBySpecies()
	slog.Info("simulation finished",
		"steps", humanize.Comma(int64(eco.StepCount())),
		"population", humanize.Comma(int64(eco.Len())),
		"producers", counts[traits.SpeciesProducer],
		"grazers", counts[traits.SpeciesGrazer],
		"predators", counts[traits.SpeciesPredator],
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
}

// seedPopulation constructs the initial organisms from the configured trait
// tables.
func seedPopulation(eco *sim.Ecosystem, cfg *config.Config) error {
	producerCfg := sim.ProducerConfig{
		Energy:           cfg.Species.Producer.Energy,
		MaxAge:           cfg.Species.Producer.MaxAge,
		ReproductionCost: cfg.Species.Producer.ReproductionCost,
		MutationRate:     cfg.Species.Producer.MutationRate,
		GrowthRate:       cfg.Species.Producer.GrowthRate,
	}
	for i := 0; i < cfg.Population.Producers; i++ {
		o, err := sim.NewProducer(producerCfg)
		if err != nil {
			return err
		}
		if err := eco.Add(o); err != nil {
			return err
		}
	}

	grazerCfg := sim.GrazerConfig{
		Energy:            cfg.Species.Grazer.Energy,
		MaxAge:            cfg.Species.Grazer.MaxAge,
		ReproductionCost:  cfg.Species.Grazer.ReproductionCost,
		MutationRate:      cfg.Species.Grazer.MutationRate,
		GrazingEfficiency: cfg.Species.Grazer.GrazingEfficiency,
		EvasionSkill:      cfg.Species.Grazer.EvasionSkill,
	}
	for i := 0; i < cfg.Population.Grazers; i++ {
		o, err := sim.NewGrazer(grazerCfg)
		if err != nil {
			return err
		}
		if err := eco.Add(o); err != nil {
			return err
		}
	}

	predatorCfg := sim.PredatorConfig{
		Energy:           cfg.Species.Predator.Energy,
		MaxAge:           cfg.Species.Predator.MaxAge,
		ReproductionCost: cfg.Species.Predator.ReproductionCost,
		MutationRate:     cfg.Species.Predator.MutationRate,
		HuntingSkill:     cfg.Species.Predator.HuntingSkill,
	}
	for i := 0; i < cfg.Population.Predators; i++ {
		o, err := sim.NewPredator(predatorCfg)
		if err != nil {
			return err
		}
		if err := eco.Add(o); err != nil {
			return err
		}
	}

	return nil
}
