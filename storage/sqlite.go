// Package storage records run results in a SQLite database. It stores
// telemetry only; simulation state itself is never persisted.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/foodweb/telemetry"
)

// ResultStore writes run metadata and window statistics to SQLite.
type ResultStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// Run holds the metadata for one recorded simulation run.
type Run struct {
	ID              string
	Seed            int64
	Config          string
	StartedAt       time.Time
	FinishedAt      time.Time
	FinalStep       int
	FinalPopulation int
}

// NewResultStore creates a store backed by the database file at path.
func NewResultStore(path string) *ResultStore {
	return &ResultStore{path: path}
}

// Init opens the database and creates the schema if needed.
func (s *ResultStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// CreateRun inserts a new run row and returns its generated ID.
func (s *ResultStore) CreateRun(ctx context.Context, seed int64, configYAML string) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, config, started_at)
		VALUES (?, ?, ?, ?)
	`, id, seed, configYAML, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SaveWindow appends one window stats record for the run.
func (s *ResultStore) SaveWindow(ctx context.Context, runID string, stats telemetry.WindowStats) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO window_stats (
			run_id, window_end,
			producers, grazers, predators,
			births, deaths,
			grazes, energy_grazed,
			hunts_attempted, hunts_succeeded,
			producer_energy_mean, grazer_energy_mean, predator_energy_mean
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, window_end) DO UPDATE SET
			producers = excluded.producers,
			grazers = excluded.grazers,
			predators = excluded.predators,
			births = excluded.births,
			deaths = excluded.deaths,
			grazes = excluded.grazes,
			energy_grazed = excluded.energy_grazed,
			hunts_attempted = excluded.hunts_attempted,
			hunts_succeeded = excluded.hunts_succeeded,
			producer_energy_mean = excluded.producer_energy_mean,
			grazer_energy_mean = excluded.grazer_energy_mean,
			predator_energy_mean = excluded.predator_energy_mean
	`,
		runID, stats.WindowEnd,
		stats.Producers, stats.Grazers, stats.Predators,
		stats.ProducerBirths+stats.GrazerBirths+stats.PredatorBirths,
		stats.ProducerDeaths+stats.GrazerDeaths+stats.PredatorDeaths,
		stats.Grazes, stats.EnergyGrazed,
		stats.HuntsAttempted, stats.HuntsSucceeded,
		stats.ProducerEnergyMean, stats.GrazerEnergyMean, stats.PredatorEnergyMean,
	)
	if err != nil {
		return fmt.Errorf("insert window stats: %w", err)
	}
	return nil
}

// FinishRun marks the run as finished with its final step and population.
func (s *ResultStore) FinishRun(ctx context.Context, runID string, finalStep, finalPopulation int) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, final_step = ?, final_population = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), finalStep, finalPopulation, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// GetRun fetches a run's metadata. The second return value reports whether
// the run exists.
func (s *ResultStore) GetRun(ctx context.Context, runID string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	var (
		run         Run
		startedAt   string
		finishedAt  sql.NullString
		finalStep   sql.NullInt64
		finalPopNum sql.NullInt64
	)
	err = db.QueryRowContext(ctx, `
		SELECT id, seed, config, started_at, finished_at, final_step, final_population
		FROM runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.Seed, &run.Config, &startedAt, &finishedAt, &finalStep, &finalPopNum)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}

	run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return Run{}, false, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt, err = time.Parse(time.RFC3339, finishedAt.String)
		if err != nil {
			return Run{}, false, fmt.Errorf("parse finished_at: %w", err)
		}
	}
	run.FinalStep = int(finalStep.Int64)
	run.FinalPopulation = int(finalPopNum.Int64)
	return run, true, nil
}

// CountWindows returns the number of window stats rows stored for a run.
func (s *ResultStore) CountWindows(ctx context.Context, runID string) (int, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}

	var count int
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM window_stats WHERE run_id = ?
	`, runID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Close closes the underlying database.
func (s *ResultStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *ResultStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			config TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			final_step INTEGER,
			final_population INTEGER
		);
		CREATE TABLE IF NOT EXISTS window_stats (
			run_id TEXT NOT NULL,
			window_end INTEGER NOT NULL,
			producers INTEGER NOT NULL,
			grazers INTEGER NOT NULL,
			predators INTEGER NOT NULL,
			births INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			grazes INTEGER NOT NULL,
			energy_grazed REAL NOT NULL,
			hunts_attempted INTEGER NOT NULL,
			hunts_succeeded INTEGER NOT NULL,
			producer_energy_mean REAL NOT NULL,
			grazer_energy_mean REAL NOT NULL,
			predator_energy_mean REAL NOT NULL,
			PRIMARY KEY (run_id, window_end)
		);
	`)
	return err
}
