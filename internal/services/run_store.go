package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitts-dev/richard-sim/internal/models"
	"github.com/stitts-dev/richard-sim/internal/simulation"
)

// ErrRunNotFound is returned for unknown run ids
var ErrRunNotFound = errors.New("simulation run not found")

// RunStore persists simulation runs
type RunStore struct {
	db *gorm.DB
}

func NewRunStore(db *gorm.DB) *RunStore {
	return &RunStore{db: db}
}

// NewSimulationRun converts a batch result into its persisted form
func NewSimulationRun(season, trigger string, result *simulation.BatchResult) (*models.SimulationRun, error) {
	outcomes, err := json.Marshal(result.Outcomes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	players, err := json.Marshal(result.Players)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal player summaries: %w", err)
	}

	return &models.SimulationRun{
		Season:      season,
		ScoreType:   result.ScoreType.String(),
		Simulations: result.NumSimulations,
		Workers:     result.Workers,
		Seed:        result.Seed,
		PlayerCount: len(result.Players),
		Outcomes:    outcomes,
		Players:     players,
		DurationMS:  result.ExecutionTime.Milliseconds(),
		Trigger:     trigger,
	}, nil
}

func (s *RunStore) Save(ctx context.Context, run *models.SimulationRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save simulation run: %w", err)
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, id uuid.UUID) (*models.SimulationRun, error) {
	var run models.SimulationRun
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to load simulation run: %w", err)
	}
	return &run, nil
}

// List returns the most recent runs first, optionally filtered by season
func (s *RunStore) List(ctx context.Context, season string, limit int) ([]models.SimulationRun, int64, error) {
	scoped := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.SimulationRun{})
		if season != "" {
			query = query.Where("season = ?", season)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count simulation runs: %w", err)
	}

	var runs []models.SimulationRun
	if err := scoped().Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list simulation runs: %w", err)
	}
	return runs, total, nil
}
