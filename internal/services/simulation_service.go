package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/richard-sim/internal/models"
	"github.com/stitts-dev/richard-sim/internal/simulation"
	"github.com/stitts-dev/richard-sim/pkg/logger"
)

// FieldSource builds a simulation field from a roster
type FieldSource interface {
	LoadField(ctx context.Context, roster []models.RosterEntry, season string, scoreType simulation.ScoreType, overrides map[int]float64) (*simulation.Field, error)
}

// RunRequest describes one batch. Zero values take the service defaults.
type RunRequest struct {
	Season        string
	ScoreType     simulation.ScoreType
	Simulations   int
	Workers       int
	Seed          int64
	Participation map[int]float64
	Roster        []models.RosterEntry
	Trigger       string
}

// RunDefaults holds the configured values a RunRequest falls back to
type RunDefaults struct {
	Season         string
	ScoreType      simulation.ScoreType
	Simulations    int
	MaxSimulations int
	Workers        int
	Seed           int64
}

// RunReport is a finished batch together with its persisted id
type RunReport struct {
	RunID  uuid.UUID               `json:"run_id"`
	Season string                  `json:"season"`
	Result *simulation.BatchResult `json:"result"`
}

// SimulationService loads the field, runs the batch and records the run
type SimulationService struct {
	fields   FieldSource
	store    *RunStore
	roster   []models.RosterEntry
	defaults RunDefaults
	logger   *logrus.Logger
}

// NewSimulationService wires the service. store may be nil to skip persistence.
func NewSimulationService(fields FieldSource, store *RunStore, roster []models.RosterEntry, defaults RunDefaults, logger *logrus.Logger) *SimulationService {
	return &SimulationService{
		fields:   fields,
		store:    store,
		roster:   roster,
		defaults: defaults,
		logger:   logger,
	}
}

// Roster returns the configured roster
func (s *SimulationService) Roster() []models.RosterEntry {
	return s.roster
}

func (s *SimulationService) resolve(req RunRequest) (RunRequest, error) {
	if req.Season == "" {
		req.Season = s.defaults.Season
	}
	if req.ScoreType == "" {
		req.ScoreType = s.defaults.ScoreType
	}
	if !req.ScoreType.Valid() {
		return req, fmt.Errorf("%w: unknown score type %q", simulation.ErrPrecondition, req.ScoreType)
	}
	if req.Simulations == 0 {
		req.Simulations = s.defaults.Simulations
	}
	if req.Simulations <= 0 {
		return req, fmt.Errorf("%w: simulation count must be positive, got %d", simulation.ErrPrecondition, req.Simulations)
	}
	if s.defaults.MaxSimulations > 0 && req.Simulations > s.defaults.MaxSimulations {
		return req, fmt.Errorf("%w: simulation count %d exceeds maximum %d", simulation.ErrPrecondition, req.Simulations, s.defaults.MaxSimulations)
	}
	if req.Workers <= 0 {
		req.Workers = s.defaults.Workers
	}
	if req.Seed == 0 {
		req.Seed = s.defaults.Seed
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	if len(req.Roster) == 0 {
		req.Roster = s.roster
	}
	if req.Trigger == "" {
		req.Trigger = "api"
	}
	return req, nil
}

// Run executes one batch end to end. progress may be nil.
func (s *SimulationService) Run(ctx context.Context, req RunRequest, progress simulation.ProgressFunc) (*RunReport, error) {
	req, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	field, err := s.fields.LoadField(ctx, req.Roster, req.Season, req.ScoreType, req.Participation)
	if err != nil {
		return nil, fmt.Errorf("failed to load field: %w", err)
	}

	sim := simulation.NewSimulator(simulation.SimulationConfig{
		NumSimulations:    req.Simulations,
		SimulationWorkers: req.Workers,
		ScoreType:         req.ScoreType,
		Seed:              req.Seed,
	}, s.logger)
	if progress != nil {
		sim.OnProgress(progress)
	}

	result, err := sim.Run(ctx, field)
	if err != nil {
		return nil, err
	}

	report := &RunReport{
		Season: req.Season,
		Result: result,
	}

	if s.store != nil {
		run, err := NewSimulationRun(req.Season, req.Trigger, result)
		if err != nil {
			return nil, err
		}
		if err := s.store.Save(ctx, run); err != nil {
			return nil, err
		}
		report.RunID = run.ID
	}

	entry := logger.WithSimulationContext(report.RunID.String(), req.Season, req.ScoreType.String())
	fields := logrus.Fields{
		"simulations": result.NumSimulations,
		"workers":     result.Workers,
		"seed":        result.Seed,
		"duration":    result.ExecutionTime,
	}
	if len(result.Outcomes) > 0 {
		fields["favourite"] = result.Outcomes[0].Label
		fields["favourite_probability"] = result.Outcomes[0].Probability
	}
	entry.WithFields(fields).Info("Simulation run completed")

	return report, nil
}
