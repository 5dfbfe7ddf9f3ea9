package simulation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// SimulationConfig represents configuration for a batch of trophy-race simulations
type SimulationConfig struct {
	NumSimulations    int
	SimulationWorkers int
	ScoreType         ScoreType
	Seed              int64
}

// ProgressFunc receives batch progress. It is called from worker goroutines.
type ProgressFunc func(completed, total int)

// PlayerSummary describes one player's projection across the batch
type PlayerSummary struct {
	PlayerID        int     `json:"player_id"`
	Name            string  `json:"name"`
	Current         int     `json:"current"`
	GamesRemaining  int     `json:"games_remaining"`
	Participation   float64 `json:"participation"`
	HistoryGames    int     `json:"history_games"`
	PerGameMean     float64 `json:"per_game_mean"`
	ProjectedMean   float64 `json:"projected_mean"`
	ProjectedStdDev float64 `json:"projected_std_dev"`
	OutrightWins    int     `json:"outright_wins"`
	SharedWins      int     `json:"shared_wins"`
}

// BatchResult represents the aggregate results of a batch
type BatchResult struct {
	ScoreType      ScoreType       `json:"score_type"`
	NumSimulations int             `json:"num_simulations"`
	Workers        int             `json:"workers"`
	Seed           int64           `json:"seed"`
	Tally          Tally           `json:"tally"`
	Outcomes       []Outcome       `json:"outcomes"`
	Players        []PlayerSummary `json:"players"`
	ExecutionTime  time.Duration   `json:"execution_time"`
}

// Simulator runs batches, optionally split across workers with independent sources
type Simulator struct {
	config   SimulationConfig
	logger   *logrus.Logger
	progress ProgressFunc
}

// NewSimulator creates a new batch simulator
func NewSimulator(config SimulationConfig, logger *logrus.Logger) *Simulator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Simulator{
		config: config,
		logger: logger,
	}
}

// OnProgress registers a progress callback
func (s *Simulator) OnProgress(fn ProgressFunc) {
	s.progress = fn
}

// Run executes the batch. Worker i draws from a source seeded with Seed+i and covers a
// contiguous chunk of runs, so the result is identical for identical config and field.
func (s *Simulator) Run(ctx context.Context, field *Field) (*BatchResult, error) {
	cfg := s.config
	if cfg.NumSimulations <= 0 {
		return nil, fmt.Errorf("%w: simulation count must be positive, got %d", ErrPrecondition, cfg.NumSimulations)
	}
	if !cfg.ScoreType.Valid() {
		return nil, fmt.Errorf("%w: unknown score type %q", ErrPrecondition, string(cfg.ScoreType))
	}
	if err := field.Validate(); err != nil {
		return nil, err
	}

	workers := cfg.SimulationWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > cfg.NumSimulations {
		workers = cfg.NumSimulations
	}

	entry := s.logger.WithFields(logrus.Fields{
		"simulations": cfg.NumSimulations,
		"workers":     workers,
		"score_type":  cfg.ScoreType,
		"players":     len(field.PlayerIDs),
		"seed":        cfg.Seed,
	})
	entry.Info("Starting trophy race simulation")
	startTime := time.Now()

	accs := make([]*accumulator, workers)
	done := s.progressCounter(cfg.NumSimulations)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		runs := chunkSize(cfg.NumSimulations, workers, w)
		accs[w] = newAccumulator(field, runs, true)
		g.Go(func() error {
			rng := NewSource(cfg.Seed + int64(w))
			return runChunk(gctx, rng, runs, cfg.ScoreType, field, accs[w], done)
		})
	}
	if err := g.Wait(); err != nil {
		entry.WithError(err).Error("Trophy race simulation aborted")
		return nil, err
	}

	merged := accs[0]
	for _, acc := range accs[1:] {
		merged.merge(acc)
	}

	result := &BatchResult{
		ScoreType:      cfg.ScoreType,
		NumSimulations: cfg.NumSimulations,
		Workers:        workers,
		Seed:           cfg.Seed,
		Tally:          merged.tally,
		Outcomes:       merged.tally.Ranked(),
		Players:        summarize(field, cfg.ScoreType, merged),
		ExecutionTime:  time.Since(startTime),
	}

	entry.WithFields(logrus.Fields{
		"outcomes":       len(result.Outcomes),
		"execution_time": result.ExecutionTime,
	}).Info("Trophy race simulation completed")

	return result, nil
}

func (s *Simulator) progressCounter(total int) func() {
	if s.progress == nil {
		return nil
	}
	step := int64(total / 100)
	if step < 1 {
		step = 1
	}
	var completed atomic.Int64
	return func() {
		n := completed.Add(1)
		if n%step == 0 || n == int64(total) {
			s.progress(int(n), total)
		}
	}
}

// chunkSize splits total runs across workers, giving the remainder to the first workers
func chunkSize(total, workers, index int) int {
	size := total / workers
	if index < total%workers {
		size++
	}
	return size
}

func summarize(field *Field, scoreType ScoreType, acc *accumulator) []PlayerSummary {
	summaries := make([]PlayerSummary, 0, len(field.PlayerIDs))
	for _, id := range field.PlayerIDs {
		stats := field.Stats[id]
		pool := field.Pools[id]
		summary := PlayerSummary{
			PlayerID:       id,
			Name:           field.Name(id),
			Current:        scoreType.SeasonValue(stats),
			GamesRemaining: stats.GamesRemaining,
			Participation:  field.ParticipationFor(id),
			HistoryGames:   len(pool),
			PerGameMean:    pool.Mean(),
			OutrightWins:   acc.outright[id],
			SharedWins:     acc.shared[id],
		}
		if totals := acc.totals[id]; len(totals) > 0 {
			summary.ProjectedMean, summary.ProjectedStdDev = stat.MeanStdDev(totals, nil)
			if len(totals) < 2 {
				summary.ProjectedStdDev = 0
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
