package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/richard-sim/internal/simulation"
)

// Runner executes one simulation batch
type Runner interface {
	Run(ctx context.Context, req RunRequest, progress simulation.ProgressFunc) (*RunReport, error)
}

// ExpiredPurger drops stale cache entries
type ExpiredPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SchedulerService re-runs the trophy race on a cron schedule so odds follow the
// season as it progresses
type SchedulerService struct {
	runner   Runner
	purger   ExpiredPurger
	request  RunRequest
	schedule string
	timeout  time.Duration
	logger   *logrus.Logger
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
	onReport func(*RunReport)
}

// NewSchedulerService creates a scheduler. purger may be nil.
func NewSchedulerService(runner Runner, purger ExpiredPurger, schedule string, request RunRequest, logger *logrus.Logger) *SchedulerService {
	request.Trigger = "schedule"
	return &SchedulerService{
		runner:   runner,
		purger:   purger,
		request:  request,
		schedule: schedule,
		timeout:  30 * time.Minute,
		logger:   logger,
		cron:     cron.New(),
	}
}

// OnReport registers a callback for every finished scheduled run
func (s *SchedulerService) OnReport(fn func(*RunReport)) {
	s.onReport = fn
}

// Start schedules the simulation and a daily cache cleanup, then runs once immediately
func (s *SchedulerService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("failed to schedule simulations %q: %w", s.schedule, err)
	}

	if s.purger != nil {
		if _, err := s.cron.AddFunc("0 3 * * *", s.purgeCache); err != nil {
			return fmt.Errorf("failed to schedule cache cleanup: %w", err)
		}
	}

	s.cron.Start()
	s.running = true

	go s.RunOnce()

	s.logger.WithField("schedule", s.schedule).Info("Simulation scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running job to finish
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.running = false
	s.logger.Info("Simulation scheduler stopped")
}

// NextRuns returns the next activation time of each scheduled job
func (s *SchedulerService) NextRuns() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	next := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		next = append(next, entry.Next)
	}
	return next
}

// RunOnce executes one scheduled batch
func (s *SchedulerService) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("Starting scheduled simulation run")

	report, err := s.runner.Run(ctx, s.request, nil)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled simulation run failed")
		return
	}

	if s.onReport != nil {
		s.onReport(report)
	}
}

func (s *SchedulerService) purgeCache() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.purger.DeleteExpired(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to purge expired cache entries")
		return
	}
	s.logger.WithField("deleted", n).Info("Purged expired cache entries")
}
