package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/richard-sim/internal/models"
	"github.com/stitts-dev/richard-sim/internal/providers"
	"github.com/stitts-dev/richard-sim/internal/services"
	"github.com/stitts-dev/richard-sim/internal/simulation"
	"github.com/stitts-dev/richard-sim/pkg/config"
	"github.com/stitts-dev/richard-sim/pkg/database"
	"github.com/stitts-dev/richard-sim/pkg/logger"
)

// application holds the wired components shared by every command
type application struct {
	cfg        *config.Config
	logger     *logrus.Logger
	db         *database.DB
	redis      *redis.Client
	cache      services.ResponseCache
	provider   *providers.NHLClient
	store      *services.RunStore
	simulation *services.SimulationService
}

type appOptions struct {
	rosterPath string
	noCache    bool
	skipRoster bool
}

func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment()), nil
}

func newApplication(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts appOptions) (*application, error) {
	app := &application{
		cfg:    cfg,
		logger: log,
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}
	app.db = db
	if err := db.Migrate(); err != nil {
		app.Close()
		return nil, err
	}

	if cfg.CacheBackend == "redis" && !opts.noCache {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		app.redis = redis.NewClient(opt)
		if err := app.redis.Ping(ctx).Err(); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}

	if opts.noCache {
		app.cache = services.NoopCache{}
	} else {
		app.cache, err = services.NewResponseCache(cfg, db.DB, app.redis, log)
		if err != nil {
			app.Close()
			return nil, err
		}
	}

	breakers := services.NewCircuitBreakerService(cfg.CircuitBreakerThreshold, cfg.ExternalAPITimeout*3, log, services.NHLBreaker)
	app.provider = providers.NewNHLClient(providers.NHLClientOptions{
		BaseURL:          cfg.NHLAPIBaseURL,
		Timeout:          cfg.ExternalAPITimeout,
		RateLimit:        cfg.NHLRateLimit,
		CurrentSeason:    cfg.Season,
		CurrentSeasonTTL: cfg.CurrentSeasonCacheTTL,
		HistoricalTTL:    cfg.HistoricalCacheTTL,
		StandingsTTL:     cfg.StandingsCacheTTL,
	}, app.cache, breakers, log)

	var roster []models.RosterEntry
	if !opts.skipRoster {
		rosterPath := opts.rosterPath
		if rosterPath == "" {
			rosterPath = cfg.RosterFile
		}
		roster, err = services.LoadRosterFile(rosterPath)
		if err != nil {
			app.Close()
			return nil, err
		}
	}

	scoreType, err := simulation.ParseScoreType(cfg.ScoreType)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.store = services.NewRunStore(db.DB)
	loader := services.NewFieldLoader(app.provider, cfg.GamesInSeason, cfg.PriorSeasons, log)
	app.simulation = services.NewSimulationService(loader, app.store, roster, services.RunDefaults{
		Season:         cfg.Season,
		ScoreType:      scoreType,
		Simulations:    cfg.Simulations,
		MaxSimulations: cfg.MaxSimulations,
		Workers:        cfg.SimulationWorkers,
		Seed:           cfg.SimulationSeed,
	}, log)

	return app, nil
}

// Close releases the database and redis connections
func (a *application) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close database")
		}
	}
}
