package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/stitts-dev/richard-sim/internal/api"
	"github.com/stitts-dev/richard-sim/internal/api/handlers"
	"github.com/stitts-dev/richard-sim/internal/api/middleware"
	"github.com/stitts-dev/richard-sim/internal/services"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "roster", Aliases: []string{"r"}, Usage: "roster CSV (id,player_name[,participation])"},
			&cli.BoolFlag{Name: "schedule", Usage: "also re-run the simulation on SIMULATION_SCHEDULE"},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := newApplication(c.Context, cfg, log, appOptions{rosterPath: c.String("roster")})
	if err != nil {
		return err
	}
	defer app.Close()

	if c.Bool("schedule") {
		scheduler := newScheduler(app)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	sqlDB, err := app.db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	router := api.NewRouter(
		handlers.NewSimulationHandler(app.simulation, app.store, log),
		handlers.NewHealthHandler(sqlDB),
		middleware.RequestLogger(log),
	)

	for _, route := range router.Routes() {
		log.Debugf("%s %s", route.Method, route.Path)
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
	return nil
}

func newScheduler(app *application) *services.SchedulerService {
	var purger services.ExpiredPurger
	if disk, ok := app.cache.(*services.DiskCache); ok {
		purger = disk
	}
	return services.NewSchedulerService(app.simulation, purger, app.cfg.SimulationSchedule, services.RunRequest{Trigger: "schedule"}, app.logger)
}
