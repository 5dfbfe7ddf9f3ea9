package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/stitts-dev/richard-sim/internal/services"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "re-run the simulation on SIMULATION_SCHEDULE and print each report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "roster", Aliases: []string{"r"}, Usage: "roster CSV (id,player_name[,participation])"},
			&cli.IntFlag{Name: "top", Value: 10, Usage: "outcomes to print, 0 prints all"},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := newApplication(c.Context, cfg, log, appOptions{rosterPath: c.String("roster")})
	if err != nil {
		return err
	}
	defer app.Close()

	var mu sync.Mutex
	scheduler := newScheduler(app)
	scheduler.OnReport(func(report *services.RunReport) {
		mu.Lock()
		defer mu.Unlock()
		if err := printReport(c.App.Writer, report, c.Int("top")); err != nil {
			log.WithError(err).Warn("Failed to print report")
		}
	})
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	for _, next := range scheduler.NextRuns() {
		log.WithField("next_run", next).Info("Scheduled")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	return nil
}
