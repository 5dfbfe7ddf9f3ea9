package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/stitts-dev/richard-sim/internal/services"
	"github.com/stitts-dev/richard-sim/internal/simulation"
)

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "run a batch of season simulations and print the most likely winners",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "roster", Aliases: []string{"r"}, Usage: "roster CSV (id,player_name[,participation])"},
			&cli.StringFlag{Name: "season", Usage: "season id such as 20232024"},
			&cli.IntFlag{Name: "simulations", Aliases: []string{"n"}, Usage: "number of simulated seasons"},
			&cli.StringFlag{Name: "score-type", Usage: "goals, assists or points"},
			&cli.Int64Flag{Name: "seed", Usage: "random seed, 0 picks one"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "parallel workers"},
			&cli.IntFlag{Name: "top", Value: 10, Usage: "outcomes to print, 0 prints all"},
			&cli.StringSliceFlag{Name: "participation", Aliases: []string{"p"}, Usage: "per-game participation override as id=probability"},
			&cli.BoolFlag{Name: "no-cache", Usage: "always fetch from the NHL API"},
			&cli.BoolFlag{Name: "json", Usage: "print the full report as JSON"},
		},
		Action: runSimulate,
	}
}

func runSimulate(c *cli.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := newApplication(c.Context, cfg, log, appOptions{
		rosterPath: c.String("roster"),
		noCache:    c.Bool("no-cache"),
	})
	if err != nil {
		return err
	}
	defer app.Close()

	participation, err := parseParticipation(c.StringSlice("participation"))
	if err != nil {
		return err
	}

	req := services.RunRequest{
		Season:        c.String("season"),
		Simulations:   c.Int("simulations"),
		Workers:       c.Int("workers"),
		Seed:          c.Int64("seed"),
		Participation: participation,
		Trigger:       "cli",
	}
	if name := c.String("score-type"); name != "" {
		if req.ScoreType, err = simulation.ParseScoreType(name); err != nil {
			return err
		}
	}

	report, err := app.simulation.Run(c.Context, req, nil)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(c.App.Writer, report, c.Int("top"))
}

// parseParticipation reads "id=probability" overrides
func parseParticipation(values []string) (map[int]float64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[int]float64, len(values))
	for _, v := range values {
		idStr, probStr, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid participation %q: expected id=probability", v)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idStr))
		if err != nil {
			return nil, fmt.Errorf("invalid participation %q: bad player id", v)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(probStr), 64)
		if err != nil || p < 0 || p > 1 {
			return nil, fmt.Errorf("invalid participation %q: probability must be in [0, 1]", v)
		}
		out[id] = p
	}
	return out, nil
}

func printReport(w io.Writer, report *services.RunReport, top int) error {
	result := report.Result

	fmt.Fprintf(w, "Season %s, %s, %d simulations (seed %d, %d workers, %s)\n",
		report.Season, result.ScoreType, result.NumSimulations, result.Seed, result.Workers, result.ExecutionTime.Round(time.Millisecond))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OUTCOME\tCOUNT\tPROBABILITY")
	for _, o := range result.Tally.Top(top) {
		fmt.Fprintf(tw, "%s\t%d\t%.2f%%\n", o.Label, o.Count, o.Probability*100)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(result.Players) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PLAYER\tCURRENT\tLEFT\tPLAY%\tPER GAME\tPROJECTED\tSTD DEV\tWINS\tSHARED\t")
	for _, p := range result.Players {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.0f\t%.3f\t%.1f\t%.1f\t%d\t%d\t\n",
			p.Name, p.Current, p.GamesRemaining, p.Participation*100, p.PerGameMean,
			p.ProjectedMean, p.ProjectedStdDev, p.OutrightWins, p.SharedWins)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if report.RunID != uuid.Nil {
		fmt.Fprintf(w, "\nSaved as run %s\n", report.RunID)
	}
	return nil
}
