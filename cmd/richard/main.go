package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "richard",
		Usage: "simulate the Rocket Richard trophy race",
		Description: "Projects every rostered player's season from their own per-game history " +
			"and counts who finishes on top across many simulated seasons.",
		Commands: []*cli.Command{
			simulateCommand(),
			serveCommand(),
			watchCommand(),
			cacheCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatalf("richard: %v", err)
	}
}
