package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "manage cached NHL API responses",
		Subcommands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "delete cached responses",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Value: "nhl:", Usage: "only delete keys with this prefix"},
				},
				Action: func(c *cli.Context) error {
					cfg, log, err := loadConfig()
					if err != nil {
						return err
					}
					app, err := newApplication(c.Context, cfg, log, appOptions{skipRoster: true})
					if err != nil {
						return err
					}
					defer app.Close()

					n, err := app.cache.Clear(c.Context, c.String("prefix"))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Deleted %d cached responses\n", n)
					return nil
				},
			},
		},
	}
}
