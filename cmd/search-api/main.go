package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dpla/platform-search/internal/config"
	"github.com/dpla/platform-search/internal/version"
)

func main() {
	app := &cli.Command{
		Name:    "search-api",
		Usage:   "Faceted search API over the Redis Query Engine",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment: selects config/<env>.yaml and the log format",
				Value:   config.GetEnv(),
				Sources: cli.EnvVars("ENV"),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Explicit configuration file path (overrides --env lookup)",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			queryCommand(),
			indexCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
