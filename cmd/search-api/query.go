package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/search/params"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Run one search and print the result envelope",
		ArgsUsage: "<items|collections> [key=value ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ids",
				Usage: "Fetch these comma-separated ids instead of searching",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			args := c.Args().Slice()
			if len(args) == 0 {
				return fmt.Errorf("resource is required")
			}
			res, err := resource.Parse(args[0])
			if err != nil {
				return err
			}
			p, err := parseKV(args[1:])
			if err != nil {
				return err
			}

			a, err := newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			s := a.searcher()
			var out any
			if ids := c.String("ids"); ids != "" {
				out, err = s.Fetch(ctx, res, ids)
			} else {
				out, err = s.Search(ctx, res, p)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

// parseKV turns key=value arguments into a parameter map.
func parseKV(args []string) (params.Params, error) {
	p := make(params.Params, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", arg)
		}
		p[k] = v
	}
	return p, nil
}
