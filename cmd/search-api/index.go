package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/domain/resource"
)

const loadBatchSize = 500

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Create the search indexes and optionally load documents",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "recreate",
				Usage: "Drop and recreate existing indexes (documents are kept)",
			},
			&cli.StringFlag{
				Name:  "load",
				Usage: "JSON file holding an array of documents to store",
			},
			&cli.StringFlag{
				Name:  "resource",
				Usage: "Resource the loaded documents belong to",
				Value: string(resource.Items),
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			res, err := resource.Parse(c.String("resource"))
			if err != nil {
				return err
			}

			a, err := newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.indexes().EnsureAll(ctx, c.Bool("recreate")); err != nil {
				return err
			}

			if path := c.String("load"); path != "" {
				return loadDocuments(ctx, a, res, path)
			}
			return nil
		},
	}
}

func loadDocuments(ctx context.Context, a *app, res resource.Resource, path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var docs []map[string]any
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	repo := a.documents()
	for start := 0; start < len(docs); start += loadBatchSize {
		end := min(start+loadBatchSize, len(docs))
		if err := repo.Put(ctx, res, docs[start:end]); err != nil {
			return fmt.Errorf("store documents %d-%d: %w", start, end-1, err)
		}
	}

	a.logger.Info("Documents loaded",
		zap.String("resource", res.String()),
		zap.Int("count", len(docs)),
	)
	return nil
}
