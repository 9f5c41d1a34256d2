package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/config"
	dbRedis "github.com/dpla/platform-search/internal/db/redis"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema"
	logpkg "github.com/dpla/platform-search/internal/logger"
	"github.com/dpla/platform-search/internal/metrics"
	"github.com/dpla/platform-search/internal/repository/cache"
	documentrepo "github.com/dpla/platform-search/internal/repository/document"
	indexrepo "github.com/dpla/platform-search/internal/repository/index"
	searchrepo "github.com/dpla/platform-search/internal/repository/search"
	searchuc "github.com/dpla/platform-search/internal/usecase/search"
	"github.com/dpla/platform-search/internal/version"
)

// app is the composition root shared by every command.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	store  *dbRedis.Store
	schema *schema.Registry
	keys   resource.Keyspace
}

func newApp(ctx context.Context, c *cli.Command) (*app, error) {
	env := c.String("env")

	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	reg, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	logger.Info("Starting search API",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("key_prefix", cfg.Index.KeyPrefix),
		zap.String("schema", schemaSource(cfg.Schema.Path)),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	return &app{
		env:    env,
		cfg:    cfg,
		logger: logger,
		store:  store,
		schema: reg,
		keys:   resource.NewKeyspace(cfg.Index.KeyPrefix),
	}, nil
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func (a *app) indexes() *indexrepo.Repo {
	return indexrepo.New(a.store, a.schema, a.keys, a.logger)
}

func (a *app) documents() *documentrepo.Repo {
	return documentrepo.New(a.store, a.schema, a.keys)
}

// searcher assembles the decorator chain: Service -> Cached -> Instrumented.
func (a *app) searcher() searchuc.Searcher {
	svc := searchuc.New(a.schema, searchrepo.New(a.store, a.keys), a.documents(), searchuc.Options{
		DefaultPageSize: a.cfg.Index.DefaultPageSize,
		MaxPageSize:     a.cfg.Index.MaxPageSize,
	})

	var s searchuc.Searcher = svc
	if ttl := a.cfg.Cache.TTL(); ttl > 0 {
		s = cache.New(s, a.store, a.keys, ttl, metrics.ResultsCacheTotal, a.logger)
		a.logger.Info("Result cache enabled", zap.Duration("ttl", ttl))
	}
	return searchuc.NewInstrumentedSearcher(s, a.logger)
}

func (a *app) indexNames() []string {
	names := make([]string, 0, len(resource.All))
	for _, res := range a.schema.Resources() {
		names = append(names, a.keys.IndexName(res))
	}
	return names
}

func schemaSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
