package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/metrics"
	"github.com/dpla/platform-search/internal/ratelimit"
	chiTransport "github.com/dpla/platform-search/internal/transport/chi"
	healthuc "github.com/dpla/platform-search/internal/usecase/health"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "provision",
				Usage: "Create missing indexes before serving",
				Value: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()
			return serve(ctx, a, c.Bool("provision"))
		},
	}
}

func serve(ctx context.Context, a *app, provision bool) error {
	logger := a.logger

	if provision {
		if err := a.indexes().EnsureAll(ctx, false); err != nil {
			return fmt.Errorf("provision indexes: %w", err)
		}
	}

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterSearchMetrics()

	healthSvc := healthuc.New(a.store, a.store, a.indexNames()...)
	server := chiTransport.NewServer(a.searcher(), a.schema, healthSvc, logger)

	opts := chiTransport.RouterOptions{
		APIKeys:        a.cfg.Auth.APIKeys,
		AllowedOrigins: a.cfg.CORS.AllowedOrigins,
	}
	if a.cfg.RateLimit.RPS > 0 {
		limiter := ratelimit.New(a.cfg.RateLimit.RPS, a.cfg.RateLimit.Burst)
		defer limiter.Stop()
		opts.Limiter = limiter
	}
	if !a.cfg.Auth.Enabled() {
		logger.Warn("API key authentication disabled: no auth.api_keys configured")
	}

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, opts, logger),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
