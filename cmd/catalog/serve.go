package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hainu/catalog/internal/app"
	"github.com/hainu/catalog/internal/config"
	"github.com/hainu/catalog/internal/metrics"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 10 * time.Second

func serveCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(cfg, true)
	if err != nil {
		return err
	}
	defer db.Close()

	store, closeCache, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	m, err := metrics.New()
	if err != nil {
		return err
	}

	application, err := app.New(cfg, db, store, m)
	if err != nil {
		return err
	}
	application.RegisterRoutes(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Echo.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", slog.Any("error", err))
		return err
	}
	slog.Info("server stopped")
	return nil
}
