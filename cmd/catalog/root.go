package main

import (
	"database/sql"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hainu/catalog/internal/cache"
	"github.com/hainu/catalog/internal/config"
	"github.com/hainu/catalog/internal/database"
)

// RootCommand creates the root command with every subcommand attached.
// Configuration is loaded once before any subcommand runs.
func RootCommand() *cobra.Command {
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Hainu catalog API server and maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = *loaded
			setupLogging(cfg)
			return nil
		},
	}

	rootCmd.AddCommand(
		serveCommand(cfg),
		migrateCommand(cfg),
		syncTrustpilotCommand(cfg),
	)
	return rootCmd
}

// setupLogging configures the global slog logger. Development uses text
// format for readability; everything else gets JSON for log aggregation.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openDatabase connects to MariaDB, applying migrations first when
// AUTO_MIGRATE is set and migrate is true.
func openDatabase(cfg *config.Config, migrate bool) (*sql.DB, error) {
	db, err := database.NewMariaDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to MariaDB")

	if migrate && cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// openCache returns the Redis store when REDIS_URL is set and the
// in-process store otherwise. The returned func releases the connection.
func openCache(cfg *config.Config) (cache.Store, func(), error) {
	if cfg.Cache.RedisURL == "" {
		slog.Info("using in-memory response cache")
		return cache.NewMemoryStore(cfg.Cache.TTL), func() {}, nil
	}

	rdb, err := database.NewRedis(cfg.Cache.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("connected to Redis")
	return cache.NewRedisStore(rdb), func() { rdb.Close() }, nil
}
