package main

import (
	"github.com/spf13/cobra"

	"github.com/hainu/catalog/internal/config"
	"github.com/hainu/catalog/internal/database"
)

func migrateCommand(cfg *config.Config) *cobra.Command {
	var (
		down int
		path string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations, or roll back with --down",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = cfg.Database.MigrationsPath
			}

			db, err := openDatabase(cfg, false)
			if err != nil {
				return err
			}
			defer db.Close()

			if down > 0 {
				return database.RollbackMigrations(db, path, down)
			}
			return database.RunMigrations(db, path)
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "Number of migrations to roll back")
	cmd.Flags().StringVar(&path, "path", "", "Migrations directory (default: MIGRATIONS_PATH)")
	return cmd
}
