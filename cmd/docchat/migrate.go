package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dtroode/docchat-server/database"
	"github.com/dtroode/docchat-server/internal/config"
)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(newMigrationCmd("up", "Apply all pending migrations", database.Migrate))
	cmd.AddCommand(newMigrationCmd("status", "Show applied state of every migration", database.Status))
	cmd.AddCommand(newMigrationCmd("down", "Roll back the most recent migration", database.Rollback))

	return cmd
}

type migrationFunc func(ctx context.Context, dsn string) error

func newMigrationCmd(use, short string, run migrationFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			if err := run(cmd.Context(), cfg.Database.DSN); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			cmd.Printf("migrate %s: done\n", use)
			return nil
		},
	}
}
