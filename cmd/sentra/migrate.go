// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/sentra/internal/platform/migration"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Applies every pending SQL migration against DATABASE_URL.
The command is idempotent; an up-to-date schema is a successful no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL := os.Getenv("DATABASE_URL")
			if databaseURL == "" {
				return fmt.Errorf("DATABASE_URL environment variable is required")
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			return migration.RunUp(databaseURL, migrationsPath, logger)
		},
	}

	cmd.Flags().StringVar(&migrationsPath, "path", "./data/migrations", "migrations directory")

	return cmd
}
