// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the Sentra CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sentra",
		Short: "Sentra - user and identity administration",
		Long: `Sentra is the administrative CLI for the Sentra identity service.
It provisions accounts and manages the database schema without going
through the HTTP API.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRegisterCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
