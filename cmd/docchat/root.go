package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docchat",
		Short: "Document chat backend",
		Long: `docchat registers users with email verification, issues sessions
and proxies document uploads and questions to the document service.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
