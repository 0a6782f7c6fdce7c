package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the ingestion_config and ingestion_logs tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, logger, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close(logger)
		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", store.Dialect())
		return nil
	},
}
