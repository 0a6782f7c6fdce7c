package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthFlags struct {
	timeout time.Duration
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, logger, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close(logger)
		if err := store.HealthCheck(cmd.Context(), healthFlags.timeout, logger); err != nil {
			return fmt.Errorf("database unhealthy: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "database OK (%s)\n", store.Dialect())
		return nil
	},
}

func init() {
	healthCmd.Flags().DurationVar(&healthFlags.timeout, "timeout", 5*time.Second, "Ping timeout")
}
