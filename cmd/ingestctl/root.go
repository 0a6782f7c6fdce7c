package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	envFile  string
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:   "ingestctl",
	Short: "Operate the file ingestor from the command line",
	Long:  "ingestctl processes files by hand, manages ingestion rules\nand inspects the attempt log.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if rootFlags.envFile != "" {
			if err := godotenv.Load(rootFlags.envFile); err != nil {
				return fmt.Errorf("load %s: %w", rootFlags.envFile, err)
			}
			return nil
		}
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.envFile, "env-file", "", "Load environment from this file (default: .env if present)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Override LOG_LEVEL")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(processDirCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(attemptsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
