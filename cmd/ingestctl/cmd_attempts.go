package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/export"
	"github.com/joseph-ayodele/file-ingestor/internal/repository"
)

var attemptsFlags struct {
	status string
	prefix string
	since  time.Duration
	limit  int
}

var attemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "Inspect the attempt log",
}

var attemptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print recent attempts",
	Args:  cobra.NoArgs,
	RunE:  runAttemptsList,
}

var attemptsExportCmd = &cobra.Command{
	Use:   "export <out.xlsx>",
	Short: "Write attempts to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttemptsExport,
}

func init() {
	for _, c := range []*cobra.Command{attemptsListCmd, attemptsExportCmd} {
		f := c.Flags()
		f.StringVar(&attemptsFlags.status, "status", "", "Only attempts with this status (RUNNING, SUCCESS, FAILED)")
		f.StringVar(&attemptsFlags.prefix, "prefix", "", "Only files whose name starts with this prefix")
		f.DurationVar(&attemptsFlags.since, "since", 0, "Only attempts started within this window, e.g. 24h")
	}
	attemptsListCmd.Flags().IntVar(&attemptsFlags.limit, "limit", 50, "Maximum rows")
	attemptsCmd.AddCommand(attemptsListCmd)
	attemptsCmd.AddCommand(attemptsExportCmd)
}

func attemptsFilter() repository.ListAttemptsFilter {
	f := repository.ListAttemptsFilter{
		Status:     constants.AttemptStatus(strings.ToUpper(attemptsFlags.status)),
		FilePrefix: attemptsFlags.prefix,
		Limit:      attemptsFlags.limit,
	}
	if attemptsFlags.since > 0 {
		f.Since = time.Now().Add(-attemptsFlags.since)
	}
	return f
}

func runAttemptsList(cmd *cobra.Command, _ []string) error {
	store, logger, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close(logger)

	attempts, err := repository.NewAttemptRepository(store, logger).List(cmd.Context(), attemptsFilter())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSTARTED\tRECORDS\tFILE")
	for _, a := range attempts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", a.ID, a.Status, a.StartTime.Local().Format(time.DateTime), a.RecordCount, a.FileName)
	}
	return tw.Flush()
}

func runAttemptsExport(cmd *cobra.Command, args []string) error {
	store, logger, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close(logger)

	f := attemptsFilter()
	f.Limit = 0
	data, err := export.NewService(repository.NewAttemptRepository(store, logger), logger).ExportAttemptsXLSX(cmd.Context(), f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
	return nil
}
