package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/core/parse"
	"github.com/joseph-ayodele/file-ingestor/internal/core/rules"
	"github.com/joseph-ayodele/file-ingestor/internal/repository"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Validate and manage ingestion rules",
}

var rulesCheckFlags struct {
	keys []string
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a rules file and optionally show which rule each key resolves to",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesCheck,
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the database rule set with the rules in a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesImport,
}

func init() {
	rulesCheckCmd.Flags().StringSliceVar(&rulesCheckFlags.keys, "key", nil, "Object key to resolve against the rules (repeatable)")
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.AddCommand(rulesImportCmd)
}

func readRules(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return data, nil
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	data, err := readRules(args[0])
	if err != nil {
		return err
	}
	list, err := rules.ParseDocument(data)
	if err != nil {
		return err
	}
	if err := rules.Check(list); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d rules OK\n", len(list))

	if len(rulesCheckFlags.keys) == 0 {
		return nil
	}
	_, logger := loadConfig()
	resolver := rules.NewResolver(rules.StaticSource(list), logger)
	decoders := parse.NewDispatcher(logger)
	for _, key := range rulesCheckFlags.keys {
		rule, err := resolver.Resolve(cmd.Context(), key)
		if err != nil {
			fmt.Fprintf(out, "%s -> %v\n", key, err)
			continue
		}
		fmt.Fprintf(out, "%s -> %s (pattern %q)\n", key, rule.Destination, rule.Pattern)
		if typ := constants.DeclaredType(key); !decoders.Supports(typ) {
			fmt.Fprintf(out, "  warning: no decoder for type %q (supported: %s)\n", typ, strings.Join(decoders.Types(), ", "))
		}
	}
	return nil
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	data, err := readRules(args[0])
	if err != nil {
		return err
	}
	list, err := rules.ParseDocument(data)
	if err != nil {
		return err
	}
	if err := rules.Check(list); err != nil {
		return err
	}

	store, logger, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close(logger)
	if err := store.Migrate(cmd.Context()); err != nil {
		return err
	}
	if err := repository.NewRuleRepository(store, logger).Replace(cmd.Context(), list); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d rules\n", len(list))
	return nil
}
