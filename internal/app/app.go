// Package app wires configuration into a ready processor and its stores.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/file-ingestor/internal/cloud"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/core"
	"github.com/joseph-ayodele/file-ingestor/internal/core/parse"
	"github.com/joseph-ayodele/file-ingestor/internal/core/rules"
	"github.com/joseph-ayodele/file-ingestor/internal/export"
	"github.com/joseph-ayodele/file-ingestor/internal/fetch"
	"github.com/joseph-ayodele/file-ingestor/internal/repository"
)

// Fetcher backends.
const (
	FetchS3 = "s3"
	FetchFS = "fs"
)

// App holds the long-lived components shared by the binaries.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	Store     *repository.Store
	Attempts  repository.AttemptRepository
	Records   repository.RecordRepository
	RuleRepo  repository.RuleRepository
	Resolver  *rules.Resolver
	Processor *core.Processor
	Exporter  *export.Service
}

// FetchBackend picks the fetcher that matches the trigger mode: watched
// directories are read from disk, everything else from S3.
func FetchBackend(cfg *common.Config) string {
	if cfg.Trigger.Mode == common.TriggerWatch {
		return FetchFS
	}
	return FetchS3
}

// New opens the store, applies migrations and builds the processor.
func New(ctx context.Context, cfg *common.Config, fetchBackend string, logger *slog.Logger) (*App, error) {
	store, err := repository.Open(ctx, repository.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close(logger)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Attempts: repository.NewAttemptRepository(store, logger),
		Records:  repository.NewRecordRepository(store, logger),
		RuleRepo: repository.NewRuleRepository(store, logger),
	}

	var source rules.RuleSource = a.RuleRepo
	if cfg.Rules.Source == common.RulesSourceFile {
		source = rules.NewFileSource(cfg.Rules.File)
		logger.Info("rules loaded from file", "path", cfg.Rules.File)
	}
	a.Resolver = rules.NewResolver(source, logger)

	fetcher, err := newFetcher(ctx, cfg, fetchBackend, logger)
	if err != nil {
		store.Close(logger)
		return nil, err
	}

	a.Processor = core.NewProcessor(logger, a.Resolver, fetcher, parse.NewDispatcher(logger), a.Records, a.Attempts)
	a.Exporter = export.NewService(a.Attempts, logger)
	return a, nil
}

func newFetcher(ctx context.Context, cfg *common.Config, backend string, logger *slog.Logger) (core.Fetcher, error) {
	switch backend {
	case FetchFS:
		return fetch.NewFSFetcher(logger), nil
	case FetchS3, "":
		awsCfg, err := cloud.LoadConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		return fetch.NewS3Fetcher(cloud.NewS3(awsCfg, cfg.AWS.Endpoint), logger), nil
	default:
		return nil, fmt.Errorf("unknown fetch backend %q", backend)
	}
}

// RuleStore returns the database rule store when rules live in the database.
func (a *App) RuleStore() repository.RuleRepository {
	if a.Config.Rules.Source == common.RulesSourceFile {
		return nil
	}
	return a.RuleRepo
}

func (a *App) Close() {
	a.Store.Close(a.Logger)
}
