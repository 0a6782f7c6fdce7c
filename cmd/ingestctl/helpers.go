package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/file-ingestor/internal/app"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/repository"
)

// loadConfig reads the environment. Only the database settings are required
// by every command, so the full daemon validation is not applied.
func loadConfig() (*common.Config, *slog.Logger) {
	cfg := common.LoadConfig()
	if rootFlags.logLevel != "" {
		cfg.Log.Level = rootFlags.logLevel
	}
	return cfg, common.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}

func databaseRequired(cfg *common.Config) error {
	v := common.NewValidator().
		Field("DATABASE_TYPE", cfg.Database.Type, common.OneOf(common.DatabasePostgres, common.DatabaseSQLite)).
		Field("DB_URL", cfg.Database.DSN, common.Required)
	if v.HasErrors() {
		return common.NewAppError("CONFIG_ERROR", v.ErrorMessage(), common.ErrInvalidInput)
	}
	return nil
}

func openApp(ctx context.Context, backend string) (*app.App, error) {
	cfg, logger := loadConfig()
	if err := databaseRequired(cfg); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, backend, logger)
}

func openStore(ctx context.Context) (*repository.Store, *slog.Logger, error) {
	cfg, logger := loadConfig()
	if err := databaseRequired(cfg); err != nil {
		return nil, nil, err
	}
	store, err := repository.Open(ctx, repository.ConfigFrom(cfg.Database), logger)
	return store, logger, err
}
