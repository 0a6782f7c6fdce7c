package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
)

type Config struct {
	Type             string
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ConfigFrom maps the process configuration onto repository settings.
func ConfigFrom(c common.DatabaseConfig) Config {
	return Config{
		Type:             c.Type,
		DSN:              c.DSN,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
	}
}

// Store is an open database: the ent SQL driver every repository builds
// queries against, plus the pgx pool when the backend is Postgres.
type Store struct {
	Driver *entsql.Driver
	Pool   *pgxpool.Pool
}

// Dialect is the ent dialect name of the backend.
func (s *Store) Dialect() string { return s.Driver.Dialect() }

// Open connects to the configured backend.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	switch cfg.Type {
	case common.DatabaseSQLite:
		return OpenSQLite(ctx, cfg.DSN, logger)
	case common.DatabasePostgres, "":
		return OpenPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
}

// OpenPostgres creates a pgx pool and wraps it for ent.
func OpenPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	logger.Info("connecting to database", "type", common.DatabasePostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "file-ingestor"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for ent
	db := stdlib.OpenDBFromPool(pool)
	drv := entsql.OpenDB(dialect.Postgres, db)

	logger.Info("successfully connected to database")
	return &Store{Driver: drv, Pool: pool}, nil
}

// OpenSQLite opens an embedded database. Foreign keys and a parseable time
// format are forced on, and the pool is limited to one connection.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	logger.Info("connecting to database", "type", common.DatabaseSQLite, "dsn", dsn)
	db, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		logger.Error("failed to open sqlite", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to open sqlite", "error", err)
		return nil, err
	}
	logger.Info("successfully connected to database")
	return &Store{Driver: entsql.OpenDB(dialect.SQLite, db)}, nil
}

func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "file:ingestor.db"
	}
	var params []string
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma="+url.QueryEscape("foreign_keys(1)"))
	}
	if !strings.Contains(dsn, "_time_format") {
		params = append(params, "_time_format=sqlite")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// Close closes the database connections gracefully
func (s *Store) Close(logger *slog.Logger) {
	logger.Info("closing database connections")
	if s.Driver != nil {
		if err := s.Driver.Close(); err != nil {
			logger.Error("failed to close sql driver", "error", err)
		}
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the backend to catch DSN issues early.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if s.Pool != nil {
		err = s.Pool.Ping(ctx)
	} else {
		err = s.Driver.DB().PingContext(ctx)
	}
	if err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
