package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// RuleRepository stores ingestion rules in the ingestion_config table.
// Rules returns them in id order, which is their declaration order.
type RuleRepository interface {
	Rules(ctx context.Context) ([]entity.Rule, error)
	Replace(ctx context.Context, rules []entity.Rule) error
}

type ruleRepo struct {
	drv *entsql.Driver
	log *slog.Logger
}

func NewRuleRepository(store *Store, log *slog.Logger) RuleRepository {
	return &ruleRepo{drv: store.Driver, log: log}
}

func (r *ruleRepo) Rules(ctx context.Context) ([]entity.Rule, error) {
	b := entsql.Dialect(r.drv.Dialect())
	q, args := b.Select("id", "pattern", "destination", "decode_config").
		From(b.Table(constants.TableIngestionConfig)).
		OrderBy(entsql.Asc("id")).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Rule
	for rows.Next() {
		var (
			rule entity.Rule
			cfg  sql.NullString
		)
		if err := rows.Scan(&rule.ID, &rule.Pattern, &rule.Destination, &cfg); err != nil {
			return nil, err
		}
		if cfg.Valid && cfg.String != "" {
			if err := json.Unmarshal([]byte(cfg.String), &rule.DecodeConfig); err != nil {
				r.log.Error("invalid decode_config", "rule_id", rule.ID, "err", err)
				return nil, common.WrapError(err, "decode_config of rule "+rule.Pattern)
			}
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// Replace swaps the whole rule set in one transaction, keeping slice order as
// declaration order.
func (r *ruleRepo) Replace(ctx context.Context, rules []entity.Rule) error {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return common.DatabaseError(err, "begin rules replace")
	}
	b := entsql.Dialect(r.drv.Dialect())

	q, args := b.Delete(constants.TableIngestionConfig).Query()
	if err := tx.Exec(ctx, q, args, nil); err != nil {
		_ = tx.Rollback()
		return common.DatabaseError(err, "clear rules")
	}
	for _, rule := range rules {
		var cfg any
		if len(rule.DecodeConfig) > 0 {
			raw, err := json.Marshal(rule.DecodeConfig)
			if err != nil {
				_ = tx.Rollback()
				return common.ConfigError(err, "encode decode_config for %q", rule.Pattern)
			}
			cfg = string(raw)
		}
		q, args := b.Insert(constants.TableIngestionConfig).
			Columns("pattern", "destination", "decode_config").
			Values(rule.Pattern, rule.Destination, cfg).
			Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			_ = tx.Rollback()
			return common.DatabaseError(err, "insert rule %q", rule.Pattern)
		}
	}
	if err := tx.Commit(); err != nil {
		return common.DatabaseError(err, "commit rules replace")
	}
	r.log.Info("rules replaced", "count", len(rules))
	return nil
}
