package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// insertChunk bounds the rows per INSERT statement on SQLite.
const insertChunk = 200

var recordColumns = []string{"id", constants.FieldLogID, constants.FieldFileName, "data", "created_at"}

type RecordRepository interface {
	// InsertBatch stores records in destination, all or nothing, and returns
	// the ids assigned to them in input order. Every record gets log_id set.
	InsertBatch(ctx context.Context, destination string, records []entity.Record, logID string) ([]string, error)
}

type recordRepo struct {
	store *Store
	log   *slog.Logger
	now   func() time.Time

	mu     sync.Mutex
	tables sync.Map // destination -> struct{}
}

func NewRecordRepository(store *Store, log *slog.Logger) RecordRepository {
	return &recordRepo{store: store, log: log, now: time.Now}
}

func (r *recordRepo) InsertBatch(ctx context.Context, destination string, records []entity.Record, logID string) ([]string, error) {
	if v := common.NewValidator().Field("destination", destination, common.Identifier); v.HasErrors() {
		return nil, common.DatabaseError(common.ErrInvalidInput, "%s", v.ErrorMessage())
	}
	if len(records) == 0 {
		return []string{}, nil
	}
	if err := r.ensureTable(ctx, destination); err != nil {
		return nil, common.DatabaseError(err, "prepare table %s", destination)
	}

	now := r.now().UTC()
	ids := make([]string, len(records))
	rows := make([][]any, len(records))
	for i, rec := range records {
		rec.Set(constants.FieldLogID, logID)
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, common.DatabaseError(err, "encode record %d", i)
		}
		fileName, _ := rec.Get(constants.FieldFileName)
		ids[i] = uuid.NewString()
		rows[i] = []any{ids[i], logID, fmt.Sprint(nonNil(fileName)), r.jsonArg(data), now}
	}

	var err error
	if r.store.Pool != nil {
		err = r.copyRows(ctx, destination, rows)
	} else {
		err = r.insertRows(ctx, destination, rows)
	}
	if err != nil {
		r.log.Error("record batch insert failed", "destination", destination, "attempt_id", logID, "count", len(rows), "err", err)
		return nil, common.DatabaseError(err, "insert %d records into %s", len(rows), destination)
	}
	r.log.Info("records inserted", "destination", destination, "attempt_id", logID, "count", len(rows))
	return ids, nil
}

func (r *recordRepo) jsonArg(data []byte) any {
	if r.store.Dialect() == dialect.Postgres {
		return json.RawMessage(data)
	}
	return string(data)
}

// copyRows streams the batch with COPY inside one transaction.
func (r *recordRepo) copyRows(ctx context.Context, table string, rows [][]any) error {
	tx, err := r.store.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, recordColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return err
	}
	if int(n) != len(rows) {
		return fmt.Errorf("copied %d of %d rows", n, len(rows))
	}
	return tx.Commit(ctx)
}

// insertRows writes chunked multi-row INSERTs inside one transaction.
func (r *recordRepo) insertRows(ctx context.Context, table string, rows [][]any) error {
	tx, err := r.store.Driver.Tx(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		ins := entsql.Dialect(r.store.Dialect()).Insert(table).Columns(recordColumns...)
		for _, row := range rows[start:end] {
			ins.Values(row...)
		}
		q, args := ins.Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ensureTable creates the destination table once per process.
func (r *recordRepo) ensureTable(ctx context.Context, name string) error {
	if _, ok := r.tables.Load(name); ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables.Load(name); ok {
		return nil
	}
	if err := r.store.migrate(ctx, destinationTable(name)); err != nil {
		return err
	}
	r.tables.Store(name, struct{}{})
	r.log.Debug("destination table ready", "table", name)
	return nil
}

func nonNil(v any) any {
	if v == nil {
		return ""
	}
	return v
}
