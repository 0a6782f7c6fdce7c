package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

var attemptColumns = []string{
	"id", "file_name", "start_time", "end_time", "status", "message", "record_count", "checksum",
}

// ListAttemptsFilter narrows List. Zero values mean no constraint.
type ListAttemptsFilter struct {
	Status     constants.AttemptStatus
	FilePrefix string
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

type AttemptRepository interface {
	Create(ctx context.Context, a *entity.Attempt) (string, error)
	Update(ctx context.Context, id string, endTime time.Time, status constants.AttemptStatus, message string) error
	Get(ctx context.Context, id string) (*entity.Attempt, error)
	List(ctx context.Context, f ListAttemptsFilter) ([]entity.Attempt, error)
}

type attemptRepo struct {
	drv *entsql.Driver
	log *slog.Logger
}

func NewAttemptRepository(store *Store, log *slog.Logger) AttemptRepository {
	return &attemptRepo{drv: store.Driver, log: log}
}

func (r *attemptRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

// Create inserts a new attempt and returns its id. An empty ID is assigned.
func (r *attemptRepo) Create(ctx context.Context, a *entity.Attempt) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = constants.AttemptStatusRunning
	}
	var checksum any
	if a.Checksum != "" {
		checksum = a.Checksum
	}
	q, args := r.builder().Insert(constants.TableIngestionLogs).
		Columns("id", "file_name", "start_time", "status", "record_count", "checksum").
		Values(a.ID, a.FileName, a.StartTime.UTC(), string(a.Status), a.RecordCount, checksum).
		Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("ingestion_log create failed", "file_name", a.FileName, "err", err)
		return "", common.DatabaseError(err, "create attempt for %s", a.FileName)
	}
	r.log.Debug("ingestion_log created", "attempt_id", a.ID, "file_name", a.FileName)
	return a.ID, nil
}

// Update writes the terminal state of an attempt.
func (r *attemptRepo) Update(ctx context.Context, id string, endTime time.Time, status constants.AttemptStatus, message string) error {
	if !status.IsTerminal() {
		return common.DatabaseError(common.ErrInvalidInput, "attempt %s: status %q is not terminal", id, status)
	}
	q, args := r.builder().Update(constants.TableIngestionLogs).
		Set("end_time", endTime.UTC()).
		Set("status", string(status)).
		Set("message", message).
		Where(entsql.EQ("id", id)).
		Query()
	return r.execOne(ctx, id, q, args)
}

func (r *attemptRepo) execOne(ctx context.Context, id, q string, args []any) error {
	var res sql.Result
	if err := r.drv.Exec(ctx, q, args, &res); err != nil {
		r.log.Error("ingestion_log update failed", "attempt_id", id, "err", err)
		return common.DatabaseError(err, "update attempt %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.DatabaseError(err, "update attempt %s", id)
	}
	if n == 0 {
		return common.DatabaseError(common.ErrNotFound, "attempt %s", id)
	}
	return nil
}

func (r *attemptRepo) Get(ctx context.Context, id string) (*entity.Attempt, error) {
	q, args := r.builder().Select(attemptColumns...).
		From(r.builder().Table(constants.TableIngestionLogs)).
		Where(entsql.EQ("id", id)).
		Query()
	out, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, common.DatabaseError(common.ErrNotFound, "attempt %s", id)
	}
	return &out[0], nil
}

// List returns attempts newest first.
func (r *attemptRepo) List(ctx context.Context, f ListAttemptsFilter) ([]entity.Attempt, error) {
	sel := r.builder().Select(attemptColumns...).
		From(r.builder().Table(constants.TableIngestionLogs))
	if f.Status != "" {
		sel.Where(entsql.EQ("status", string(f.Status)))
	}
	if f.FilePrefix != "" {
		sel.Where(entsql.HasPrefix("file_name", f.FilePrefix))
	}
	if !f.Since.IsZero() {
		sel.Where(entsql.GTE("start_time", f.Since.UTC()))
	}
	if !f.Until.IsZero() {
		sel.Where(entsql.LTE("start_time", f.Until.UTC()))
	}
	sel.OrderBy(entsql.Desc("start_time"), entsql.Asc("id"))
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	if f.Offset > 0 {
		sel.Offset(f.Offset)
	}
	q, args := sel.Query()
	return r.query(ctx, q, args)
}

func (r *attemptRepo) query(ctx context.Context, q string, args []any) ([]entity.Attempt, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, common.DatabaseError(err, "query attempts")
	}
	defer rows.Close()

	var out []entity.Attempt
	for rows.Next() {
		var (
			a        entity.Attempt
			status   string
			end      sql.NullTime
			message  sql.NullString
			checksum sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.FileName, &a.StartTime, &end, &status, &message, &a.RecordCount, &checksum); err != nil {
			return nil, common.DatabaseError(err, "scan attempt")
		}
		a.Status = constants.AttemptStatus(status)
		if end.Valid {
			t := end.Time
			a.EndTime = &t
		}
		if message.Valid {
			m := message.String
			a.Message = &m
		}
		a.Checksum = checksum.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseError(err, "iterate attempts")
	}
	return out, nil
}

// IsNotFound reports whether err is a missing-row error from this package.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
