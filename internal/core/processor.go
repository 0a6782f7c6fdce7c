package core

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// finishTimeout bounds the terminal attempt update, which runs even after
// the caller's context is done.
const finishTimeout = 10 * time.Second

// RuleResolver picks the rule for an object key.
type RuleResolver interface {
	Resolve(ctx context.Context, key string) (entity.Rule, error)
}

// Fetcher reads the raw bytes of an object.
type Fetcher interface {
	Fetch(ctx context.Context, container, key string) ([]byte, error)
}

// Parser turns raw bytes of a declared type into records.
type Parser interface {
	Parse(data []byte, declaredType string, cfg map[string]any) ([]entity.Record, error)
}

// Persister stores a batch of records, all or nothing.
type Persister interface {
	InsertBatch(ctx context.Context, destination string, records []entity.Record, logID string) ([]string, error)
}

// AttemptLog records one row per processing attempt.
type AttemptLog interface {
	Create(ctx context.Context, a *entity.Attempt) (string, error)
	Update(ctx context.Context, id string, endTime time.Time, status constants.AttemptStatus, message string) error
}

// Processor runs resolve -> fetch -> parse -> log -> persist for one file.
type Processor struct {
	logger   *slog.Logger
	resolver RuleResolver
	fetcher  Fetcher
	parser   Parser
	records  Persister
	attempts AttemptLog
	now      func() time.Time
}

type ProcessorOption func(*Processor)

// WithClock overrides the time source used for attempt timestamps.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

func NewProcessor(
	logger *slog.Logger,
	resolver RuleResolver,
	fetcher Fetcher,
	parser Parser,
	records Persister,
	attempts AttemptLog,
	opts ...ProcessorOption,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:   logger,
		resolver: resolver,
		fetcher:  fetcher,
		parser:   parser,
		records:  records,
		attempts: attempts,
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process ingests one file. Failures before the attempt row exists return
// without writing anything; once it exists it always receives a terminal status.
func (p *Processor) Process(ctx context.Context, ref entity.FileReference) error {
	fileName := ref.FileName()
	log := common.LoggerFrom(ctx, p.logger).With("file_name", fileName)

	rule, err := p.resolver.Resolve(ctx, ref.Key)
	if err != nil {
		log.Warn("processor.resolve.failed", "kind", common.KindOf(err), "error", err)
		return err
	}
	log.Debug("processor rule resolved", "pattern", rule.Pattern, "destination", rule.Destination)

	data, err := p.fetcher.Fetch(ctx, ref.Container, ref.Key)
	if err != nil {
		log.Error("processor.fetch.failed", "error", err)
		if common.KindOf(err) == common.KindTransport {
			return err
		}
		return common.TransportError(err, "fetch %s", fileName)
	}

	declared := constants.DeclaredType(ref.Key)
	records, err := p.parser.Parse(data, declared, rule.DecodeConfig)
	if err != nil {
		log.Error("processor.parse.failed", "type", declared, "error", err)
		return err
	}
	for _, r := range records {
		r.Set(constants.FieldFileName, fileName)
	}

	attempt := &entity.Attempt{
		FileName:    fileName,
		StartTime:   p.now(),
		Status:      constants.AttemptStatusRunning,
		RecordCount: len(records),
		Checksum:    strconv.FormatUint(xxhash.Sum64(data), 16),
	}
	attemptID, err := p.attempts.Create(ctx, attempt)
	if err != nil {
		log.Error("processor.attempt.create.failed", "error", err)
		if common.KindOf(err) == common.KindDatabase {
			return err
		}
		return common.DatabaseError(err, "create attempt for %s", fileName)
	}
	log = log.With("attempt_id", attemptID)

	_, insertErr := p.records.InsertBatch(ctx, rule.Destination, records, attemptID)
	if insertErr != nil && common.KindOf(insertErr) == "" {
		insertErr = common.DatabaseError(insertErr, "insert into %s", rule.Destination)
	}

	status, message := constants.AttemptStatusSuccess, constants.SuccessMessage
	if insertErr != nil {
		status, message = constants.AttemptStatusFailed, insertErr.Error()
	}
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	if err := p.attempts.Update(finishCtx, attemptID, p.now(), status, message); err != nil {
		log.Error("processor.attempt.update.failed", "status", status, "error", err)
	}

	if insertErr != nil {
		log.Error("processor.persist.failed", "destination", rule.Destination, "error", insertErr)
		return insertErr
	}
	log.Info("file processed", "destination", rule.Destination, "records", len(records), "type", declared)
	return nil
}
