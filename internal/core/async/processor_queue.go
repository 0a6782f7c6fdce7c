package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/file-ingestor/internal/async"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// FileProcessor is satisfied by *core.Processor.
type FileProcessor interface {
	Process(ctx context.Context, ref entity.FileReference) error
}

// ProcessorQueue feeds jobs from a bounded channel to a fixed set of workers.
type ProcessorQueue struct {
	proc    FileProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan async.Job
	wg   sync.WaitGroup
	once sync.Once

	// mu guards closed and senders.Add only; sends happen outside it.
	mu      sync.Mutex
	closed  bool
	stop    chan struct{}
	senders sync.WaitGroup
}

var _ async.Queue = (*ProcessorQueue)(nil)

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan async.Job, n)
		}
	}
}

// WithProcessTimeout bounds each job. Zero leaves jobs unbounded.
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d >= 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc FileProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 5 * time.Minute,
		ch:      make(chan async.Job, 256),
		stop:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job async.Job) {
	ctx := context.Background()
	if job.TraceID != "" {
		ctx = common.WithTraceID(ctx, job.TraceID)
	}
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	err := q.proc.Process(ctx, job.Ref)
	if err != nil {
		q.logger.Error("processing failed",
			"worker_id", workerID, "file_name", job.Ref.FileName(), "kind", common.KindOf(err), "error", err)
	} else {
		q.logger.Info("processed file successfully",
			"worker_id", workerID, "file_name", job.Ref.FileName(), "waited", time.Since(job.SubmittedAt).String())
	}
	if job.Done != nil {
		job.Done(err)
	}
}

// Enqueue blocks while the queue is full until ctx is done or the queue
// shuts down.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job async.Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "file_name", job.Ref.FileName())
		return async.ErrQueueClosed
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if job.TraceID == "" {
		job.TraceID = common.TraceIDFromContext(ctx)
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued file for processing", "file_name", job.Ref.FileName())
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "file_name", job.Ref.FileName())
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stop:
		q.logger.Warn("cannot enqueue: queue is shutting down", "file_name", job.Ref.FileName())
		return async.ErrQueueClosed
	}
}

// Shutdown stops intake, releases blocked Enqueue calls and waits for queued
// jobs to finish or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.stop)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.senders.Wait()
		close(q.ch)
		q.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
