package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// ErrQueueClosed is returned by Enqueue once Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one file waiting to be processed.
type Job struct {
	Ref         entity.FileReference
	SubmittedAt time.Time
	TraceID     string
	// Done, when set, receives the result of Process once the job finishes.
	Done func(error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
