package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/file-ingestor/internal/async"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

type recordingProcessor struct {
	mu     sync.Mutex
	seen   []string
	traces []string
	fail   map[string]error
}

func (p *recordingProcessor) Process(ctx context.Context, ref entity.FileReference) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, ref.Key)
	p.traces = append(p.traces, common.TraceIDFromContext(ctx))
	return p.fail[ref.Key]
}

type blockingProcessor struct {
	started chan struct{}
	release chan struct{}
}

func (p *blockingProcessor) Process(context.Context, entity.FileReference) error {
	p.started <- struct{}{}
	<-p.release
	return nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestQueueProcessesEveryJob(t *testing.T) {
	proc := &recordingProcessor{fail: map[string]error{"bad.csv": errors.New("boom")}}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(3), WithQueueSize(2))

	var (
		mu      sync.Mutex
		results = map[string]error{}
	)
	keys := []string{"a.csv", "b.csv", "bad.csv", "c.csv", "d.csv"}
	for _, k := range keys {
		k := k
		require.NoError(t, q.Enqueue(context.Background(), async.Job{
			Ref:     entity.FileReference{Container: "bucket", Key: k},
			TraceID: "trace-" + k,
			Done: func(err error) {
				mu.Lock()
				results[k] = err
				mu.Unlock()
			},
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	sort.Strings(proc.seen)
	assert.Equal(t, []string{"a.csv", "b.csv", "bad.csv", "c.csv", "d.csv"}, proc.seen)
	assert.Contains(t, proc.traces, "trace-a.csv")
	require.Len(t, results, 5)
	assert.EqualError(t, results["bad.csv"], "boom")
	assert.NoError(t, results["a.csv"])
}

func TestQueueEnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&recordingProcessor{}, quietLogger(), WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), async.Job{Ref: entity.FileReference{Container: "b", Key: "x"}})
	assert.ErrorIs(t, err, async.ErrQueueClosed)
}

func TestQueueBackpressureHonoursContext(t *testing.T) {
	proc := &blockingProcessor{started: make(chan struct{}, 1), release: make(chan struct{})}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(1), WithQueueSize(1))
	ref := entity.FileReference{Container: "b", Key: "x"}

	require.NoError(t, q.Enqueue(context.Background(), async.Job{Ref: ref}))
	<-proc.started
	require.NoError(t, q.Enqueue(context.Background(), async.Job{Ref: ref}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.Enqueue(ctx, async.Job{Ref: ref})
	assert.ErrorIs(t, err, context.Canceled)

	close(proc.release)
	<-proc.started
	q.Shutdown(context.Background())
}

func TestQueueShutdownReleasesBlockedEnqueue(t *testing.T) {
	proc := &blockingProcessor{started: make(chan struct{}, 1), release: make(chan struct{})}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(1), WithQueueSize(1))
	ref := entity.FileReference{Container: "b", Key: "x"}

	require.NoError(t, q.Enqueue(context.Background(), async.Job{Ref: ref}))
	<-proc.started
	require.NoError(t, q.Enqueue(context.Background(), async.Job{Ref: ref}))

	blocked := make(chan error, 1)
	go func() { blocked <- q.Enqueue(context.Background(), async.Job{Ref: ref}) }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	shutdownDone := make(chan struct{})
	go func() { q.Shutdown(ctx); close(shutdownDone) }()

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, async.ErrQueueClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue still blocked after Shutdown")
	}
	select {
	case <-shutdownDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown ignored its context")
	}

	close(proc.release)
	<-proc.started
}
