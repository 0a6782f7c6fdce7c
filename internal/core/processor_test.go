package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/core/parse"
	"github.com/joseph-ayodele/file-ingestor/internal/core/rules"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

type mockFetcher struct{ mock.Mock }

func (m *mockFetcher) Fetch(ctx context.Context, container, key string) ([]byte, error) {
	args := m.Called(ctx, container, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type mockPersister struct{ mock.Mock }

func (m *mockPersister) InsertBatch(ctx context.Context, destination string, records []entity.Record, logID string) ([]string, error) {
	args := m.Called(ctx, destination, records, logID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockAttempts struct{ mock.Mock }

func (m *mockAttempts) Create(ctx context.Context, a *entity.Attempt) (string, error) {
	args := m.Called(ctx, a)
	return args.String(0), args.Error(1)
}

func (m *mockAttempts) Update(ctx context.Context, id string, end time.Time, status constants.AttemptStatus, message string) error {
	return m.Called(ctx, id, end, status, message).Error(0)
}

var (
	t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(2 * time.Second)
)

// sequenceClock returns the given instants in order, then repeats the last.
func sequenceClock(ts ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := ts[min(i, len(ts)-1)]
		i++
		return t
	}
}

type fixture struct {
	fetcher  *mockFetcher
	records  *mockPersister
	attempts *mockAttempts
	proc     *Processor
}

func newFixture(ruleSet ...entity.Rule) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		fetcher:  new(mockFetcher),
		records:  new(mockPersister),
		attempts: new(mockAttempts),
	}
	f.proc = NewProcessor(logger,
		rules.NewResolver(rules.StaticSource(ruleSet), logger),
		f.fetcher,
		parse.NewDispatcher(logger),
		f.records,
		f.attempts,
		WithClock(sequenceClock(t0, t1)),
	)
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.fetcher.AssertExpectations(t)
	f.records.AssertExpectations(t)
	f.attempts.AssertExpectations(t)
}

var csvRule = entity.Rule{Pattern: `.*\.csv$`, Destination: "people"}

func TestProcessSuccess(t *testing.T) {
	f := newFixture(csvRule)
	ctx := context.Background()
	ref := entity.FileReference{Container: "bucket", Key: "in/people.csv"}

	f.fetcher.On("Fetch", ctx, "bucket", "in/people.csv").Return([]byte("name,age\nann,3\nbob,4\n"), nil)
	f.attempts.On("Create", ctx, mock.MatchedBy(func(a *entity.Attempt) bool {
		return a.FileName == "bucket/in/people.csv" &&
			a.Status == constants.AttemptStatusRunning &&
			a.StartTime.Equal(t0) &&
			a.RecordCount == 2 &&
			a.Checksum != ""
	})).Return("att-1", nil)
	f.records.On("InsertBatch", ctx, "people", mock.MatchedBy(func(recs []entity.Record) bool {
		if len(recs) != 2 {
			return false
		}
		for _, r := range recs {
			v, _ := r.Get(constants.FieldFileName)
			if v != "bucket/in/people.csv" {
				return false
			}
		}
		name, _ := recs[0].Get("name")
		return name == "ann"
	}), "att-1").Return([]string{"r1", "r2"}, nil)
	f.attempts.On("Update", mock.Anything, "att-1", t1, constants.AttemptStatusSuccess, constants.SuccessMessage).Return(nil)

	require.NoError(t, f.proc.Process(ctx, ref))
	f.assertExpectations(t)
}

func TestProcessNoMatchingRuleCreatesNoAttempt(t *testing.T) {
	f := newFixture(csvRule)

	err := f.proc.Process(context.Background(), entity.FileReference{Container: "b", Key: "file.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoMatchingRule)
	f.fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
	f.attempts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessFetchFailureIsTransport(t *testing.T) {
	f := newFixture(csvRule)
	ctx := context.Background()
	f.fetcher.On("Fetch", ctx, "b", "x.csv").Return(nil, errors.New("connection reset"))

	err := f.proc.Process(ctx, entity.FileReference{Container: "b", Key: "x.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransport)
	assert.Equal(t, common.KindTransport, common.KindOf(err))
	f.attempts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessUnsupportedTypeIsParseError(t *testing.T) {
	f := newFixture(entity.Rule{Pattern: `.*`, Destination: "any"})
	ctx := context.Background()
	f.fetcher.On("Fetch", ctx, "b", "report.pdf").Return([]byte("%PDF"), nil)

	err := f.proc.Process(ctx, entity.FileReference{Container: "b", Key: "report.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedType)
	assert.ErrorIs(t, err, common.ErrParse)
	f.attempts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.records.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessMalformedInputCreatesNoAttempt(t *testing.T) {
	f := newFixture(entity.Rule{Pattern: `.*\.json$`, Destination: "docs"})
	ctx := context.Background()
	f.fetcher.On("Fetch", ctx, "b", "bad.json").Return([]byte("{not json"), nil)

	err := f.proc.Process(ctx, entity.FileReference{Container: "b", Key: "bad.json"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrParse)
	f.attempts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessCreateFailureIsFatal(t *testing.T) {
	f := newFixture(csvRule)
	ctx := context.Background()
	f.fetcher.On("Fetch", ctx, "b", "x.csv").Return([]byte("a\n1\n"), nil)
	f.attempts.On("Create", ctx, mock.Anything).Return("", errors.New("disk full"))

	err := f.proc.Process(ctx, entity.FileReference{Container: "b", Key: "x.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDatabase)
	f.records.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.attempts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessInsertFailureMarksAttemptFailed(t *testing.T) {
	f := newFixture(csvRule)
	ctx := context.Background()
	insertErr := common.DatabaseError(errors.New("duplicate key"), "insert into people")

	f.fetcher.On("Fetch", ctx, "b", "x.csv").Return([]byte("a\n1\n"), nil)
	f.attempts.On("Create", ctx, mock.Anything).Return("att-9", nil)
	f.records.On("InsertBatch", ctx, "people", mock.Anything, "att-9").Return(nil, insertErr)
	f.attempts.On("Update", mock.Anything, "att-9", t1, constants.AttemptStatusFailed, insertErr.Error()).Return(nil)

	err := f.proc.Process(ctx, entity.FileReference{Container: "b", Key: "x.csv"})
	require.Error(t, err)
	assert.Same(t, insertErr, err)
	f.assertExpectations(t)
}

func TestProcessUpdateFailureIsSwallowed(t *testing.T) {
	f := newFixture(csvRule)
	ctx := context.Background()

	f.fetcher.On("Fetch", ctx, "b", "x.csv").Return([]byte("a\n1\n"), nil)
	f.attempts.On("Create", ctx, mock.Anything).Return("att-2", nil)
	f.records.On("InsertBatch", ctx, "people", mock.Anything, "att-2").Return([]string{"r"}, nil)
	f.attempts.On("Update", mock.Anything, "att-2", t1, constants.AttemptStatusSuccess, constants.SuccessMessage).
		Return(common.DatabaseError(common.ErrNotFound, "attempt att-2"))

	require.NoError(t, f.proc.Process(ctx, entity.FileReference{Container: "b", Key: "x.csv"}))
	f.assertExpectations(t)
}

func TestProcessUsesMostSpecificRule(t *testing.T) {
	f := newFixture(
		entity.Rule{Pattern: `.*\.csv$`, Destination: "A"},
		entity.Rule{Pattern: `.*test_no_headers\.csv$`, Destination: "B", DecodeConfig: map[string]any{"headers": []any{"x", "y"}}},
	)
	ctx := context.Background()
	f.fetcher.On("Fetch", ctx, "b", "test_no_headers.csv").Return([]byte("1,2\n3,4\n"), nil)
	f.attempts.On("Create", ctx, mock.Anything).Return("att-3", nil)
	f.records.On("InsertBatch", ctx, "B", mock.MatchedBy(func(recs []entity.Record) bool {
		if len(recs) != 2 {
			return false
		}
		x, _ := recs[0].Get("x")
		return x == "1"
	}), "att-3").Return([]string{"1", "2"}, nil)
	f.attempts.On("Update", mock.Anything, "att-3", t1, constants.AttemptStatusSuccess, constants.SuccessMessage).Return(nil)

	require.NoError(t, f.proc.Process(ctx, entity.FileReference{Container: "b", Key: "test_no_headers.csv"}))
	f.assertExpectations(t)
}

func TestProcessFinishesAttemptAfterCancellation(t *testing.T) {
	f := newFixture(csvRule)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.fetcher.On("Fetch", ctx, "b", "x.csv").Return([]byte("a\n1\n"), nil)
	f.attempts.On("Create", ctx, mock.Anything).Return("att-4", nil)
	f.records.On("InsertBatch", ctx, "people", mock.Anything, "att-4").
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)
	f.attempts.On("Update",
		mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }),
		"att-4", t1, constants.AttemptStatusFailed, mock.Anything,
	).Return(nil)

	err := f.proc.Process(ctx, entity.FileReference{Container: "b", Key: "x.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, common.ErrDatabase)
	f.assertExpectations(t)
}
