package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
	"github.com/joseph-ayodele/file-ingestor/internal/repository"
)

type stubLister struct {
	attempts []entity.Attempt
	err      error
	got      repository.ListAttemptsFilter
}

func (s *stubLister) List(_ context.Context, f repository.ListAttemptsFilter) ([]entity.Attempt, error) {
	s.got = f
	return s.attempts, s.err
}

func TestExportAttemptsXLSX(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	msg := "File processed successfully"
	lister := &stubLister{attempts: []entity.Attempt{
		{ID: "a1", FileName: "b/x.csv", StartTime: start, EndTime: &end, Status: constants.AttemptStatusSuccess, Message: &msg, RecordCount: 3},
		{ID: "a2", FileName: "b/y.csv", StartTime: start, Status: constants.AttemptStatusRunning},
	}}
	svc := NewService(lister, nil)

	data, err := svc.ExportAttemptsXLSX(context.Background(), repository.ListAttemptsFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, lister.got.Limit)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"a1", "b/x.csv", "SUCCESS", "2024-01-02 03:04:05", "2024-01-02 03:04:06", "1.5", "3", msg}, rows[1])
	require.GreaterOrEqual(t, len(rows[2]), 7)
	assert.Equal(t, []string{"a2", "b/y.csv", "RUNNING", "2024-01-02 03:04:05", "", "", "0"}, rows[2][:7])
}

func TestExportAttemptsXLSXListError(t *testing.T) {
	svc := NewService(&stubLister{err: errors.New("db down")}, nil)
	_, err := svc.ExportAttemptsXLSX(context.Background(), repository.ListAttemptsFilter{})
	assert.ErrorContains(t, err, "db down")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, 500, len([]rune(truncate(strings.Repeat("é", 600), 500))))
}
