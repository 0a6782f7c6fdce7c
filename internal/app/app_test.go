package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
	"github.com/joseph-ayodele/file-ingestor/internal/repository"
)

func testConfig() *common.Config {
	return &common.Config{
		Database: common.DatabaseConfig{
			Type: common.DatabaseSQLite,
			DSN:  "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		},
		Rules:   common.RulesConfig{Source: common.RulesSourceDB},
		Trigger: common.TriggerConfig{Mode: common.TriggerWatch},
	}
}

func TestEndToEndLocalFile(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()

	a, err := New(ctx, cfg, FetchBackend(cfg), logger)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.RuleStore())

	require.NoError(t, a.RuleRepo.Replace(ctx, []entity.Rule{
		{Pattern: `.*\.csv$`, Destination: "people"},
		{Pattern: `.*\.txt$`, Destination: "bad-name"},
	}))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.csv"), []byte("name,age\nann,3\nbob,4\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello\n"), 0o644))

	require.NoError(t, a.Processor.Process(ctx, entity.FileReference{Container: dir, Key: "people.csv"}))

	err = a.Processor.Process(ctx, entity.FileReference{Container: dir, Key: "notes.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDatabase)

	err = a.Processor.Process(ctx, entity.FileReference{Container: dir, Key: "image.png"})
	assert.ErrorIs(t, err, common.ErrNoMatchingRule)

	attempts, err := a.Attempts.List(ctx, repository.ListAttemptsFilter{})
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	byFile := map[string]entity.Attempt{}
	for _, at := range attempts {
		byFile[at.FileName] = at
	}
	ok := byFile[dir+"/people.csv"]
	assert.Equal(t, constants.AttemptStatusSuccess, ok.Status)
	assert.Equal(t, 2, ok.RecordCount)
	require.NotNil(t, ok.Message)
	assert.Equal(t, constants.SuccessMessage, *ok.Message)

	failed := byFile[dir+"/notes.txt"]
	assert.Equal(t, constants.AttemptStatusFailed, failed.Status)
	require.NotNil(t, failed.Message)
	assert.Contains(t, *failed.Message, "bad-name")

	var n int
	require.NoError(t, a.Store.Driver.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM people WHERE log_id = ?`, ok.ID).Scan(&n))
	assert.Equal(t, 2, n)

	data, err := a.Exporter.ExportAttemptsXLSX(ctx, repository.ListAttemptsFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestFileRulesHideRuleStore(t *testing.T) {
	cfg := testConfig()
	cfg.Rules = common.RulesConfig{Source: common.RulesSourceFile, File: filepath.Join(t.TempDir(), "rules.yaml")}

	a, err := New(context.Background(), cfg, FetchFS, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.RuleStore())
}
