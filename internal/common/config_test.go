package common

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/ingest")
	t.Setenv("SQS_QUEUE_URL", "https://sqs.local/queue")

	cfg := LoadConfig()
	assert.Equal(t, DatabasePostgres, cfg.Database.Type)
	assert.Equal(t, int32(10), cfg.AWS.MaxMessages)
	assert.Equal(t, 20*time.Second, cfg.AWS.WaitTime)
	assert.Equal(t, RulesSourceDB, cfg.Rules.Source)
	assert.Equal(t, TriggerSQS, cfg.Trigger.Mode)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "SQLite")
	t.Setenv("DB_URL", "file:ingest.db")
	t.Setenv("TRIGGER_MODE", "watch")
	t.Setenv("WATCH_DIRS", " ./in , ./more ,")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("WATCH_DEBOUNCE", "2s")

	cfg := LoadConfig()
	assert.Equal(t, DatabaseSQLite, cfg.Database.Type)
	assert.Equal(t, []string{"./in", "./more"}, cfg.Trigger.WatchDirs)
	assert.Equal(t, 8, cfg.Worker.Count)
	assert.Equal(t, 2*time.Second, cfg.Trigger.Debounce)
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := LoadConfig()
	cfg.Database.Type = "mongodb"
	cfg.Database.DSN = ""
	cfg.Rules.Source = RulesSourceFile
	cfg.AWS.QueueURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	for _, field := range []string{"DATABASE_TYPE", "DB_URL", "RULES_FILE", "SQS_QUEUE_URL"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
