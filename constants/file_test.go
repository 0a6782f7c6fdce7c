package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeclaredType(t *testing.T) {
	cases := map[string]string{
		"data/test.csv":        "csv",
		"data/REPORT.XLSX":     "xlsx",
		"archive.tar.gz":       "gz",
		"no-extension":         "",
		"trailing.":            "",
		"dir.v2/file.parquet":  "parquet",
		"dir.v2/noext":         "v2/noext",
	}
	for key, want := range cases {
		assert.Equal(t, want, DeclaredType(key), key)
	}
}

func TestAttemptStatusIsTerminal(t *testing.T) {
	assert.False(t, AttemptStatusRunning.IsTerminal())
	assert.True(t, AttemptStatusSuccess.IsTerminal())
	assert.True(t, AttemptStatusFailed.IsTerminal())
}
