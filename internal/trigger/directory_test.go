package trigger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, filepath.FromSlash(n))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.csv", "notes.md", "sub/b.JSON", ".hidden/c.csv", ".d.txt")

	refs, stats, err := ScanDirectory(root, ScanOptions{SkipHidden: true})
	require.NoError(t, err)
	assert.Equal(t, []entity.FileReference{
		{Container: root, Key: "a.csv"},
		{Container: root, Key: "sub/b.JSON"},
	}, refs)
	assert.Equal(t, uint32(3), stats.Scanned)
	assert.Equal(t, uint32(2), stats.Matched)

	refs, _, err = ScanDirectory(root, ScanOptions{Extensions: []string{".TXT"}})
	require.NoError(t, err)
	assert.Equal(t, []entity.FileReference{{Container: root, Key: ".d.txt"}}, refs)

	_, _, err = ScanDirectory(" ", ScanOptions{})
	assert.Error(t, err)
}

func TestProcessDirectoryContinuesPastFailures(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.csv", "bad.csv", "c.csv")
	h := &recordingHandler{fail: map[string]bool{"bad.csv": true}}

	results, stats, err := ProcessDirectory(context.Background(), h, root, ScanOptions{}, 2, quietLogger())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Equal(t, "bad.csv", results[1].Ref.Key)
	assert.Equal(t, common.KindParse, results[1].Kind)
	assert.Empty(t, results[0].Err)
}
