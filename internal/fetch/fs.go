package fetch

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
)

// FSFetcher treats the container as a root directory and the key as a
// slash-separated path below it. Keys cannot escape the root.
type FSFetcher struct {
	logger *slog.Logger
}

func NewFSFetcher(logger *slog.Logger) *FSFetcher {
	return &FSFetcher{logger: logger}
}

func (f *FSFetcher) Fetch(ctx context.Context, dir, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.TransportError(err, "read %s/%s", dir, key)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, common.TransportError(err, "open root %s", dir)
	}
	defer root.Close()

	file, err := root.Open(filepath.FromSlash(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.TransportError(common.ErrNotFound, "%s/%s", dir, key)
		}
		return nil, common.TransportError(err, "open %s/%s", dir, key)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, common.TransportError(err, "read %s/%s", dir, key)
	}
	f.logger.Debug("file fetched", "dir", dir, "key", key, "bytes", len(data))
	return data, nil
}
