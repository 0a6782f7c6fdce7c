package rules

import (
	"context"
	"fmt"
	"os"

	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// FileSource reads rules from a YAML or JSON file on every lookup, so edits
// apply without a restart.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Rules(context.Context) ([]entity.Rule, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseDocument(data)
}
