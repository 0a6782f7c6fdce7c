package trigger

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/file-ingestor/constants"
)

// extSet builds a lookup of normalized extensions, defaulting to every
// declared type the parser understands.
func extSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return constants.AllowedExtensions
	}
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if e = constants.NormalizeExt(e); e != "" {
			m[e] = struct{}{}
		}
	}
	return m
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// refFor maps an absolute path under root to a reference keyed by the
// slash-separated relative path.
func refFor(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
