// Package artifact writes screenshot files to their fixed paths.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyPath is returned for a blank artifact path.
var ErrEmptyPath = errors.New("empty artifact path")

// Writer stores artifacts below Dir. Relative paths are resolved against
// Dir; absolute paths are used as given. Existing files are replaced.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{Dir: dir}
}

// Path returns the file path an artifact named rel is written to.
func (w *Writer) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(w.Dir, filepath.FromSlash(rel))
}

// Write stores data at rel, creating parent directories as needed, and
// returns the path written. Readers never see a partial image.
func (w *Writer) Write(rel string, data []byte) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", ErrEmptyPath
	}
	dst := w.Path(rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	if err := replaceFile(dst, data); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", dst, err)
	}
	return dst, nil
}
