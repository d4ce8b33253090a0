//go:build !windows

package artifact

import "github.com/google/renameio/v2"

// replaceFile swaps dst for a fully written copy of data. An existing file
// keeps its permissions.
func replaceFile(dst string, data []byte) error {
	return renameio.WriteFile(dst, data, 0o644)
}
