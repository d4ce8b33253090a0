//go:build windows

package artifact

import "os"

func replaceFile(dst string, data []byte) error {
	return os.WriteFile(dst, data, 0o644)
}
