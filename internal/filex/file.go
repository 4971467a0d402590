// Package filex contains filesystem helpers for locating the local database.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsFileDSN reports whether dsn names an on-disk database rather than an
// in-memory one.
func IsFileDSN(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.Contains(dsn, "mode=memory")
}

// EnsureParentDir creates the directory that will hold path, owner-only.
// In-memory DSNs are ignored.
func EnsureParentDir(path string) (string, error) {
	if !IsFileDSN(path) {
		return "", nil
	}
	dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
	if i := strings.IndexByte(dir, '?'); i >= 0 {
		dir = dir[:i]
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
