// Package filex holds small filesystem helpers shared by the binaries.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDirFor makes sure the directory that will hold path exists and
// returns path in absolute form. Relative paths resolve against the working
// directory.
func EnsureDirFor(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	dir := filepath.Dir(abs)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return abs, nil
}
