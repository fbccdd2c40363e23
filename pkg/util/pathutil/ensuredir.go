package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates path if it does not exist and returns it as an
// absolute path.
func EnsureDir(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %s", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		if err := os.MkdirAll(absPath, 0750); err != nil {
			return "", fmt.Errorf("failed to create dir: %s", err)
		}
	}

	return absPath, nil
}

// EnsureParent expands path and creates its parent directory.
func EnsureParent(path string) (string, error) {
	expanded, err := Expand(path)
	if err != nil {
		return "", err
	}
	if _, err := EnsureDir(filepath.Dir(expanded)); err != nil {
		return "", err
	}
	return expanded, nil
}
