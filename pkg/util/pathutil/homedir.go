// Package pathutil expands user supplied paths and prepares directories.
package pathutil

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/skycoin/skycoin/src/util/logging"
)

var log = logging.MustGetLogger("pathutil")

// HomeDir obtains the path to the user's home directory.
func HomeDir() string {
	dir, err := homedir.Dir()
	if err != nil {
		log.WithError(err).Warn("Failed to find home directory")
		return ""
	}
	return dir
}

// Expand expands a leading ~ and cleans path. Empty paths stay empty.
func Expand(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(expanded), nil
}
