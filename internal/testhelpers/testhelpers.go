// Package testhelpers provides helpers for testing.
package testhelpers

import (
	"errors"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const timeout = 5 * time.Second

// ErrTimeout is returned by WithinTimeout when nothing was received.
var ErrTimeout = errors.New("timed out waiting for result")

// WithinTimeout tries to read an error from error channel within timeout and returns it.
// If timeout exceeds, ErrTimeout is returned.
func WithinTimeout(ch <-chan error) error {
	select {
	case err := <-ch:
		return err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

// NoErrorN performs require.NoError on multiple errors
func NoErrorN(t *testing.T, errs ...error) {
	for _, err := range errs {
		require.NoError(t, err)
	}
}

// TempDir creates a temporary directory and returns it with a function
// removing it.
func TempDir(t *testing.T, prefix string) (string, func()) {
	dir, err := ioutil.TempDir("", prefix)
	require.NoError(t, err)
	return dir, func() { require.NoError(t, os.RemoveAll(dir)) }
}
