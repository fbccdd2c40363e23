package pathutil

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home := HomeDir()
	require.NotEmpty(t, home)

	got, err := Expand("~/journal/../skylink.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "skylink.db"), got)

	got, err = Expand("")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = Expand("/tmp/./x")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", got)
}

func TestEnsureParent(t *testing.T) {
	dir, err := ioutil.TempDir("", "pathutil")
	require.NoError(t, err)
	defer func() { require.NoError(t, os.RemoveAll(dir)) }()

	path := filepath.Join(dir, "a", "b", "journal.db")
	got, err := EnsureParent(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	info, err := os.Stat(filepath.Join(dir, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
