package env

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	const name = "SKYLINK_TEST_DURATION"
	defer func() { require.NoError(t, os.Unsetenv(name)) }()

	assert.Equal(t, time.Second, Duration(name, time.Second))

	require.NoError(t, os.Setenv(name, "250ms"))
	assert.Equal(t, 250*time.Millisecond, Duration(name, time.Second))

	require.NoError(t, os.Setenv(name, "soon"))
	assert.Equal(t, time.Second, Duration(name, time.Second))
}

func TestUInt32(t *testing.T) {
	const name = "SKYLINK_TEST_UINT32"
	defer func() { require.NoError(t, os.Unsetenv(name)) }()

	assert.Equal(t, uint32(3), UInt32(name, 3))

	require.NoError(t, os.Setenv(name, "7"))
	assert.Equal(t, uint32(7), UInt32(name, 3))

	require.NoError(t, os.Setenv(name, "-1"))
	assert.Equal(t, uint32(3), UInt32(name, 3))
}
