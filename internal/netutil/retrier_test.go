package netutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrier_Do(t *testing.T) {
	r := NewRetrier(time.Millisecond*100, time.Millisecond*500, 2)
	c := 0
	threshold := 2
	f := func() error {
		c++
		if c >= threshold {
			return nil
		}

		return errors.New("foo")
	}

	t.Run("should retry", func(t *testing.T) {
		c = 0

		err := r.Do(f)
		require.NoError(t, err)
		assert.Equal(t, 2, c)
	})

	t.Run("if retry reaches threshold should error", func(t *testing.T) {
		c = 0
		threshold = 4
		defer func() {
			threshold = 2
		}()

		err := r.Do(f)
		require.Equal(t, ErrThresholdReached, err)
	})

	t.Run("should return whitelisted errors if any instead of retry", func(t *testing.T) {
		bar := errors.New("bar")
		wR := NewRetrier(50*time.Millisecond, time.Second, 2).WithErrWhitelist(bar)
		calls := 0
		barF := func() error {
			calls++
			return bar
		}

		err := wR.Do(barF)
		require.EqualError(t, err, bar.Error())
		assert.Equal(t, 1, calls)
	})

	t.Run("should return filtered errors instead of retry", func(t *testing.T) {
		baz := errors.New("baz")
		fR := NewRetrier(50*time.Millisecond, time.Second, 2).WithErrFilter(func(err error) bool {
			return errors.Is(err, baz)
		})

		err := fR.Do(func() error { return baz })
		require.Equal(t, baz, err)
	})
}
