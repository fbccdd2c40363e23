package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		require.NoError(t, q.Push(i))
	}
	assert.Equal(t, 100, q.Len())

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		v, err := q.Pop(ctx)
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PopBlocks(t *testing.T) {
	q := New[string]()

	got := make(chan string, 1)
	go func() {
		v, err := q.Pop(context.Background())
		if err == nil {
			got <- v
		}
	}()

	select {
	case <-got:
		t.Fatal("pop returned before push")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, q.Push("foo"))
	select {
	case v := <-got:
		assert.Equal(t, "foo", v)
	case <-time.After(time.Second):
		t.Fatal("pop did not return")
	}
}

func TestQueue_Context(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestQueue_Close(t *testing.T) {
	q := New[int]()
	require.NoError(t, q.Push(1))
	q.Close()
	q.Close()

	assert.Equal(t, ErrClosed, q.Push(2))

	v, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = q.Pop(context.Background())
	assert.Equal(t, ErrClosed, err)
}

func TestQueue_ConcurrentConsumers(t *testing.T) {
	const (
		producers = 4
		perProd   = 500
	)
	q := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mx   sync.Mutex
		seen = make(map[int]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, err := q.Pop(ctx)
				if err != nil {
					return
				}
				mx.Lock()
				seen[v] = true
				mx.Unlock()
			}
		}()
	}

	for p := 0; p < producers; p++ {
		go func(p int) {
			for i := 0; i < perProd; i++ {
				_ = q.Push(p*perProd + i) // nolint: errcheck
			}
		}(p)
	}

	require.Eventually(t, func() bool {
		mx.Lock()
		defer mx.Unlock()
		return len(seen) == producers*perProd
	}, 5*time.Second, 10*time.Millisecond)

	q.Close()
	wg.Wait()
}
