// Package queue provides an unbounded FIFO used to hand values between
// pipeline goroutines.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned once a queue is closed.
var ErrClosed = errors.New("queue closed")

// Queue is an unbounded FIFO. Push never blocks.
type Queue[T any] struct {
	items  []T
	mx     sync.Mutex
	notify chan struct{}

	done chan struct{}
	once sync.Once
}

// New creates an empty Queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push appends v. It fails only when the queue is closed.
func (q *Queue[T]) Push(v T) error {
	q.mx.Lock()
	if q.isClosed() {
		q.mx.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, v)
	q.mx.Unlock()

	q.wake()
	return nil
}

// Pop removes and returns the oldest value, blocking until one is
// available, the queue is closed or ctx is done. Values pushed before
// Close are still returned.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		q.mx.Lock()
		if n := len(q.items); n > 0 {
			v := q.items[0]
			var zero T
			q.items[0] = zero
			q.items = q.items[1:]
			if n == 1 {
				q.items = nil
			}
			q.mx.Unlock()

			if n > 1 {
				q.wake()
			}
			return v, nil
		}
		q.mx.Unlock()

		select {
		case <-q.notify:
		case <-q.done:
			var zero T
			if q.Len() > 0 {
				continue
			}
			return zero, ErrClosed
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int {
	q.mx.Lock()
	defer q.mx.Unlock()
	return len(q.items)
}

// Close closes the queue. Blocked and future Pops return ErrClosed once
// the queue is drained.
func (q *Queue[T]) Close() {
	q.once.Do(func() {
		q.mx.Lock()
		close(q.done)
		q.mx.Unlock()
	})
}

func (q *Queue[T]) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// isClosed must be called with mx held.
func (q *Queue[T]) isClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}
