// Package netutil contains network helpers shared by the link layer.
package netutil

import (
	"errors"
	"time"

	"github.com/skycoin/skycoin/src/util/logging"
)

var log = logging.MustGetLogger("netutil")

// ErrThresholdReached is returned when retries ran past the threshold.
var ErrThresholdReached = errors.New("threshold timeout has been reached")

// RetryFunc is a function retried by Retrier.
type RetryFunc func() error

// Retrier retries a function with exponential backoff until it succeeds,
// fails with a non-retryable error or the threshold is reached.
type Retrier struct {
	exponentialBackoff time.Duration
	exponentialFactor  uint32
	threshold          time.Duration
	errWhitelist       map[error]struct{}
	errFilter          func(error) bool
}

// NewRetrier returns a retrier that waits backoff between the first two
// attempts, multiplying the wait by factor after every failure.
func NewRetrier(exponentialBackoff, threshold time.Duration, factor uint32) *Retrier {
	return &Retrier{
		exponentialBackoff: exponentialBackoff,
		threshold:          threshold,
		exponentialFactor:  factor,
		errWhitelist:       make(map[error]struct{}),
	}
}

// WithErrWhitelist makes the given errors returned immediately instead of retried.
func (r *Retrier) WithErrWhitelist(errors ...error) *Retrier {
	m := make(map[error]struct{})
	for _, err := range errors {
		m[err] = struct{}{}
	}

	r.errWhitelist = m
	return r
}

// WithErrFilter makes every error for which fatal returns true returned
// immediately instead of retried.
func (r *Retrier) WithErrFilter(fatal func(error) bool) *Retrier {
	r.errFilter = fatal
	return r
}

// Do runs f until it succeeds. Attempts never overlap.
func (r Retrier) Do(f RetryFunc) error {
	deadline := time.Now().Add(r.threshold)
	currentBackoff := r.exponentialBackoff

	for {
		err := f()
		if err == nil {
			return nil
		}
		if r.isFatal(err) {
			return err
		}
		if time.Now().Add(currentBackoff).After(deadline) {
			log.WithError(err).Warn("Giving up retrying")
			return ErrThresholdReached
		}

		log.WithError(err).Warnf("Retrying in %s", currentBackoff)
		time.Sleep(currentBackoff)
		currentBackoff *= time.Duration(r.exponentialFactor)
	}
}

func (r Retrier) isFatal(err error) bool {
	if _, ok := r.errWhitelist[err]; ok {
		return true
	}
	return r.errFilter != nil && r.errFilter(err)
}
