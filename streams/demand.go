package streams

import (
	"math"
	"sync/atomic"

	serr "github.com/kbukum/streamkit/errors"
)

// Unbounded is the saturation point of demand accounting. Requesting
// Unbounded switches a producer into effectively unlimited emission.
const Unbounded = int64(math.MaxInt64)

// addCap atomically adds n to requested, saturating at Unbounded.
// It returns the value before the addition.
func addCap(requested *atomic.Int64, n int64) int64 {
	for {
		r := requested.Load()
		if r == Unbounded {
			return Unbounded
		}
		u := r + n
		if u < 0 { // overflowed past MaxInt64
			u = Unbounded
		}
		if requested.CompareAndSwap(r, u) {
			return r
		}
	}
}

// produced atomically subtracts n emitted values from requested,
// leaving Unbounded untouched.
func produced(requested *atomic.Int64, n int64) int64 {
	for {
		r := requested.Load()
		if r == Unbounded {
			return Unbounded
		}
		u := r - n
		if u < 0 {
			u = 0
		}
		if requested.CompareAndSwap(r, u) {
			return u
		}
	}
}

// validateRequest returns nil for a legal request amount, or the
// protocol-violation error to report to the consumer.
func validateRequest(n int64) error {
	if n <= 0 {
		return serr.NonPositiveRequest(n)
	}
	return nil
}
