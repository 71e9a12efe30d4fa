package streams

import (
	"sync/atomic"

	serr "github.com/kbukum/streamkit/errors"
)

// emptySubscription is a no-op subscription handed to subscribers whose
// sequence terminates immediately. It grants no fusion and buffers
// nothing.
type emptySubscription[T any] struct {
	noFusion[T]
}

func (emptySubscription[T]) Request(int64) {}
func (emptySubscription[T]) Cancel()       {}

// ErrorTo completes the handshake for s with an immediate failure:
// OnSubscribe with an inert subscription, then OnError.
func ErrorTo[T any](s Subscriber[T], err error) {
	s.OnSubscribe(emptySubscription[T]{})
	s.OnError(err)
}

// CompleteTo completes the handshake for s with an immediate empty
// completion.
func CompleteTo[T any](s Subscriber[T]) {
	s.OnSubscribe(emptySubscription[T]{})
	s.OnComplete()
}

// scalarSubscription delivers exactly one value. The first Request wins
// the CAS and emits value then completion; Cancel before that suppresses
// both. It grants FusionSync so a fused consumer can Poll the value
// instead.
type scalarSubscription[T any] struct {
	actual Subscriber[T]
	value  T

	// 0 = fresh, 1 = emitted or polled, 2 = cancelled
	state atomic.Int32
}

func newScalarSubscription[T any](actual Subscriber[T], value T) *scalarSubscription[T] {
	return &scalarSubscription[T]{actual: actual, value: value}
}

func (s *scalarSubscription[T]) Request(n int64) {
	if err := validateRequest(n); err != nil {
		s.actual.OnError(err)
		return
	}
	if s.state.CompareAndSwap(0, 1) {
		s.actual.OnNext(s.value)
		if s.state.Load() != 2 {
			s.actual.OnComplete()
		}
	}
}

func (s *scalarSubscription[T]) Cancel() {
	s.state.Store(2)
}

func (s *scalarSubscription[T]) RequestFusion(requested int) int {
	if requested&FusionSync != 0 {
		return FusionSync
	}
	return FusionNone
}

func (s *scalarSubscription[T]) Poll() (T, bool, error) {
	var zero T
	if s.state.CompareAndSwap(0, 1) {
		return s.value, true, nil
	}
	return zero, false, nil
}

func (s *scalarSubscription[T]) Size() int {
	if s.state.Load() == 0 {
		return 1
	}
	return 0
}

func (s *scalarSubscription[T]) IsEmpty() bool { return s.state.Load() != 0 }
func (s *scalarSubscription[T]) Clear()        { s.state.Store(1) }

// cancelledSubscription is the sentinel an atomicSubscription swaps in
// once terminated. Any subscription set afterwards is cancelled on
// arrival.
var cancelledSubscription Subscription = cancelledSub{}

type cancelledSub struct{}

func (cancelledSub) Request(int64) {}
func (cancelledSub) Cancel()       {}

// atomicSubscription is a once-settable Subscription holder with a
// terminal state. set installs the live subscription; terminate swaps in
// the cancelled sentinel and cancels whatever was installed, exactly
// once.
type atomicSubscription struct {
	s atomic.Pointer[subscriptionCell]
}

type subscriptionCell struct {
	sub Subscription
}

func (a *atomicSubscription) set(s Subscription) bool {
	cell := &subscriptionCell{sub: s}
	for {
		cur := a.s.Load()
		if cur != nil {
			if cur.sub == cancelledSubscription {
				s.Cancel()
				return false
			}
			// already set: duplicate subscription
			s.Cancel()
			onErrorDropped(serr.DuplicateSubscription())
			return false
		}
		if a.s.CompareAndSwap(nil, cell) {
			return true
		}
	}
}

func (a *atomicSubscription) get() Subscription {
	if cur := a.s.Load(); cur != nil {
		return cur.sub
	}
	return nil
}

// terminate cancels the held subscription and blocks future sets.
// Returns true on the first call only.
func (a *atomicSubscription) terminate() bool {
	cancelled := &subscriptionCell{sub: cancelledSubscription}
	for {
		cur := a.s.Load()
		if cur != nil && cur.sub == cancelledSubscription {
			return false
		}
		if a.s.CompareAndSwap(cur, cancelled) {
			if cur != nil {
				cur.sub.Cancel()
			}
			return true
		}
	}
}

func (a *atomicSubscription) isTerminated() bool {
	cur := a.s.Load()
	return cur != nil && cur.sub == cancelledSubscription
}

// deferredSubscription accumulates demand issued before the real
// upstream subscription arrives, then replays it on arrival. It is the
// arbiter used when a subscriber must be handed a Subscription before
// its producer exists.
type deferredSubscription struct {
	arb       atomicSubscription
	requested atomic.Int64
}

func (d *deferredSubscription) set(s Subscription) bool {
	if !d.arb.set(s) {
		return false
	}
	if n := d.requested.Swap(0); n > 0 {
		s.Request(n)
	}
	return true
}

func (d *deferredSubscription) Request(n int64) {
	if s := d.arb.get(); s != nil {
		s.Request(n)
		return
	}
	addCap(&d.requested, n)
	// the subscription may have arrived while we were accumulating
	if s := d.arb.get(); s != nil {
		if m := d.requested.Swap(0); m > 0 {
			s.Request(m)
		}
	}
}

func (d *deferredSubscription) Cancel() {
	d.arb.terminate()
}

// validateSubscription guards an operator's OnSubscribe against a second
// handshake. When a subscription is already held the incoming one is
// cancelled and the violation is surfaced to diagnostics; the operator
// keeps running on the first.
func validateSubscription(current, incoming Subscription) bool {
	if incoming == nil {
		onErrorDropped(serr.New(serr.ErrCodeDuplicateSubscription, "nil subscription in handshake"))
		return false
	}
	if current != nil {
		incoming.Cancel()
		onErrorDropped(serr.DuplicateSubscription())
		return false
	}
	return true
}
