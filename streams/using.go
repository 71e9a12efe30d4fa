package streams

import (
	"sync/atomic"

	serr "github.com/kbukum/streamkit/errors"
)

// Using ties a synchronously acquired resource to the lifetime of the
// sequence derived from it. factory acquires the resource, closure
// derives the sequence, cleanup releases the resource exactly once.
//
// With eager true, cleanup runs before the terminal signal reaches the
// consumer: a cleanup failure after completion replaces the completion,
// and a cleanup failure after an error becomes the primary error with
// the original attached as suppressed. With eager false, cleanup runs
// after the terminal has been delivered and its failure can only be
// reported to diagnostics. Cleanup failures on the cancellation path go
// to diagnostics in both modes.
func Using[T, S any](
	factory func() (S, error),
	closure func(S) (Publisher[T], error),
	cleanup func(S) error,
	eager bool,
) *Stream[T] {
	return NewStream[T](&usingPublisher[T, S]{
		factory: factory,
		closure: closure,
		cleanup: cleanup,
		eager:   eager,
	})
}

type usingPublisher[T, S any] struct {
	factory func() (S, error)
	closure func(S) (Publisher[T], error)
	cleanup func(S) error
	eager   bool
}

func (p *usingPublisher[T, S]) Subscribe(s Subscriber[T]) {
	resource, err := p.factory()
	if err != nil {
		ErrorTo(s, onOperatorError(err))
		return
	}
	derived, err := p.closure(resource)
	if err == nil && derived == nil {
		err = serr.New(serr.ErrCodeOperator, "resource closure returned a nil sequence")
	}
	if err != nil {
		e := onOperatorError(err)
		if cErr := p.cleanup(resource); cErr != nil {
			e = serr.AddSuppressed(e, cErr)
		}
		ErrorTo(s, e)
		return
	}
	us := &usingSubscriber[T, S]{
		actual:   s,
		resource: resource,
		cleanup:  p.cleanup,
		eager:    p.eager,
	}
	us.cond, _ = s.(ConditionalSubscriber[T])
	derived.Subscribe(us)
}

// usingSubscriber relays signals from the derived sequence and owns the
// single cleanup transition. wip moving 0 -> 1 claims cleanup; every
// terminal, cancellation and exhausted-poll path races through the same
// gate.
type usingSubscriber[T, S any] struct {
	actual   Subscriber[T]
	cond     ConditionalSubscriber[T]
	resource S
	cleanup  func(S) error
	eager    bool

	s          Subscription
	qs         QueueSubscription[T]
	sourceMode int
	wip        atomic.Int32
	cancelled  atomic.Bool
}

func (u *usingSubscriber[T, S]) OnSubscribe(s Subscription) {
	if !validateSubscription(u.s, s) {
		return
	}
	u.s = s
	u.qs, _ = s.(QueueSubscription[T])
	u.actual.OnSubscribe(u)
}

func (u *usingSubscriber[T, S]) OnNext(v T) {
	u.actual.OnNext(v)
}

func (u *usingSubscriber[T, S]) TryOnNext(v T) bool {
	if u.cond != nil {
		return u.cond.TryOnNext(v)
	}
	u.actual.OnNext(v)
	return true
}

func (u *usingSubscriber[T, S]) OnError(err error) {
	if u.eager && u.wip.CompareAndSwap(0, 1) {
		if cErr := u.cleanup(u.resource); cErr != nil {
			// cleanup failure takes over; the original travels as
			// a suppressed cause
			err = serr.AddSuppressed(onOperatorError(cErr), err)
		}
	}
	u.actual.OnError(err)
	if !u.eager {
		u.cleanupAfter("error")
	}
}

func (u *usingSubscriber[T, S]) OnComplete() {
	if u.eager && u.wip.CompareAndSwap(0, 1) {
		if cErr := u.cleanup(u.resource); cErr != nil {
			u.actual.OnError(onOperatorError(cErr))
			return
		}
	}
	u.actual.OnComplete()
	if !u.eager {
		u.cleanupAfter("complete")
	}
}

func (u *usingSubscriber[T, S]) cleanupAfter(stage string) {
	if u.wip.CompareAndSwap(0, 1) {
		if cErr := u.cleanup(u.resource); cErr != nil {
			onCleanupFailure(stage, cErr)
		}
	}
}

func (u *usingSubscriber[T, S]) Request(n int64) {
	u.s.Request(n)
}

func (u *usingSubscriber[T, S]) Cancel() {
	if u.wip.CompareAndSwap(0, 1) {
		u.cancelled.Store(true)
		u.s.Cancel()
		if cErr := u.cleanup(u.resource); cErr != nil {
			onCleanupFailure("cancel", cErr)
		}
		return
	}
	u.s.Cancel()
}

func (u *usingSubscriber[T, S]) RequestFusion(requested int) int {
	if u.qs == nil {
		return FusionNone
	}
	u.sourceMode = u.qs.RequestFusion(requested)
	return u.sourceMode
}

// Poll relays pulled values; exhaustion of a synchronously fused
// sequence is its completion, so cleanup is claimed right there and a
// cleanup failure surfaces as the poll error.
func (u *usingSubscriber[T, S]) Poll() (T, bool, error) {
	var zero T
	v, ok, err := u.qs.Poll()
	if err != nil {
		return zero, false, err
	}
	if !ok && u.sourceMode == FusionSync {
		if u.wip.CompareAndSwap(0, 1) {
			if cErr := u.cleanup(u.resource); cErr != nil {
				return zero, false, onOperatorError(cErr)
			}
		}
	}
	return v, ok, nil
}

func (u *usingSubscriber[T, S]) Size() int     { return u.qs.Size() }
func (u *usingSubscriber[T, S]) IsEmpty() bool { return u.qs.IsEmpty() }
func (u *usingSubscriber[T, S]) Clear()        { u.qs.Clear() }

func (u *usingSubscriber[T, S]) Scan(key Attr) any {
	switch key {
	case AttrParent:
		return u.s
	case AttrActual:
		return u.actual
	case AttrTerminated:
		return u.wip.Load() == 1 && !u.cancelled.Load()
	case AttrCancelled:
		return u.cancelled.Load()
	case AttrRunStyle:
		return RunStyleSync
	default:
		return nil
	}
}
