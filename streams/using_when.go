package streams

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/config"
	serr "github.com/kbukum/streamkit/errors"
)

// UsingWhenOption tweaks UsingWhen behavior.
type UsingWhenOption func(*usingWhenPublisherOptions)

type usingWhenPublisherOptions struct {
	strict bool
}

// WithStrictResourceSupply controls what happens when the resource
// supplier emits a second value: when strict, the whole sequence fails
// with a StrictResourceSupply error and the first resource is rolled
// back; otherwise the surplus value is dropped to diagnostics. The
// default comes from config.Defaults().
func WithStrictResourceSupply(strict bool) UsingWhenOption {
	return func(o *usingWhenPublisherOptions) {
		o.strict = strict
	}
}

// UsingWhen ties an asynchronously supplied resource to the lifetime of
// the sequence derived from it. supplier emits at most one resource;
// closure derives the value sequence; the async callbacks produce the
// cleanup sequences run after completion, after an error, and after
// cancellation respectively.
//
// Cleanup ordering is strict: on completion the asyncComplete sequence
// must itself complete before the consumer sees OnComplete, and a
// cleanup failure replaces the completion. On error the original error
// is held until the asyncError sequence terminates; a rollback failure
// is delivered as the primary error with the original attached as
// suppressed. On cancellation cleanup runs detached and can only report
// failures to diagnostics.
//
// A nil asyncComplete or asyncError behaves as an empty cleanup
// sequence. A nil asyncCancel falls back to asyncComplete.
func UsingWhen[T, S any](
	supplier Publisher[S],
	closure func(S) (Publisher[T], error),
	asyncComplete func(S) Publisher[any],
	asyncError func(S, error) Publisher[any],
	asyncCancel func(S) Publisher[any],
	opts ...UsingWhenOption,
) *Stream[T] {
	o := usingWhenPublisherOptions{strict: config.Defaults().StrictResourceSupply}
	for _, opt := range opts {
		opt(&o)
	}
	return NewStream[T](&usingWhenPublisher[T, S]{
		supplier:      supplier,
		closure:       closure,
		asyncComplete: asyncComplete,
		asyncError:    asyncError,
		asyncCancel:   asyncCancel,
		strict:        o.strict,
	})
}

type usingWhenPublisher[T, S any] struct {
	supplier      Publisher[S]
	closure       func(S) (Publisher[T], error)
	asyncComplete func(S) Publisher[any]
	asyncError    func(S, error) Publisher[any]
	asyncCancel   func(S) Publisher[any]
	strict        bool
}

func (p *usingWhenPublisher[T, S]) Subscribe(s Subscriber[T]) {
	// fast path: the supplier's outcome is known without subscribing
	if sc, ok := asScalar[S](p.supplier); ok {
		resource, has, err := sc.scalarValue()
		if err != nil {
			ErrorTo(s, err)
			return
		}
		if !has {
			CompleteTo(s)
			return
		}
		p.deriveAndSubscribe(resource, s, nil)
		return
	}
	rs := &resourceSubscriber[T, S]{actual: s, parent: p}
	rs.singleArity = isSingleArity(p.supplier)
	p.supplier.Subscribe(rs)
}

func (p *usingWhenPublisher[T, S]) deriveAndSubscribe(resource S, actual Subscriber[T], arbiter *deferredSubscription) *usingWhenSubscriber[T, S] {
	derived, err := p.closure(resource)
	if err == nil && derived == nil {
		err = serr.New(serr.ErrCodeOperator, "resource closure returned a nil sequence")
	}
	if err != nil {
		// the rollback path still owns releasing the resource
		derived = Failed[T](onOperatorError(err)).AsStream()
	}
	uws := &usingWhenSubscriber[T, S]{
		actual:  actual,
		parent:  p,
		resrc:   resource,
		arbiter: arbiter,
	}
	uws.cond, _ = actual.(ConditionalSubscriber[T])
	derived.Subscribe(uws)
	return uws
}

func isSingleArity[S any](p Publisher[S]) bool {
	_, ok := p.(*Single[S])
	return ok
}

// resourceSubscriber waits for the resource. The consumer is handed the
// embedded deferred subscription immediately; demand accumulates there
// until the derived sequence's subscriber arrives and claims it.
type resourceSubscriber[T, S any] struct {
	deferredSubscription

	actual      Subscriber[T]
	parent      *usingWhenPublisher[T, S]
	singleArity bool

	supplierSub      Subscription
	resourceProvided atomic.Bool
	active           *usingWhenSubscriber[T, S]
}

func (r *resourceSubscriber[T, S]) OnSubscribe(s Subscription) {
	if !validateSubscription(r.supplierSub, s) {
		return
	}
	r.supplierSub = s
	r.actual.OnSubscribe(r)
	s.Request(Unbounded)
}

func (r *resourceSubscriber[T, S]) OnNext(resource S) {
	if !r.resourceProvided.CompareAndSwap(false, true) {
		if r.parent.strict {
			r.supplierSub.Cancel()
			if a := r.active; a != nil {
				a.OnError(serr.StrictResourceSupply())
			}
			return
		}
		onNextDropped(resource)
		return
	}
	r.active = r.parent.deriveAndSubscribe(resource, r.actual, &r.deferredSubscription)
	if !r.singleArity && !r.parent.strict {
		r.supplierSub.Cancel()
	}
}

func (r *resourceSubscriber[T, S]) OnError(err error) {
	if r.resourceProvided.Load() {
		onErrorDropped(err)
		return
	}
	r.actual.OnError(err)
}

func (r *resourceSubscriber[T, S]) OnComplete() {
	if r.resourceProvided.Load() {
		return
	}
	r.actual.OnComplete()
}

// Request validates demand before it is accumulated for the derived
// sequence; a non-positive amount is a protocol violation delivered to
// the consumer, never accumulated.
func (r *resourceSubscriber[T, S]) Request(n int64) {
	if err := validateRequest(n); err != nil {
		r.Cancel()
		r.actual.OnError(err)
		return
	}
	r.deferredSubscription.Request(n)
}

func (r *resourceSubscriber[T, S]) Cancel() {
	if !r.resourceProvided.Load() {
		r.supplierSub.Cancel()
	}
	r.deferredSubscription.Cancel()
}

// usingWhenSubscriber relays the derived sequence and runs exactly one
// of the async cleanup sequences. callbackApplied moving 0 -> 1 claims
// the cleanup; the terminal signal is withheld from the consumer until
// the cleanup sequence itself terminates.
type usingWhenSubscriber[T, S any] struct {
	actual  Subscriber[T]
	cond    ConditionalSubscriber[T]
	parent  *usingWhenPublisher[T, S]
	resrc   S
	arbiter *deferredSubscription

	s               Subscription
	callbackApplied atomic.Int32
	cancelled       atomic.Bool
}

func (u *usingWhenSubscriber[T, S]) OnSubscribe(s Subscription) {
	if !validateSubscription(u.s, s) {
		return
	}
	u.s = s
	if u.arbiter != nil {
		// route consumer demand and cancellation through this stage so
		// cleanup cannot be skipped
		u.arbiter.set(u)
	} else {
		u.actual.OnSubscribe(u)
	}
}

func (u *usingWhenSubscriber[T, S]) OnNext(v T) {
	if u.callbackApplied.Load() != 0 {
		onNextDropped(v)
		return
	}
	u.actual.OnNext(v)
}

func (u *usingWhenSubscriber[T, S]) TryOnNext(v T) bool {
	if u.callbackApplied.Load() != 0 {
		onNextDropped(v)
		return true
	}
	if u.cond != nil {
		return u.cond.TryOnNext(v)
	}
	u.actual.OnNext(v)
	return true
}

func (u *usingWhenSubscriber[T, S]) OnError(err error) {
	if !u.callbackApplied.CompareAndSwap(0, 1) {
		onErrorDropped(err)
		return
	}
	cb := u.parent.asyncError
	if cb == nil {
		u.deferredError(err)
		return
	}
	rollback := cb(u.resrc, err)
	if rollback == nil {
		u.deferredError(serr.AddSuppressed(serr.Cleanup("error", nil), err))
		return
	}
	rollback.Subscribe(&rollbackInner[T, S]{parent: u, cause: err})
}

func (u *usingWhenSubscriber[T, S]) OnComplete() {
	if !u.callbackApplied.CompareAndSwap(0, 1) {
		return
	}
	cb := u.parent.asyncComplete
	if cb == nil {
		u.deferredComplete()
		return
	}
	commit := cb(u.resrc)
	if commit == nil {
		u.deferredComplete()
		return
	}
	commit.Subscribe(&commitInner[T, S]{parent: u})
}

func (u *usingWhenSubscriber[T, S]) Request(n int64) {
	u.s.Request(n)
}

func (u *usingWhenSubscriber[T, S]) Cancel() {
	if !u.callbackApplied.CompareAndSwap(0, 1) {
		return
	}
	u.cancelled.Store(true)
	u.s.Cancel()
	cb := u.parent.asyncCancel
	if cb == nil {
		cb = u.parent.asyncComplete
	}
	if cb == nil {
		return
	}
	cancelSeq := cb(u.resrc)
	if cancelSeq == nil {
		onCleanupFailure("cancel", serr.Cleanup("cancel", nil))
		return
	}
	cancelSeq.Subscribe(&cancelInner{})
}

// deferredComplete releases the terminal once cleanup succeeded.
func (u *usingWhenSubscriber[T, S]) deferredComplete() {
	u.actual.OnComplete()
}

// deferredError releases the terminal once cleanup terminated.
func (u *usingWhenSubscriber[T, S]) deferredError(err error) {
	u.actual.OnError(err)
}

func (u *usingWhenSubscriber[T, S]) Scan(key Attr) any {
	switch key {
	case AttrParent:
		return u.s
	case AttrActual:
		return u.actual
	case AttrTerminated:
		return u.callbackApplied.Load() == 1 && !u.cancelled.Load()
	case AttrCancelled:
		return u.cancelled.Load()
	case AttrRunStyle:
		return RunStyleAsync
	default:
		return nil
	}
}

// commitInner drains the asyncComplete sequence. Its completion
// releases the consumer's completion; its failure replaces it.
type commitInner[T, S any] struct {
	parent *usingWhenSubscriber[T, S]
	s      Subscription
}

func (c *commitInner[T, S]) OnSubscribe(s Subscription) {
	if !validateSubscription(c.s, s) {
		return
	}
	c.s = s
	s.Request(Unbounded)
}

func (c *commitInner[T, S]) OnNext(any) {}

func (c *commitInner[T, S]) OnError(err error) {
	c.parent.deferredError(serr.Cleanup("complete", onOperatorError(err)))
}

func (c *commitInner[T, S]) OnComplete() {
	c.parent.deferredComplete()
}

// rollbackInner drains the asyncError sequence while holding the
// original failure. Completion releases the original; a rollback
// failure becomes primary with the original suppressed.
type rollbackInner[T, S any] struct {
	parent *usingWhenSubscriber[T, S]
	cause  error
	s      Subscription
}

func (r *rollbackInner[T, S]) OnSubscribe(s Subscription) {
	if !validateSubscription(r.s, s) {
		return
	}
	r.s = s
	s.Request(Unbounded)
}

func (r *rollbackInner[T, S]) OnNext(any) {}

func (r *rollbackInner[T, S]) OnError(err error) {
	r.parent.deferredError(serr.AddSuppressed(serr.Cleanup("error", onOperatorError(err)), r.cause))
}

func (r *rollbackInner[T, S]) OnComplete() {
	r.parent.deferredError(r.cause)
}

// cancelInner drains the cancellation cleanup sequence. Nobody is
// listening anymore, so failures go to diagnostics only.
type cancelInner struct {
	s Subscription
}

func (c *cancelInner) OnSubscribe(s Subscription) {
	if !validateSubscription(c.s, s) {
		return
	}
	c.s = s
	s.Request(Unbounded)
}

func (c *cancelInner) OnNext(any) {}

func (c *cancelInner) OnError(err error) {
	onCleanupFailure("cancel", err)
}

func (c *cancelInner) OnComplete() {}
