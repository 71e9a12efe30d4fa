package sinks

import (
	"sync/atomic"

	"github.com/google/uuid"

	serr "github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/streams"
)

// EmitResult is the outcome of a single emission attempt.
type EmitResult int

const (
	// EmitOK means the signal was delivered (or recorded for replay).
	EmitOK EmitResult = iota
	// EmitFailZeroSubscriber means no subscriber has attached yet.
	EmitFailZeroSubscriber
	// EmitFailOverflow means the subscriber has no outstanding demand.
	EmitFailOverflow
	// EmitFailCancelled means the subscriber cancelled the subscription.
	EmitFailCancelled
	// EmitFailTerminated means a terminal signal was already emitted.
	EmitFailTerminated
	// EmitFailNonSerialized means a concurrent emission attempt was
	// detected on an API that requires serialized callers.
	EmitFailNonSerialized
)

func (r EmitResult) String() string {
	switch r {
	case EmitOK:
		return "OK"
	case EmitFailZeroSubscriber:
		return "FAIL_ZERO_SUBSCRIBER"
	case EmitFailOverflow:
		return "FAIL_OVERFLOW"
	case EmitFailCancelled:
		return "FAIL_CANCELLED"
	case EmitFailTerminated:
		return "FAIL_TERMINATED"
	case EmitFailNonSerialized:
		return "FAIL_NON_SERIALIZED"
	default:
		return "UNKNOWN"
	}
}

// Succeeded reports whether the emission was accepted.
func (r EmitResult) Succeeded() bool { return r == EmitOK }

// FailureHandler decides whether a failed forcing emission should be
// retried. Returning false hands the failure to the default policy.
type FailureHandler func(signal string, result EmitResult) bool

const (
	stateInitial int32 = iota
	stateSubscribed
	stateTerminated
	stateCancelled
)

// terminalRecord is a terminal emitted before any subscriber attached,
// kept for replay. A nil err is a completion.
type terminalRecord struct {
	err error
}

// Unicast is a sink feeding exactly one subscriber without buffering:
// every value must be covered by outstanding demand at the moment it is
// emitted. A terminal emitted before the subscriber attaches is
// recorded and replayed on attachment.
type Unicast[T any] struct {
	id string

	state          atomic.Int32
	requested      atomic.Int64
	terminal       atomic.Pointer[terminalRecord]
	subscribedOnce atomic.Bool
	subscriber     streams.Subscriber[T]

	onFailure FailureHandler
}

// NewUnicast creates an empty sink. The sink itself is the Publisher
// handed to the consumer side.
func NewUnicast[T any]() *Unicast[T] {
	return &Unicast[T]{id: uuid.NewString()}
}

// ID returns the sink's correlation id, stable for its lifetime.
func (u *Unicast[T]) ID() string { return u.id }

// SetFailureHandler installs the retry policy used by the forcing
// emission methods. Must be called before emitting.
func (u *Unicast[T]) SetFailureHandler(h FailureHandler) {
	u.onFailure = h
}

// Subscribe implements streams.Publisher. A second subscriber is
// rejected with its own error terminal; the sink stays bound to the
// first.
func (u *Unicast[T]) Subscribe(s streams.Subscriber[T]) {
	if !u.subscribedOnce.CompareAndSwap(false, true) {
		streams.ErrorTo(s, serr.SingleSubscriberOnly())
		return
	}
	u.subscriber = s
	s.OnSubscribe(u)
	if rec := u.terminal.Load(); rec != nil {
		u.replay(s, rec)
		return
	}
	if !u.state.CompareAndSwap(stateInitial, stateSubscribed) {
		// lost against a concurrent terminal; the record was stored
		// before that state transition, so it is visible here
		if rec := u.terminal.Load(); rec != nil {
			u.replay(s, rec)
		}
	}
}

// replay delivers the terminal recorded before attachment.
func (u *Unicast[T]) replay(s streams.Subscriber[T], rec *terminalRecord) {
	if rec.err != nil {
		s.OnError(rec.err)
	} else {
		s.OnComplete()
	}
}

// Request implements streams.Subscription. A non-positive amount is a
// protocol violation terminating the sequence.
func (u *Unicast[T]) Request(n int64) {
	if n <= 0 {
		u.terminateWith(serr.NonPositiveRequest(n))
		return
	}
	addCap(&u.requested, n)
}

// Cancel implements streams.Subscription. Idempotent; a terminal that
// already fired wins the race.
func (u *Unicast[T]) Cancel() {
	u.state.CompareAndSwap(stateInitial, stateCancelled)
	u.state.CompareAndSwap(stateSubscribed, stateCancelled)
}

// TryEmitNext attempts to deliver v. It never buffers: without an
// attached subscriber or without demand the value is refused and the
// caller keeps ownership of it.
func (u *Unicast[T]) TryEmitNext(v T) EmitResult {
	switch u.state.Load() {
	case stateTerminated:
		return EmitFailTerminated
	case stateCancelled:
		return EmitFailCancelled
	case stateInitial:
		return EmitFailZeroSubscriber
	}
	for {
		r := u.requested.Load()
		if r == 0 {
			return EmitFailOverflow
		}
		if r == streams.Unbounded || u.requested.CompareAndSwap(r, r-1) {
			break
		}
	}
	u.subscriber.OnNext(v)
	return EmitOK
}

// TryEmitComplete attempts to complete the sequence. Before a
// subscriber attaches the completion is recorded for replay and the
// attempt succeeds.
func (u *Unicast[T]) TryEmitComplete() EmitResult {
	return u.tryTerminate(nil)
}

// TryEmitError attempts to fail the sequence with err. Before a
// subscriber attaches the error is recorded for replay and the attempt
// succeeds.
func (u *Unicast[T]) TryEmitError(err error) EmitResult {
	return u.tryTerminate(err)
}

func (u *Unicast[T]) tryTerminate(err error) EmitResult {
	for {
		switch s := u.state.Load(); s {
		case stateTerminated:
			return EmitFailTerminated
		case stateCancelled:
			return EmitFailCancelled
		case stateInitial:
			// record first: a Subscribe losing its own state transition
			// must always find the terminal it has to replay
			u.terminal.CompareAndSwap(nil, &terminalRecord{err: err})
			if !u.state.CompareAndSwap(stateInitial, stateTerminated) {
				continue
			}
			return EmitOK
		case stateSubscribed:
			if !u.state.CompareAndSwap(stateSubscribed, stateTerminated) {
				continue
			}
			u.terminal.Store(&terminalRecord{err: err})
			if err != nil {
				u.subscriber.OnError(err)
			} else {
				u.subscriber.OnComplete()
			}
			return EmitOK
		}
	}
}

// terminateWith fails the live subscriber, used for protocol
// violations raised from the subscription side.
func (u *Unicast[T]) terminateWith(err error) {
	if u.tryTerminate(err) == EmitOK {
		return
	}
	diagnostics().Warn("protocol violation after terminal",
		logger.Fields(logger.FieldSinkID, u.id, logger.FieldError, err.Error()))
}

// EmitNext delivers v or escalates. A refused value is first offered to
// the failure handler for retry; an unhandled demand violation
// (overflow or zero subscriber) terminates the sequence with an
// overflow error, and emissions after a terminal are dropped to
// diagnostics.
func (u *Unicast[T]) EmitNext(v T) {
	for {
		res := u.TryEmitNext(v)
		if res == EmitOK {
			return
		}
		if u.onFailure != nil && u.onFailure("next", res) {
			continue
		}
		switch res {
		case EmitFailOverflow, EmitFailZeroSubscriber:
			u.EmitError(serr.Overflow(""))
		default:
			diagnostics().Warn("value dropped",
				logger.Fields(logger.FieldSinkID, u.id, logger.FieldOutcome, res.String()))
		}
		return
	}
}

// EmitComplete completes the sequence; a refused completion is dropped
// to diagnostics.
func (u *Unicast[T]) EmitComplete() {
	for {
		res := u.TryEmitComplete()
		if res == EmitOK {
			return
		}
		if u.onFailure != nil && u.onFailure("complete", res) {
			continue
		}
		diagnostics().Warn("completion dropped",
			logger.Fields(logger.FieldSinkID, u.id, logger.FieldOutcome, res.String()))
		return
	}
}

// EmitError fails the sequence; a refused error is dropped to
// diagnostics.
func (u *Unicast[T]) EmitError(err error) {
	for {
		res := u.TryEmitError(err)
		if res == EmitOK {
			return
		}
		if u.onFailure != nil && u.onFailure("error", res) {
			continue
		}
		diagnostics().Warn("error dropped",
			logger.Fields(logger.FieldSinkID, u.id,
				logger.FieldOutcome, res.String(), logger.FieldError, err.Error()))
		return
	}
}

// AsStream exposes the consumer side of the sink.
func (u *Unicast[T]) AsStream() *streams.Stream[T] {
	return streams.NewStream[T](u)
}

// Scan implements streams.Scannable.
func (u *Unicast[T]) Scan(key streams.Attr) any {
	switch key {
	case streams.AttrActual:
		return u.subscriber
	case streams.AttrTerminated:
		return u.state.Load() == stateTerminated
	case streams.AttrCancelled:
		return u.state.Load() == stateCancelled
	case streams.AttrError:
		if rec := u.terminal.Load(); rec != nil {
			return rec.err
		}
		return nil
	default:
		return nil
	}
}

// addCap mirrors the demand accounting of the streams package:
// additive, saturating at Unbounded.
func addCap(requested *atomic.Int64, n int64) {
	for {
		r := requested.Load()
		if r == streams.Unbounded {
			return
		}
		u := r + n
		if u < 0 {
			u = streams.Unbounded
		}
		if requested.CompareAndSwap(r, u) {
			return
		}
	}
}

func diagnostics() *logger.Logger {
	return logger.Get("sinks")
}
