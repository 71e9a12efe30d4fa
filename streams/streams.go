package streams

// Subscription is the live binding between one producer and one
// consumer. It is owned by the consumer; the producer only holds a
// reference to issue signals while the subscription is not cancelled.
type Subscription interface {
	// Request adds n to the outstanding demand. Demand is additive and
	// saturates at Unbounded. n must be positive; a non-positive amount
	// is a protocol violation reported to the consumer as an error.
	Request(n int64)
	// Cancel asks the producer to stop emitting. Idempotent. A terminal
	// signal already in flight may still be delivered.
	Cancel()
}

// Subscriber receives signals from a Publisher after subscribing.
type Subscriber[T any] interface {
	// OnSubscribe is called exactly once, before any other signal.
	OnSubscribe(s Subscription)
	// OnNext delivers a value. Never called beyond requested demand.
	OnNext(v T)
	// OnError delivers the failure terminal. Terminal with OnComplete.
	OnError(err error)
	// OnComplete delivers the success terminal. Terminal with OnError.
	OnComplete()
}

// ConditionalSubscriber is a Subscriber that can reject individual
// values without consuming demand. Operators discover the capability by
// type assertion at subscribe time and pick the optimized path once,
// not per value.
type ConditionalSubscriber[T any] interface {
	Subscriber[T]
	// TryOnNext delivers a value and reports whether it was consumed.
	// A false return means the value was dropped by a filter and did
	// not use up demand.
	TryOnNext(v T) bool
}

// Publisher is a provider of a sequence of values, publishing them
// according to the demand received from its Subscriber.
type Publisher[T any] interface {
	// Subscribe starts a new Subscription feeding s. Each call binds an
	// independent subscription unless the source is single-subscriber.
	Subscribe(s Subscriber[T])
}

// Stream is a multi-valued sequence: zero or more values followed by
// exactly one terminal signal.
type Stream[T any] struct {
	source Publisher[T]
}

// NewStream wraps a Publisher as a Stream.
func NewStream[T any](p Publisher[T]) *Stream[T] {
	return &Stream[T]{source: p}
}

// Subscribe implements Publisher.
func (s *Stream[T]) Subscribe(sub Subscriber[T]) {
	s.source.Subscribe(sub)
}

// Single is a sequence of at most one value followed by exactly one
// terminal signal.
type Single[T any] struct {
	source Publisher[T]
}

// NewSingle wraps a Publisher as a Single. The publisher must honor the
// at-most-one-value contract.
func NewSingle[T any](p Publisher[T]) *Single[T] {
	return &Single[T]{source: p}
}

// Subscribe implements Publisher.
func (s *Single[T]) Subscribe(sub Subscriber[T]) {
	s.source.Subscribe(sub)
}

// AsStream widens the single to the multi-valued arity.
func (s *Single[T]) AsStream() *Stream[T] {
	return &Stream[T]{source: s.source}
}

// Attr is an introspection key for Scannable. Introspection serves
// tooling; no operator behavior depends on it.
type Attr int

const (
	// AttrParent is the upstream Subscription or Publisher.
	AttrParent Attr = iota
	// AttrActual is the downstream Subscriber.
	AttrActual
	// AttrPrefetch is the amount requested upfront from upstream.
	AttrPrefetch
	// AttrRunStyle is a RunStyle value.
	AttrRunStyle
	// AttrTerminated reports whether a terminal signal was handled.
	AttrTerminated
	// AttrCancelled reports whether the subscription was cancelled.
	AttrCancelled
	// AttrError is the recorded failure, if any.
	AttrError
)

// RunStyle describes how an operator delivers signals.
type RunStyle int

const (
	// RunStyleUnknown means the delivery mode is not declared.
	RunStyleUnknown RunStyle = iota
	// RunStyleSync means signals are delivered on the caller's goroutine.
	RunStyleSync
	// RunStyleAsync means delivery may hop goroutines.
	RunStyleAsync
)

// Scannable exposes operator metadata to tooling.
type Scannable interface {
	// Scan returns the value for key, or nil when the key does not
	// apply to this component.
	Scan(key Attr) any
}
