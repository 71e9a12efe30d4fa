package streams

import "sync/atomic"

// FromSlice builds a Stream that replays the given values in order.
// The slice is not copied; callers must not mutate it after handoff.
func FromSlice[T any](values []T) *Stream[T] {
	return NewStream[T](&slicePublisher[T]{values: values})
}

type slicePublisher[T any] struct {
	values []T
}

func (p *slicePublisher[T]) Subscribe(s Subscriber[T]) {
	if len(p.values) == 0 {
		CompleteTo(s)
		return
	}
	sub := &sliceSubscription[T]{actual: s, values: p.values}
	sub.cond, _ = s.(ConditionalSubscriber[T])
	s.OnSubscribe(sub)
}

// sliceSubscription drives a slice either by push (demand-paced) or by
// synchronous pull once FusionSync has been granted.
type sliceSubscription[T any] struct {
	actual Subscriber[T]
	cond   ConditionalSubscriber[T]
	values []T

	index     int
	requested atomic.Int64
	cancelled atomic.Bool
}

func (s *sliceSubscription[T]) Request(n int64) {
	if err := validateRequest(n); err != nil {
		s.Cancel()
		s.actual.OnError(err)
		return
	}
	if addCap(&s.requested, n) == 0 {
		if n == Unbounded {
			s.fastPath()
		} else {
			s.slowPath(n)
		}
	}
}

func (s *sliceSubscription[T]) fastPath() {
	for _, v := range s.values[s.index:] {
		if s.cancelled.Load() {
			return
		}
		if s.cond != nil {
			s.cond.TryOnNext(v)
		} else {
			s.actual.OnNext(v)
		}
	}
	if !s.cancelled.Load() {
		s.actual.OnComplete()
	}
}

func (s *sliceSubscription[T]) slowPath(n int64) {
	emitted := int64(0)
	for {
		for emitted != n && s.index < len(s.values) {
			if s.cancelled.Load() {
				return
			}
			v := s.values[s.index]
			s.index++
			if s.cond != nil {
				if !s.cond.TryOnNext(v) {
					continue // dropped without consuming demand
				}
			} else {
				s.actual.OnNext(v)
			}
			emitted++
		}
		if s.index == len(s.values) {
			if !s.cancelled.Load() {
				s.actual.OnComplete()
			}
			return
		}
		n = s.requested.Load()
		if n == emitted {
			// settle the demand we consumed; stop unless more arrived
			n = produced(&s.requested, emitted)
			if n == 0 {
				return
			}
			emitted = 0
		}
	}
}

func (s *sliceSubscription[T]) Cancel() {
	s.cancelled.Store(true)
}

func (s *sliceSubscription[T]) RequestFusion(requested int) int {
	if requested&FusionSync != 0 {
		return FusionSync
	}
	return FusionNone
}

func (s *sliceSubscription[T]) Poll() (T, bool, error) {
	var zero T
	if s.index < len(s.values) {
		v := s.values[s.index]
		s.index++
		return v, true, nil
	}
	return zero, false, nil
}

func (s *sliceSubscription[T]) Size() int     { return len(s.values) - s.index }
func (s *sliceSubscription[T]) IsEmpty() bool { return s.index == len(s.values) }
func (s *sliceSubscription[T]) Clear()        { s.index = len(s.values) }

// scalarSource is the internal shape shared by the zero-and-one value
// sources, letting operators that only need the outcome skip the
// subscription handshake entirely.
type scalarSource[T any] interface {
	// scalarValue returns the value and whether one exists, or the
	// failure. (zero, false, nil) is an empty completion.
	scalarValue() (T, bool, error)
}

// Just builds a Single that emits v then completes.
func Just[T any](v T) *Single[T] {
	return NewSingle[T](justPublisher[T]{value: v})
}

type justPublisher[T any] struct {
	value T
}

func (p justPublisher[T]) Subscribe(s Subscriber[T]) {
	s.OnSubscribe(newScalarSubscription(s, p.value))
}

func (p justPublisher[T]) scalarValue() (T, bool, error) {
	return p.value, true, nil
}

// Empty builds a Single that completes without a value.
func Empty[T any]() *Single[T] {
	return NewSingle[T](emptyPublisher[T]{})
}

type emptyPublisher[T any] struct{}

func (emptyPublisher[T]) Subscribe(s Subscriber[T]) {
	CompleteTo(s)
}

func (emptyPublisher[T]) scalarValue() (T, bool, error) {
	var zero T
	return zero, false, nil
}

// Failed builds a Single that terminates immediately with err.
func Failed[T any](err error) *Single[T] {
	return NewSingle[T](failedPublisher[T]{err: err})
}

type failedPublisher[T any] struct {
	err error
}

func (p failedPublisher[T]) Subscribe(s Subscriber[T]) {
	ErrorTo(s, p.err)
}

func (p failedPublisher[T]) scalarValue() (T, bool, error) {
	var zero T
	return zero, false, p.err
}

// asScalar unwraps p down to a scalarSource when its outcome is known
// without subscribing.
func asScalar[T any](p Publisher[T]) (scalarSource[T], bool) {
	for {
		switch v := p.(type) {
		case scalarSource[T]:
			return v, true
		case *Single[T]:
			p = v.source
		case *Stream[T]:
			p = v.source
		default:
			return nil, false
		}
	}
}
