package streams

// Map transforms every value of s through mapper. A mapper failure
// cancels the upstream and terminates the sequence with the failure.
func Map[T, R any](s *Stream[T], mapper func(T) (R, error)) *Stream[R] {
	return NewStream[R](&mapPublisher[T, R]{source: s.source, mapper: mapper})
}

// MapSingle is Map for the at-most-one-value arity.
func MapSingle[T, R any](s *Single[T], mapper func(T) (R, error)) *Single[R] {
	return NewSingle[R](&mapPublisher[T, R]{source: s.source, mapper: mapper})
}

type mapPublisher[T, R any] struct {
	source Publisher[T]
	mapper func(T) (R, error)
}

func (p *mapPublisher[T, R]) Subscribe(s Subscriber[R]) {
	ms := &mapSubscriber[T, R]{actual: s, mapper: p.mapper}
	ms.cond, _ = s.(ConditionalSubscriber[R])
	p.source.Subscribe(ms)
}

// mapSubscriber sits between upstream and downstream. It relays fusion:
// when the upstream subscription is itself pollable, downstream may
// negotiate a mode and Poll mapped values directly.
type mapSubscriber[T, R any] struct {
	actual Subscriber[R]
	cond   ConditionalSubscriber[R]
	mapper func(T) (R, error)

	s          Subscription
	qs         QueueSubscription[T]
	sourceMode int
	done       bool
}

func (m *mapSubscriber[T, R]) OnSubscribe(s Subscription) {
	if !validateSubscription(m.s, s) {
		return
	}
	m.s = s
	m.qs, _ = s.(QueueSubscription[T])
	m.actual.OnSubscribe(m)
}

func (m *mapSubscriber[T, R]) OnNext(v T) {
	if m.done {
		onNextDropped(v)
		return
	}
	if m.sourceMode == FusionAsync {
		// queue-backed: the value travels through Poll, this is only
		// the availability notification
		var zero R
		m.actual.OnNext(zero)
		return
	}
	r, err := m.mapper(v)
	if err != nil {
		m.done = true
		m.s.Cancel()
		m.actual.OnError(onOperatorError(err))
		return
	}
	m.actual.OnNext(r)
}

// TryOnNext lets a conditional downstream keep its demand accounting
// across the mapping stage.
func (m *mapSubscriber[T, R]) TryOnNext(v T) bool {
	if m.done {
		onNextDropped(v)
		return true
	}
	r, err := m.mapper(v)
	if err != nil {
		m.done = true
		m.s.Cancel()
		m.actual.OnError(onOperatorError(err))
		return true
	}
	if m.cond != nil {
		return m.cond.TryOnNext(r)
	}
	m.actual.OnNext(r)
	return true
}

func (m *mapSubscriber[T, R]) OnError(err error) {
	if m.done {
		onErrorDropped(err)
		return
	}
	m.done = true
	m.actual.OnError(err)
}

func (m *mapSubscriber[T, R]) OnComplete() {
	if m.done {
		return
	}
	m.done = true
	m.actual.OnComplete()
}

func (m *mapSubscriber[T, R]) Request(n int64) { m.s.Request(n) }
func (m *mapSubscriber[T, R]) Cancel()         { m.s.Cancel() }

func (m *mapSubscriber[T, R]) RequestFusion(requested int) int {
	if m.qs == nil {
		return FusionNone
	}
	m.sourceMode = m.qs.RequestFusion(requested)
	return m.sourceMode
}

func (m *mapSubscriber[T, R]) Poll() (R, bool, error) {
	var zero R
	v, ok, err := m.qs.Poll()
	if err != nil || !ok {
		return zero, false, err
	}
	r, merr := m.mapper(v)
	if merr != nil {
		return zero, false, onOperatorError(merr)
	}
	return r, true, nil
}

func (m *mapSubscriber[T, R]) Size() int     { return m.qs.Size() }
func (m *mapSubscriber[T, R]) IsEmpty() bool { return m.qs.IsEmpty() }
func (m *mapSubscriber[T, R]) Clear()        { m.qs.Clear() }

func (m *mapSubscriber[T, R]) Scan(key Attr) any {
	switch key {
	case AttrParent:
		return m.s
	case AttrActual:
		return m.actual
	case AttrTerminated:
		return m.done
	case AttrRunStyle:
		return RunStyleSync
	default:
		return nil
	}
}
