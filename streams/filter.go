package streams

// Filter passes through only the values of s for which pred returns
// true. Rejected values do not consume downstream demand; the stage
// requests a replacement from upstream instead.
func Filter[T any](s *Stream[T], pred func(T) bool) *Stream[T] {
	return NewStream[T](&filterPublisher[T]{source: s.source, pred: pred})
}

// FilterSingle is Filter for the at-most-one-value arity; a rejected
// value turns into an empty completion.
func FilterSingle[T any](s *Single[T], pred func(T) bool) *Single[T] {
	return NewSingle[T](&filterPublisher[T]{source: s.source, pred: pred})
}

type filterPublisher[T any] struct {
	source Publisher[T]
	pred   func(T) bool
}

func (p *filterPublisher[T]) Subscribe(s Subscriber[T]) {
	p.source.Subscribe(&filterSubscriber[T]{actual: s, pred: p.pred})
}

// filterSubscriber presents itself upstream as conditional so that a
// pull-capable producer can skip rejected values without a Request
// round trip per drop.
type filterSubscriber[T any] struct {
	actual Subscriber[T]
	pred   func(T) bool

	s          Subscription
	qs         QueueSubscription[T]
	sourceMode int
	done       bool
}

func (f *filterSubscriber[T]) OnSubscribe(s Subscription) {
	if !validateSubscription(f.s, s) {
		return
	}
	f.s = s
	f.qs, _ = s.(QueueSubscription[T])
	f.actual.OnSubscribe(f)
}

func (f *filterSubscriber[T]) OnNext(v T) {
	if !f.TryOnNext(v) {
		// the dropped value consumed upstream demand; replace it
		f.s.Request(1)
	}
}

func (f *filterSubscriber[T]) TryOnNext(v T) bool {
	if f.done {
		onNextDropped(v)
		return true
	}
	if f.sourceMode == FusionAsync {
		var zero T
		f.actual.OnNext(zero)
		return true
	}
	if !f.pred(v) {
		return false
	}
	f.actual.OnNext(v)
	return true
}

func (f *filterSubscriber[T]) OnError(err error) {
	if f.done {
		onErrorDropped(err)
		return
	}
	f.done = true
	f.actual.OnError(err)
}

func (f *filterSubscriber[T]) OnComplete() {
	if f.done {
		return
	}
	f.done = true
	f.actual.OnComplete()
}

func (f *filterSubscriber[T]) Request(n int64) { f.s.Request(n) }
func (f *filterSubscriber[T]) Cancel()         { f.s.Cancel() }

func (f *filterSubscriber[T]) RequestFusion(requested int) int {
	if f.qs == nil {
		return FusionNone
	}
	f.sourceMode = f.qs.RequestFusion(requested)
	return f.sourceMode
}

// Poll skips rejected values in place. In async mode each skipped value
// already counted against upstream demand, so one is re-requested.
func (f *filterSubscriber[T]) Poll() (T, bool, error) {
	var zero T
	for {
		v, ok, err := f.qs.Poll()
		if err != nil || !ok {
			return zero, false, err
		}
		if f.pred(v) {
			return v, true, nil
		}
		if f.sourceMode == FusionAsync {
			f.qs.Request(1)
		}
	}
}

func (f *filterSubscriber[T]) Size() int     { return f.qs.Size() }
func (f *filterSubscriber[T]) IsEmpty() bool { return f.qs.IsEmpty() }
func (f *filterSubscriber[T]) Clear()        { f.qs.Clear() }

func (f *filterSubscriber[T]) Scan(key Attr) any {
	switch key {
	case AttrParent:
		return f.s
	case AttrActual:
		return f.actual
	case AttrTerminated:
		return f.done
	case AttrRunStyle:
		return RunStyleSync
	default:
		return nil
	}
}
