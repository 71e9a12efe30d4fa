package streams

// TapHandlers holds the side-effect callbacks observed by Tap. Any
// field may be nil.
type TapHandlers[T any] struct {
	OnSubscribe func(Subscription)
	OnNext      func(T)
	OnError     func(error)
	OnComplete  func()
	OnRequest   func(int64)
	OnCancel    func()
}

// Tap observes the signals and demand flowing through s without
// altering them. The stage deliberately rejects fusion so every signal
// is seen exactly as the consumer receives it.
func Tap[T any](s *Stream[T], h TapHandlers[T]) *Stream[T] {
	return NewStream[T](&tapPublisher[T]{source: s.source, handlers: h})
}

type tapPublisher[T any] struct {
	source   Publisher[T]
	handlers TapHandlers[T]
}

func (p *tapPublisher[T]) Subscribe(s Subscriber[T]) {
	p.source.Subscribe(&tapSubscriber[T]{actual: s, handlers: p.handlers})
}

type tapSubscriber[T any] struct {
	actual   Subscriber[T]
	handlers TapHandlers[T]

	s    Subscription
	done bool
}

func (t *tapSubscriber[T]) OnSubscribe(s Subscription) {
	if !validateSubscription(t.s, s) {
		return
	}
	t.s = s
	if t.handlers.OnSubscribe != nil {
		t.handlers.OnSubscribe(s)
	}
	t.actual.OnSubscribe(t)
}

func (t *tapSubscriber[T]) OnNext(v T) {
	if t.done {
		onNextDropped(v)
		return
	}
	if t.handlers.OnNext != nil {
		t.handlers.OnNext(v)
	}
	t.actual.OnNext(v)
}

func (t *tapSubscriber[T]) OnError(err error) {
	if t.done {
		onErrorDropped(err)
		return
	}
	t.done = true
	if t.handlers.OnError != nil {
		t.handlers.OnError(err)
	}
	t.actual.OnError(err)
}

func (t *tapSubscriber[T]) OnComplete() {
	if t.done {
		return
	}
	t.done = true
	if t.handlers.OnComplete != nil {
		t.handlers.OnComplete()
	}
	t.actual.OnComplete()
}

func (t *tapSubscriber[T]) Request(n int64) {
	if t.handlers.OnRequest != nil {
		t.handlers.OnRequest(n)
	}
	t.s.Request(n)
}

func (t *tapSubscriber[T]) Cancel() {
	if t.handlers.OnCancel != nil {
		t.handlers.OnCancel()
	}
	t.s.Cancel()
}

func (t *tapSubscriber[T]) Scan(key Attr) any {
	switch key {
	case AttrParent:
		return t.s
	case AttrActual:
		return t.actual
	case AttrTerminated:
		return t.done
	case AttrRunStyle:
		return RunStyleSync
	default:
		return nil
	}
}
