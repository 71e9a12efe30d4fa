package streams

import (
	"errors"
	"testing"

	serr "github.com/kbukum/streamkit/errors"
)

// testSubscriber records every signal it receives. A positive initial
// demand is requested during the handshake; Unbounded switches sources
// onto their fast path.
type testSubscriber[T any] struct {
	initial int64

	sub       Subscription
	values    []T
	errs      []error
	completes int
}

func newTestSubscriber[T any](initial int64) *testSubscriber[T] {
	return &testSubscriber[T]{initial: initial}
}

func (t *testSubscriber[T]) OnSubscribe(s Subscription) {
	t.sub = s
	if t.initial > 0 {
		s.Request(t.initial)
	}
}

func (t *testSubscriber[T]) OnNext(v T)       { t.values = append(t.values, v) }
func (t *testSubscriber[T]) OnError(err error) { t.errs = append(t.errs, err) }
func (t *testSubscriber[T]) OnComplete()      { t.completes++ }

func (t *testSubscriber[T]) assertValues(tt *testing.T, want []T, eq func(a, b T) bool) {
	tt.Helper()
	if len(t.values) != len(want) {
		tt.Fatalf("got %d values, want %d (%v)", len(t.values), len(want), t.values)
	}
	for i := range want {
		if !eq(t.values[i], want[i]) {
			tt.Fatalf("value[%d] = %v, want %v", i, t.values[i], want[i])
		}
	}
}

func (t *testSubscriber[T]) assertComplete(tt *testing.T) {
	tt.Helper()
	if len(t.errs) != 0 {
		tt.Fatalf("unexpected errors: %v", t.errs)
	}
	if t.completes != 1 {
		tt.Fatalf("completes = %d, want 1", t.completes)
	}
}

func (t *testSubscriber[T]) assertError(tt *testing.T) error {
	tt.Helper()
	if t.completes != 0 {
		tt.Fatalf("unexpected completion")
	}
	if len(t.errs) != 1 {
		tt.Fatalf("got %d errors, want 1 (%v)", len(t.errs), t.errs)
	}
	return t.errs[0]
}

func intsEqual(a, b int) bool { return a == b }

func assertInts(t *testing.T, ts *testSubscriber[int], want ...int) {
	t.Helper()
	ts.assertValues(t, want, intsEqual)
}

func TestFromSliceUnbounded(t *testing.T) {
	ts := newTestSubscriber[int](Unbounded)
	FromSlice([]int{1, 2, 3}).Subscribe(ts)
	assertInts(t, ts, 1, 2, 3)
	ts.assertComplete(t)
}

func TestFromSliceBoundedDemand(t *testing.T) {
	ts := newTestSubscriber[int](2)
	FromSlice([]int{1, 2, 3, 4}).Subscribe(ts)
	assertInts(t, ts, 1, 2)
	if ts.completes != 0 {
		t.Fatal("completed before demand covered the sequence")
	}

	ts.sub.Request(2)
	assertInts(t, ts, 1, 2, 3, 4)
	ts.assertComplete(t)
}

func TestFromSliceNeverExceedsDemand(t *testing.T) {
	ts := newTestSubscriber[int](1)
	FromSlice([]int{10, 20, 30}).Subscribe(ts)
	assertInts(t, ts, 10)

	ts.sub.Request(1)
	assertInts(t, ts, 10, 20)
	ts.sub.Request(1)
	assertInts(t, ts, 10, 20, 30)
	ts.assertComplete(t)
}

func TestFromSliceEmptyCompletes(t *testing.T) {
	ts := newTestSubscriber[int](Unbounded)
	FromSlice([]int{}).Subscribe(ts)
	assertInts(t, ts)
	ts.assertComplete(t)
}

func TestRequestNonPositiveSignalsError(t *testing.T) {
	ts := newTestSubscriber[int](0)
	FromSlice([]int{1, 2}).Subscribe(ts)
	ts.sub.Request(0)
	err := ts.assertError(t)
	if serr.CodeOf(err) != serr.ErrCodeNonPositiveRequest {
		t.Fatalf("code = %s, want %s", serr.CodeOf(err), serr.ErrCodeNonPositiveRequest)
	}
}

// cancelAfter cancels its subscription once n values arrived.
type cancelAfter[T any] struct {
	testSubscriber[T]
	after int
}

func (c *cancelAfter[T]) OnNext(v T) {
	c.testSubscriber.OnNext(v)
	if len(c.values) == c.after {
		c.sub.Cancel()
	}
}

func TestCancelStopsEmission(t *testing.T) {
	cs := &cancelAfter[int]{after: 2}
	cs.initial = Unbounded
	FromSlice([]int{1, 2, 3, 4}).Subscribe(cs)
	if len(cs.values) != 2 {
		t.Fatalf("got %d values after cancel, want 2", len(cs.values))
	}
	if cs.completes != 0 || len(cs.errs) != 0 {
		t.Fatal("terminal signal delivered after cancellation")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	ts := newTestSubscriber[int](0)
	FromSlice([]int{1, 2, 3}).Subscribe(ts)
	ts.sub.Cancel()
	ts.sub.Cancel()
	ts.sub.Request(Unbounded)
	assertInts(t, ts)
	if ts.completes != 0 {
		t.Fatal("completed after cancel")
	}
}

func TestJustEmitsOnceAndCompletes(t *testing.T) {
	ts := newTestSubscriber[int](1)
	Just(7).Subscribe(ts)
	assertInts(t, ts, 7)
	ts.assertComplete(t)
}

func TestJustCancelBeforeRequest(t *testing.T) {
	ts := newTestSubscriber[int](0)
	Just(7).Subscribe(ts)
	ts.sub.Cancel()
	ts.sub.Request(1)
	assertInts(t, ts)
}

func TestEmptyCompletesWithoutValue(t *testing.T) {
	ts := newTestSubscriber[int](Unbounded)
	Empty[int]().Subscribe(ts)
	assertInts(t, ts)
	ts.assertComplete(t)
}

func TestFailedTerminatesImmediately(t *testing.T) {
	boom := errors.New("boom")
	ts := newTestSubscriber[int](Unbounded)
	Failed[int](boom).Subscribe(ts)
	if err := ts.assertError(t); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestSingleAsStreamKeepsOutcome(t *testing.T) {
	ts := newTestSubscriber[int](Unbounded)
	Just(42).AsStream().Subscribe(ts)
	assertInts(t, ts, 42)
	ts.assertComplete(t)
}

func TestDemandSaturatesAtUnbounded(t *testing.T) {
	ts := newTestSubscriber[int](0)
	FromSlice([]int{1, 2, 3}).Subscribe(ts)
	ts.sub.Request(Unbounded - 1)
	ts.sub.Request(Unbounded)
	assertInts(t, ts, 1, 2, 3)
	ts.assertComplete(t)
}

func TestDeferredSubscriptionReplaysDemand(t *testing.T) {
	var d deferredSubscription
	d.Request(3)
	d.Request(2)

	ts := newTestSubscriber[int](0)
	FromSlice([]int{1, 2, 3, 4, 5, 6}).Subscribe(ts)
	if !d.set(ts.sub) {
		t.Fatal("set rejected a fresh subscription")
	}
	assertInts(t, ts, 1, 2, 3, 4, 5)
}

func TestDeferredSubscriptionCancelBeforeSet(t *testing.T) {
	var d deferredSubscription
	d.Cancel()

	ts := newTestSubscriber[int](0)
	FromSlice([]int{1, 2}).Subscribe(ts)
	if d.set(ts.sub) {
		t.Fatal("set accepted a subscription after cancel")
	}
	ts.sub.Request(Unbounded)
	assertInts(t, ts)
}

func TestAtomicSubscriptionTerminateOnce(t *testing.T) {
	var a atomicSubscription
	ts := newTestSubscriber[int](0)
	FromSlice([]int{1}).Subscribe(ts)
	a.set(ts.sub)
	if !a.terminate() {
		t.Fatal("first terminate returned false")
	}
	if a.terminate() {
		t.Fatal("second terminate returned true")
	}
	if !a.isTerminated() {
		t.Fatal("not terminated after terminate")
	}
}
