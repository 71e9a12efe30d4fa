package streams

import (
	"errors"
	"testing"

	serr "github.com/kbukum/streamkit/errors"
)

// eventSubscriber appends terminal events to a shared journal so tests
// can assert ordering against cleanup.
type eventSubscriber[T any] struct {
	testSubscriber[T]
	journal *[]string
}

func (e *eventSubscriber[T]) OnError(err error) {
	*e.journal = append(*e.journal, "onError")
	e.testSubscriber.OnError(err)
}

func (e *eventSubscriber[T]) OnComplete() {
	*e.journal = append(*e.journal, "onComplete")
	e.testSubscriber.OnComplete()
}

func assertJournal(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("journal = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("journal[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestUsingEagerCleanupBeforeCompletion(t *testing.T) {
	var journal []string
	stream := Using(
		func() (string, error) { return "res", nil },
		func(r string) (Publisher[int], error) { return FromSlice([]int{1, 2}), nil },
		func(r string) error {
			journal = append(journal, "cleanup:"+r)
			return nil
		},
		true,
	)

	es := &eventSubscriber[int]{journal: &journal}
	es.initial = Unbounded
	stream.Subscribe(es)

	assertJournal(t, journal, []string{"cleanup:res", "onComplete"})
	es.assertComplete(t)
	if len(es.values) != 2 {
		t.Fatalf("values = %v", es.values)
	}
}

func TestUsingLazyCleanupAfterCompletion(t *testing.T) {
	var journal []string
	stream := Using(
		func() (string, error) { return "res", nil },
		func(r string) (Publisher[int], error) { return FromSlice([]int{1}), nil },
		func(string) error {
			journal = append(journal, "cleanup")
			return nil
		},
		false,
	)

	es := &eventSubscriber[int]{journal: &journal}
	es.initial = Unbounded
	stream.Subscribe(es)

	assertJournal(t, journal, []string{"onComplete", "cleanup"})
}

func TestUsingEagerCleanupFailureReplacesCompletion(t *testing.T) {
	cleanupErr := errors.New("release failed")
	stream := Using(
		func() (int, error) { return 1, nil },
		func(int) (Publisher[int], error) { return FromSlice([]int{1}), nil },
		func(int) error { return cleanupErr },
		true,
	)

	ts := newTestSubscriber[int](Unbounded)
	stream.Subscribe(ts)

	err := ts.assertError(t)
	if !errors.Is(err, cleanupErr) {
		t.Fatalf("err = %v, want cleanup failure", err)
	}
}

func TestUsingEagerCleanupFailureAfterErrorIsPrimary(t *testing.T) {
	sourceErr := errors.New("source failed")
	cleanupErr := errors.New("release failed")
	stream := Using(
		func() (int, error) { return 1, nil },
		func(int) (Publisher[int], error) { return Failed[int](sourceErr).AsStream(), nil },
		func(int) error { return cleanupErr },
		true,
	)

	ts := newTestSubscriber[int](Unbounded)
	stream.Subscribe(ts)

	err := ts.assertError(t)
	if !errors.Is(err, cleanupErr) {
		t.Fatalf("primary = %v, want cleanup failure", err)
	}
	sup := serr.SuppressedOf(err)
	if len(sup) != 1 || !errors.Is(sup[0], sourceErr) {
		t.Fatalf("suppressed = %v, want original source failure", sup)
	}
}

func TestUsingLazyCleanupFailureIsNotSurfaced(t *testing.T) {
	stream := Using(
		func() (int, error) { return 1, nil },
		func(int) (Publisher[int], error) { return FromSlice([]int{1}), nil },
		func(int) error { return errors.New("release failed") },
		false,
	)

	ts := newTestSubscriber[int](Unbounded)
	stream.Subscribe(ts)
	ts.assertComplete(t)
}

func TestUsingFactoryFailure(t *testing.T) {
	factoryErr := errors.New("acquire failed")
	cleanups := 0
	stream := Using(
		func() (int, error) { return 0, factoryErr },
		func(int) (Publisher[int], error) { return FromSlice([]int{1}), nil },
		func(int) error { cleanups++; return nil },
		true,
	)

	ts := newTestSubscriber[int](Unbounded)
	stream.Subscribe(ts)

	if err := ts.assertError(t); !errors.Is(err, factoryErr) {
		t.Fatalf("err = %v", err)
	}
	if cleanups != 0 {
		t.Fatal("cleanup ran for a resource that was never acquired")
	}
}

func TestUsingClosureFailureStillReleases(t *testing.T) {
	closureErr := errors.New("derive failed")
	cleanups := 0
	stream := Using(
		func() (int, error) { return 1, nil },
		func(int) (Publisher[int], error) { return nil, closureErr },
		func(int) error { cleanups++; return nil },
		true,
	)

	ts := newTestSubscriber[int](Unbounded)
	stream.Subscribe(ts)

	if err := ts.assertError(t); !errors.Is(err, closureErr) {
		t.Fatalf("err = %v", err)
	}
	if cleanups != 1 {
		t.Fatalf("cleanups = %d, want 1", cleanups)
	}
}

func TestUsingClosureFailureCombinesCleanupFailure(t *testing.T) {
	closureErr := errors.New("derive failed")
	cleanupErr := errors.New("release failed")
	stream := Using(
		func() (int, error) { return 1, nil },
		func(int) (Publisher[int], error) { return nil, closureErr },
		func(int) error { return cleanupErr },
		true,
	)

	ts := newTestSubscriber[int](Unbounded)
	stream.Subscribe(ts)

	err := ts.assertError(t)
	if !errors.Is(err, closureErr) {
		t.Fatalf("primary = %v, want closure failure", err)
	}
	sup := serr.SuppressedOf(err)
	if len(sup) != 1 || !errors.Is(sup[0], cleanupErr) {
		t.Fatalf("suppressed = %v, want cleanup failure", sup)
	}
}

func TestUsingCancelReleasesExactlyOnce(t *testing.T) {
	cleanups := 0
	stream := Using(
		func() (int, error) { return 1, nil },
		func(int) (Publisher[int], error) { return FromSlice([]int{1, 2, 3}), nil },
		func(int) error { cleanups++; return nil },
		true,
	)

	ts := newTestSubscriber[int](0)
	stream.Subscribe(ts)
	ts.sub.Cancel()
	ts.sub.Cancel()

	if cleanups != 1 {
		t.Fatalf("cleanups = %d, want 1", cleanups)
	}
	if ts.completes != 0 || len(ts.errs) != 0 {
		t.Fatal("terminal delivered after cancel")
	}
}

func TestUsingCancelAfterCompletionDoesNotReleaseTwice(t *testing.T) {
	cleanups := 0
	stream := Using(
		func() (int, error) { return 1, nil },
		func(int) (Publisher[int], error) { return FromSlice([]int{1}), nil },
		func(int) error { cleanups++; return nil },
		true,
	)

	ts := newTestSubscriber[int](Unbounded)
	stream.Subscribe(ts)
	ts.assertComplete(t)
	ts.sub.Cancel()

	if cleanups != 1 {
		t.Fatalf("cleanups = %d, want 1", cleanups)
	}
}

func TestUsingFusedPollExhaustionReleases(t *testing.T) {
	cleanups := 0
	stream := Using(
		func() (int, error) { return 1, nil },
		func(int) (Publisher[int], error) { return FromSlice([]int{1, 2}), nil },
		func(int) error { cleanups++; return nil },
		true,
	)

	fs := &fusedSubscriber[int]{offer: FusionAny}
	stream.Subscribe(fs)

	if fs.granted != FusionSync {
		t.Fatalf("granted = %d, want FusionSync", fs.granted)
	}
	if len(fs.values) != 2 {
		t.Fatalf("values = %v", fs.values)
	}
	if cleanups != 1 {
		t.Fatalf("cleanups = %d, want 1", cleanups)
	}
}

func TestUsingScan(t *testing.T) {
	stream := Using(
		func() (int, error) { return 1, nil },
		func(int) (Publisher[int], error) { return FromSlice([]int{1}), nil },
		func(int) error { return nil },
		true,
	)

	ts := newTestSubscriber[int](0)
	stream.Subscribe(ts)
	sc, ok := any(ts.sub).(Scannable)
	if !ok {
		t.Fatal("subscription is not scannable")
	}
	if sc.Scan(AttrTerminated) != false {
		t.Fatal("terminated before any signal")
	}
	ts.sub.Request(Unbounded)
	if sc.Scan(AttrTerminated) != true {
		t.Fatal("not terminated after completion")
	}
	if sc.Scan(AttrRunStyle) != RunStyleSync {
		t.Fatal("unexpected run style")
	}
	if sc.Scan(AttrCancelled) != false {
		t.Fatal("completion reported as cancellation")
	}
}

func TestUsingScanDistinguishesCancellation(t *testing.T) {
	stream := Using(
		func() (int, error) { return 1, nil },
		func(int) (Publisher[int], error) { return FromSlice([]int{1, 2, 3}), nil },
		func(int) error { return nil },
		true,
	)

	ts := newTestSubscriber[int](0)
	stream.Subscribe(ts)
	sc := any(ts.sub).(Scannable)

	ts.sub.Cancel()
	if sc.Scan(AttrCancelled) != true {
		t.Fatal("cancellation not reported")
	}
	if sc.Scan(AttrTerminated) != false {
		t.Fatal("cancellation reported as terminal")
	}
}
