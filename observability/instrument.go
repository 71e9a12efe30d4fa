package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/streamkit/streams"
)

// Instrument wraps s with a pass-through stage that counts signals,
// tracks the active-subscription gauge and covers the subscription
// with a span from handshake to terminal. The instrumented stream is
// meant for a single subscription; each Instrument call owns one
// StreamContext.
func Instrument[T any](s *streams.Stream[T], name string, metrics *SignalMetrics) *streams.Stream[T] {
	sc := NewStreamContext(name, metrics)

	var ctx context.Context
	var span trace.Span
	return streams.Tap(s, streams.TapHandlers[T]{
		OnSubscribe: func(streams.Subscription) {
			ctx, span = sc.StartSubscription(context.Background())
		},
		OnNext: func(T) {
			if metrics != nil {
				metrics.RecordNext(ctx, name)
			}
		},
		OnError: func(err error) {
			sc.EndSubscription(ctx, span, "error", err)
		},
		OnComplete: func() {
			sc.EndSubscription(ctx, span, "complete", nil)
		},
		OnCancel: func() {
			sc.EndSubscription(ctx, span, "cancel", nil)
		},
	})
}

// ObserveDrops routes the process-wide dropped-signal hook into the
// stream.dropped.total counter, attributed to the given stream name.
// A nil metrics detaches the observer.
func ObserveDrops(stream string, metrics *SignalMetrics) {
	if metrics == nil {
		streams.SetDropObserver(nil)
		return
	}
	streams.SetDropObserver(func(signal string) {
		metrics.RecordDropped(context.Background(), stream, signal)
	})
}
