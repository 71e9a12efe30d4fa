package observability

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StreamContext holds the observability state of one instrumented
// subscription: a correlation id, the covering span and the metric
// instruments.
type StreamContext struct {
	StreamID  string
	Name      string
	StartTime time.Time
	Metrics   *SignalMetrics

	ended atomic.Bool
}

// NewStreamContext creates a stream context with a fresh correlation id.
// If metrics is nil, metric recording is silently skipped.
func NewStreamContext(name string, metrics *SignalMetrics) *StreamContext {
	return &StreamContext{
		StreamID:  uuid.NewString(),
		Name:      name,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

// streamContextKey is the context key for StreamContext.
type streamContextKey struct{}

// WithStreamContext stores a StreamContext in the context.
func WithStreamContext(ctx context.Context, sc *StreamContext) context.Context {
	return context.WithValue(ctx, streamContextKey{}, sc)
}

// StreamContextFromContext retrieves the StreamContext from context, or nil.
func StreamContextFromContext(ctx context.Context) *StreamContext {
	if sc, ok := ctx.Value(streamContextKey{}).(*StreamContext); ok {
		return sc
	}
	return nil
}

// StartSubscription starts the span covering the subscription and
// records the subscribe metric.
func (sc *StreamContext) StartSubscription(ctx context.Context) (context.Context, trace.Span) {
	sc.StartTime = time.Now()
	ctx, span := StartSpan(ctx, SpanSubscription)
	span.SetAttributes(
		attribute.String(AttrStreamName, sc.Name),
		attribute.String(AttrStreamID, sc.StreamID),
	)

	if sc.Metrics != nil {
		sc.Metrics.RecordSubscribe(ctx)
	}
	return WithStreamContext(ctx, sc), span
}

// EndSubscription closes the span and records the terminal outcome.
// Only the first call takes effect; a cancellation racing a terminal
// is counted once.
func (sc *StreamContext) EndSubscription(ctx context.Context, span trace.Span, outcome string, err error) {
	if !sc.ended.CompareAndSwap(false, true) {
		return
	}
	duration := time.Since(sc.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}

	span.SetAttributes(
		attribute.String(AttrOutcome, outcome),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if sc.Metrics != nil {
		sc.Metrics.RecordTerminal(ctx, sc.Name, outcome, duration)
	}
}

// Duration returns the elapsed time since the subscription started.
func (sc *StreamContext) Duration() time.Duration {
	return time.Since(sc.StartTime)
}
