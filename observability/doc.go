// Package observability provides OpenTelemetry tracing and metrics for
// stream pipelines.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewSignalMetrics(observability.Meter("my-service"))
//
// Instrumenting a stream:
//
//	src := streams.FromSlice(items)
//	instrumented := observability.Instrument(src, "ingest", metrics)
//
// Instrument observes through a pass-through stage: per-signal counters,
// an active-subscription gauge, and one span covering the subscription
// from handshake to terminal.
package observability
