// Package streams provides composable, backpressure-aware asynchronous
// sequences with deterministic cancellation and resource safety.
//
// A Publisher delivers signals to a Subscriber under a strict protocol:
// OnSubscribe once, then zero or more OnNext calls never exceeding the
// cumulative requested demand, then exactly one of OnComplete or
// OnError. Cancellation is cooperative and idempotent.
//
// Two sequence arities exist: Stream (unbounded values then a terminal)
// and Single (at most one value then a terminal). Both implement
// Publisher and compose through free functions, mirroring the shape of
// a pull pipeline:
//
//	src := streams.FromSlice([]int{1, 2, 3})
//	doubled := streams.Map(src, func(n int) (int, error) { return n * 2, nil })
//	evens := streams.Filter(doubled, func(n int) bool { return n%2 == 0 })
//
// Adjacent stages may negotiate fusion at subscribe time: a producer
// granting FusionSync or FusionAsync lets the consumer switch from push
// signaling to non-blocking Poll calls, skipping per-element dispatch
// and request accounting. A rejected negotiation falls back to push
// signaling with identical observable outcomes.
//
// Resource-scoped operators tie an external resource's lifetime to a
// derived sequence: Using for synchronous acquire/release, UsingWhen
// for resources supplied and released by sequences of their own. Both
// guarantee at-most-once cleanup through a single atomic transition
// even when cancellation races a terminal signal.
//
// Signals that cannot be surfaced to a consumer (values after
// termination, errors after cancellation, cleanup failures on the
// cancel path) are routed to the package diagnostics logger, never
// thrown away silently. See SetDiagnostics.
package streams
