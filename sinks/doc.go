// Package sinks provides programmatic entry points into streams: a
// caller-facing API whose emissions are delivered to a subscriber under
// the normal demand rules.
//
// Emission is attempt-based. TryEmitNext, TryEmitError and
// TryEmitComplete report an EmitResult instead of blocking or
// buffering: the caller decides whether a failed emission is retried,
// dropped or escalated. The forcing variants EmitNext, EmitError and
// EmitComplete apply a failure handler and, by default, convert demand
// violations into an overflow error terminal.
package sinks
