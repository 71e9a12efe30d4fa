package errors

// ErrorCode is a machine-readable classification of a stream error.
type ErrorCode string

const (
	// ErrCodeOverflow signals that a producer emitted beyond the
	// consumer's outstanding demand.
	ErrCodeOverflow ErrorCode = "OVERFLOW"
	// ErrCodeNonPositiveRequest signals a Request call with n <= 0.
	ErrCodeNonPositiveRequest ErrorCode = "NON_POSITIVE_REQUEST"
	// ErrCodeDuplicateSubscription signals a second OnSubscribe on a
	// subscriber that already holds a live subscription.
	ErrCodeDuplicateSubscription ErrorCode = "DUPLICATE_SUBSCRIPTION"
	// ErrCodeSingleSubscriber signals a subscribe attempt on a source
	// that accepts exactly one subscriber.
	ErrCodeSingleSubscriber ErrorCode = "SINGLE_SUBSCRIBER"
	// ErrCodeOperator wraps a failure thrown by a user-supplied function
	// inside an operator (mapper, predicate, factory, closure).
	ErrCodeOperator ErrorCode = "OPERATOR"
	// ErrCodeCleanup wraps a failure raised by a resource cleanup
	// callback or cleanup sequence.
	ErrCodeCleanup ErrorCode = "CLEANUP"
	// ErrCodeStrictResourceSupply signals that a resource-supplying
	// sequence emitted more than one value while strict mode is enabled.
	ErrCodeStrictResourceSupply ErrorCode = "STRICT_RESOURCE_SUPPLY"
)
