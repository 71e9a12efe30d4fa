package streams

// Fusion modes negotiated between adjacent stages at subscribe time.
// A consumer offers the modes it can drive; the producer answers with
// the granted mode or FusionNone.
const (
	// FusionNone rejects fusion; signals flow by push.
	FusionNone = 0
	// FusionSync grants synchronous pull: Poll returning (zero, false,
	// nil) means the sequence is exhausted.
	FusionSync = 1
	// FusionAsync grants queue-backed pull: Poll returning (zero,
	// false, nil) means no value is available right now.
	FusionAsync = 2
	// FusionAny offers both modes and lets the producer pick.
	FusionAny = FusionSync | FusionAsync
)

// QueueSubscription is a Subscription that can additionally be drained
// by pulling, once a fusion mode has been granted. The Poll shape
// matches a pull iterator: value, availability, failure.
type QueueSubscription[T any] interface {
	Subscription

	// RequestFusion answers a fusion offer with the granted mode.
	// Called at most once, before any Request call.
	RequestFusion(requested int) int
	// Poll returns the next value. ok == false with a nil error means
	// exhausted (FusionSync) or temporarily empty (FusionAsync). A
	// non-nil error terminates the pull; the caller must Cancel.
	Poll() (v T, ok bool, err error)
	// Size returns the number of buffered values, for planning only.
	Size() int
	// IsEmpty reports whether a Poll would return no value.
	IsEmpty() bool
	// Clear discards any buffered state. Called on cancellation.
	Clear()
}

// noFusion is embedded by subscriptions that expose the fusion surface
// but never grant a mode.
type noFusion[T any] struct{}

func (noFusion[T]) RequestFusion(int) int { return FusionNone }
func (noFusion[T]) Poll() (v T, ok bool, err error) {
	var zero T
	return zero, false, nil
}
func (noFusion[T]) Size() int     { return 0 }
func (noFusion[T]) IsEmpty() bool { return true }
func (noFusion[T]) Clear()        {}
