// Package dedupe owns the event admission cache and the processing lock
// table. Both live behind one Store contract so the webhook handler can be
// backed by process-local memory (single-instance semantics, the default)
// or by a shared Redis deployment for horizontally scaled setups.
package dedupe

import "context"

// Store is the admission/lock contract for the webhook pipeline.
//
// For a given cast hash, at most one caller holds the processing lock at a
// time. A delivery is a duplicate when its event id or cast hash was marked
// processed within the retention window. Events carrying neither identity
// are always admitted.
type Store interface {
	// SeenRecently reports whether this delivery was already processed
	// within the retention window.
	SeenRecently(ctx context.Context, castHash, eventID string) bool

	// TryAcquire takes the processing lock for a cast hash. Returns false
	// when another delivery for the same hash is currently in flight.
	TryAcquire(ctx context.Context, castHash string) bool

	// MarkProcessed records the delivery as admitted and releases its lock.
	// Called on every terminal outcome that should not be retried.
	MarkProcessed(ctx context.Context, castHash, eventID string)

	// Release drops the processing lock without recording admission, for
	// exit paths where the event was never terminally handled.
	Release(ctx context.Context, castHash string)

	// Close releases any backing resources.
	Close() error
}
