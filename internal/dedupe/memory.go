package dedupe

import (
	"context"
	"sync"
	"time"
)

// DefaultRetentionWindow bounds how long admission records are kept. Webhook
// providers redeliver at-least-once; a short window absorbs redelivery
// storms without unbounded memory growth.
const DefaultRetentionWindow = 180 * time.Second

// MemoryStore is the in-process Store implementation. State lives for the
// process lifetime only; restarts forget admissions, which is the accepted
// floor for this service.
type MemoryStore struct {
	mu     sync.Mutex
	window time.Duration
	events map[string]time.Time
	casts  map[string]time.Time
	locks  map[string]struct{}
	now    func() time.Time
}

// NewMemoryStore creates a memory-backed admission cache and lock table.
// A non-positive window falls back to the default.
func NewMemoryStore(window time.Duration) *MemoryStore {
	if window <= 0 {
		window = DefaultRetentionWindow
	}
	return &MemoryStore{
		window: window,
		events: make(map[string]time.Time),
		casts:  make(map[string]time.Time),
		locks:  make(map[string]struct{}),
		now:    time.Now,
	}
}

// sweep drops expired admission records. Called under s.mu on every lookup,
// which amortizes cleanup without a background timer.
func (s *MemoryStore) sweep(now time.Time) {
	for hash, at := range s.casts {
		if now.Sub(at) > s.window {
			delete(s.casts, hash)
		}
	}
	for id, at := range s.events {
		if now.Sub(at) > s.window {
			delete(s.events, id)
		}
	}
}

func (s *MemoryStore) SeenRecently(_ context.Context, castHash, eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	if eventID != "" {
		if _, ok := s.events[eventID]; ok {
			return true
		}
	}
	if castHash != "" {
		if at, ok := s.casts[castHash]; ok && now.Sub(at) <= s.window {
			return true
		}
	}
	return false
}

func (s *MemoryStore) TryAcquire(_ context.Context, castHash string) bool {
	if castHash == "" {
		// No identity to lock on; the delivery proceeds unserialized.
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.locks[castHash]; held {
		return false
	}
	s.locks[castHash] = struct{}{}
	return true
}

func (s *MemoryStore) MarkProcessed(_ context.Context, castHash, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if eventID != "" {
		s.events[eventID] = now
	}
	if castHash != "" {
		s.casts[castHash] = now
		delete(s.locks, castHash)
	}
}

func (s *MemoryStore) Release(_ context.Context, castHash string) {
	if castHash == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, castHash)
}

func (s *MemoryStore) Close() error {
	return nil
}
