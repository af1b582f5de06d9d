package plan

import (
	"context"
	"sync"
	"time"
)

// Usage is one user's conversion counters. LastReset marks the start of
// the month the current counter belongs to.
type Usage struct {
	ConversionsThisMonth int       `json:"conversions_this_month" bson:"conversions_this_month"`
	ConversionsLastMonth int       `json:"conversions_last_month" bson:"conversions_last_month"`
	LastReset            time.Time `json:"last_reset" bson:"last_reset"`
}

// Store persists per-user usage. Read returns a zero Usage for unknown
// users rather than an error.
//
// Update is the transactional entry point: it applies fn to the stored
// usage and persists the result, serialized per user so that concurrent
// read-modify-write cycles never lose increments. fn may run more than
// once when the backend retries a write conflict, so it must be a pure
// function of its argument. An error from fn aborts the update without
// writing and is returned unchanged.
type Store interface {
	Read(ctx context.Context, userID string) (Usage, error)
	Write(ctx context.Context, userID string, u Usage) error
	Update(ctx context.Context, userID string, fn func(*Usage) error) error
}

// MemoryStore keeps usage in process memory. It backs tests and the
// single-process CLI; services use the Redis or Mongo stores.
type MemoryStore struct {
	mu    sync.Mutex
	usage map[string]Usage
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{usage: make(map[string]Usage)}
}

// Read returns the stored usage, zero for unknown users.
func (s *MemoryStore) Read(_ context.Context, userID string) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage[userID], nil
}

// Write replaces the stored usage.
func (s *MemoryStore) Write(_ context.Context, userID string, u Usage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[userID] = u
	return nil
}

// Update applies fn under the store lock, so concurrent updates for the
// same user never interleave.
func (s *MemoryStore) Update(_ context.Context, userID string, fn func(*Usage) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.usage[userID]
	if err := fn(&u); err != nil {
		return err
	}
	s.usage[userID] = u
	return nil
}
