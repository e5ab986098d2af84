package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.AuthorizationStateStore = (*StateStore)(nil)

type stateEntry struct {
	req       domain.AuthorizationRequest
	expiresAt time.Time
}

// StateStore is an in-memory implementation of driven.AuthorizationStateStore.
// It only correlates callbacks served by the same process.
type StateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	now     func() time.Time
}

// NewStateStore creates a new in-memory authorization state store.
func NewStateStore() *StateStore {
	return &StateStore{
		entries: make(map[string]stateEntry),
		now:     time.Now,
	}
}

// Put records a pending request. Expired entries are swept on each Put.
func (s *StateStore) Put(_ context.Context, req domain.AuthorizationRequest, ttl time.Duration) error {
	if req.State == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for state, e := range s.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(s.entries, state)
		}
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	s.entries[req.State] = stateEntry{req: req, expiresAt: expiresAt}
	return nil
}

// Take returns and removes the request for state.
func (s *StateStore) Take(_ context.Context, state string) (*domain.AuthorizationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(s.entries, state)
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		return nil, domain.ErrNotFound
	}
	req := e.req
	return &req, nil
}

// Len returns the number of pending requests, including expired ones not yet swept.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
