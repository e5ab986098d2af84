package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
)

// Ensure CredentialsStore implements the interface.
var _ driven.CredentialsStore = (*CredentialsStore)(nil)

// CredentialsStore is an in-memory implementation of driven.CredentialsStore.
type CredentialsStore struct {
	mu    sync.RWMutex
	creds map[string]domain.Credentials
}

// NewCredentialsStore creates a new in-memory credentials store.
func NewCredentialsStore() *CredentialsStore {
	return &CredentialsStore{
		creds: make(map[string]domain.Credentials),
	}
}

// Save stores credentials, replacing any existing entry for the identity.
func (s *CredentialsStore) Save(_ context.Context, creds domain.Credentials) error {
	if creds.Identity == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[creds.Identity] = clone(creds)
	return nil
}

// Get retrieves credentials by identity.
func (s *CredentialsStore) Get(_ context.Context, identity string) (*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.creds[identity]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := clone(creds)
	return &c, nil
}

// List returns all credentials ordered by identity.
func (s *CredentialsStore) List(_ context.Context) ([]domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Credentials, 0, len(s.creds))
	for _, creds := range s.creds {
		result = append(result, clone(creds))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Identity < result[j].Identity })
	return result, nil
}

// Delete removes credentials for an identity.
func (s *CredentialsStore) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, identity)
	return nil
}

// clone copies the pointer and slice fields so callers cannot mutate stored state.
func clone(c domain.Credentials) domain.Credentials {
	c.Scopes = slices.Clone(c.Scopes)
	if c.OAuth != nil {
		oauth := *c.OAuth
		c.OAuth = &oauth
	}
	return c
}
