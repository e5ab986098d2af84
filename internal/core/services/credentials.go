package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driving"
)

// Ensure CredentialsService implements the interface.
var _ driving.CredentialsService = (*CredentialsService)(nil)

// CredentialsService manages user-specific authentication credentials.
type CredentialsService struct {
	store driven.CredentialsStore
}

// NewCredentialsService creates a new credentials service.
func NewCredentialsService(store driven.CredentialsStore) *CredentialsService {
	return &CredentialsService{
		store: store,
	}
}

// Get retrieves credentials for an identity.
func (s *CredentialsService) Get(ctx context.Context, identity string) (*domain.Credentials, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	if identity == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.store.Get(ctx, identity)
}

// List returns all stored credentials.
func (s *CredentialsService) List(ctx context.Context) ([]domain.Credentials, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.store.List(ctx)
}

// Revoke removes credentials for an identity. Revoking an unknown identity
// returns domain.ErrNotFound.
func (s *CredentialsService) Revoke(ctx context.Context, identity string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	if _, err := s.Get(ctx, identity); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, identity); err != nil {
		return fmt.Errorf("revoking credentials for %s: %w", identity, err)
	}
	return nil
}
