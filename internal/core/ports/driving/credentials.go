package driving

import (
	"context"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

// CredentialsService manages user-specific authentication credentials.
type CredentialsService interface {
	// Get retrieves credentials for an identity.
	Get(ctx context.Context, identity string) (*domain.Credentials, error)

	// List returns all stored credentials.
	List(ctx context.Context) ([]domain.Credentials, error)

	// Revoke removes credentials for an identity.
	Revoke(ctx context.Context, identity string) error
}
