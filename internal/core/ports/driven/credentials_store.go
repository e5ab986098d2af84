package driven

import (
	"context"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

// CredentialsStore persists user-specific authentication credentials.
// Credentials are keyed by identity (1:1 relationship). A Save is visible to
// every subsequent Get for the same identity once it returns.
type CredentialsStore interface {
	// Save stores credentials, superseding any existing credentials for the
	// same identity.
	Save(ctx context.Context, creds domain.Credentials) error

	// Get retrieves credentials by identity.
	// Returns domain.ErrNotFound if none exist.
	Get(ctx context.Context, identity string) (*domain.Credentials, error)

	// List returns all stored credentials.
	List(ctx context.Context) ([]domain.Credentials, error)

	// Delete removes credentials for an identity.
	Delete(ctx context.Context, identity string) error
}
