package driving

import (
	"context"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

// InitOptions configures one authorization request.
// Zero values fall back to the service defaults.
type InitOptions struct {
	// Scopes to request, in order.
	Scopes []string
	// Mode selects identity resolution for the matching callback.
	Mode domain.IdentityMode
	// OfflineAccess requests a refresh-capable credential.
	// Nil uses the service default.
	OfflineAccess *bool
	// SessionIdentity is the authenticated session user (session mode).
	SessionIdentity string
}

// AuthorizationService drives the two-phase consent handshake.
type AuthorizationService interface {
	// Init records a pending request and returns the consent redirect.
	Init(ctx context.Context, opts InitOptions) (*domain.RedirectDescriptor, error)

	// Complete resolves the identity for a callback, exchanges the grant and
	// saves the credentials. Failures wrapping domain.ErrIdentityResolution or
	// domain.ErrGrantExchange are authorization failures; any other error is
	// an infrastructure failure.
	Complete(ctx context.Context, params domain.CallbackParams) (*domain.Authorized, error)
}
