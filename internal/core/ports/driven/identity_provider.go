package driven

import (
	"context"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

// TokenGrant is the result of exchanging a one-time grant.
type TokenGrant struct {
	// OAuth holds the issued token pair.
	OAuth domain.OAuthCredentials
	// Scopes are the scopes the provider reports as granted.
	// Empty when the provider does not report them.
	Scopes []string
}

// Profile is the subset of the provider's userinfo response we rely on.
type Profile struct {
	Email         string
	VerifiedEmail bool
	Name          string
}

// IdentityProvider is the OAuth identity provider.
type IdentityProvider interface {
	// AuthCodeURL builds the consent URL for req. It does not contact the provider.
	AuthCodeURL(req domain.AuthorizationRequest) string

	// Exchange trades a one-time grant for tokens.
	Exchange(ctx context.Context, code string, req domain.AuthorizationRequest) (*TokenGrant, error)

	// UserInfo fetches the profile of the token's owner.
	UserInfo(ctx context.Context, accessToken string) (*Profile, error)
}
