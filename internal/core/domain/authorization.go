package domain

import (
	"fmt"
	"time"
)

// IdentityMode selects how a callback determines which user authorized.
type IdentityMode string

const (
	// IdentityModeProfile resolves the identity from the email address the
	// provider reports for the exchanged token.
	IdentityModeProfile IdentityMode = "profile"

	// IdentityModeSession resolves the identity from the authenticated
	// session user recorded when the flow was initiated. The callback must
	// arrive under the same session user.
	IdentityModeSession IdentityMode = "session"
)

// ParseIdentityMode parses a configured mode. "email" is accepted as an
// alias for profile.
func ParseIdentityMode(s string) (IdentityMode, error) {
	switch s {
	case "", "email", string(IdentityModeProfile):
		return IdentityModeProfile, nil
	case string(IdentityModeSession):
		return IdentityModeSession, nil
	default:
		return "", fmt.Errorf("%w: unknown identity mode %q", ErrInvalidInput, s)
	}
}

// AuthorizationRequest is the pending state of one init call.
// It is created by init, consumed by exactly one callback, then discarded.
type AuthorizationRequest struct {
	// State is the opaque correlation token carried through the provider redirect.
	State string `json:"state"`
	// Scopes are the requested scopes, in request order.
	Scopes []string `json:"scopes"`
	// Mode selects how the callback resolves the identity.
	Mode IdentityMode `json:"mode"`
	// OfflineAccess requests a refresh-capable credential.
	OfflineAccess bool `json:"offline_access"`
	// SessionIdentity is the session user at init time (session mode only).
	SessionIdentity string `json:"session_identity,omitempty"`
	// CodeVerifier is the PKCE verifier sent with the grant exchange.
	CodeVerifier string `json:"code_verifier"`
	// CreatedAt is when init ran.
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the request is older than ttl.
// A non-positive ttl never expires.
func (r *AuthorizationRequest) IsExpired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(r.CreatedAt) > ttl
}

// RedirectDescriptor is the consent redirect returned by init.
type RedirectDescriptor struct {
	// URL is the provider consent page, including scopes and state.
	URL string
	// State is the correlation token embedded in URL.
	State string
}

// CallbackParams is what the transport extracts from an inbound callback.
type CallbackParams struct {
	// State is the state query parameter returned by the provider.
	State string
	// BoundState is the state recorded in the caller's browser at init.
	BoundState string
	// Code is the one-time grant.
	Code string
	// ProviderError is set when the provider redirected with an error
	// (for example access_denied).
	ProviderError string
	// ProviderErrorDescription accompanies ProviderError.
	ProviderErrorDescription string
	// SessionIdentity is the authenticated session user on the callback request.
	SessionIdentity string
}

// Authorized is the successful outcome of a callback exchange.
// The credentials themselves stay in the credentials store.
type Authorized struct {
	// Identity is the resolved user.
	Identity string
	// CredentialsID is the ID of the freshly saved credentials.
	CredentialsID string
}
