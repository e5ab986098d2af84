package domain

import (
	"slices"
	"time"
)

// Credentials stores the exchanged OAuth tokens for one Identity.
// There is at most one Credentials per Identity; saving a new one
// supersedes the previous.
type Credentials struct {
	// ID is the unique identifier (UUID). A new ID is assigned per exchange.
	ID string `json:"id"`

	// Identity is the user's email address from the provider.
	// Examples: "user@gmail.com", "alice@example.com"
	Identity string `json:"identity"`

	// Scopes are the scopes the provider granted, in the order reported.
	Scopes []string `json:"scopes,omitempty"`

	// OAuth holds the token pair.
	OAuth *OAuthCredentials `json:"oauth,omitempty"`

	// CreatedAt is when the credentials were created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the credentials were last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// OAuthCredentials stores OAuth tokens for a specific user account.
type OAuthCredentials struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`
	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`
}

// IsExpired returns true if the OAuth access token has expired.
func (c *OAuthCredentials) IsExpired() bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().After(c.Expiry)
}

// IsAuthenticated returns true if the credentials contain an access token.
func (c *Credentials) IsAuthenticated() bool {
	return c.OAuth != nil && c.OAuth.AccessToken != ""
}

// NeedsRefresh returns true if OAuth tokens need refreshing.
func (c *Credentials) NeedsRefresh() bool {
	if c.OAuth == nil {
		return false
	}
	return c.OAuth.IsExpired() && c.OAuth.RefreshToken != ""
}

// HasRefreshToken returns true if a refresh token is available.
func (c *Credentials) HasRefreshToken() bool {
	return c.OAuth != nil && c.OAuth.RefreshToken != ""
}

// HasScope reports whether scope was granted.
func (c *Credentials) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}
