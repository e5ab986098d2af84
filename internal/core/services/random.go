package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// codeVerifierBytes yields an 86 character verifier (RFC 7636 allows 43-128).
	codeVerifierBytes = 64
	stateBytes        = 32
)

// randomToken returns n random bytes encoded as unpadded base64url.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// generateCodeVerifier creates a PKCE code verifier.
func generateCodeVerifier() (string, error) {
	return randomToken(codeVerifierBytes)
}

// generateState creates the state parameter correlating a callback with its init.
func generateState() (string, error) {
	return randomToken(stateBytes)
}
