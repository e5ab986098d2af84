package google

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
	"github.com/custodia-labs/inboxwatch/internal/logger"
)

// PersistingTokenSource refreshes tokens for stored credentials and writes
// every newly issued access token back to the credentials store.
type PersistingTokenSource struct {
	ctx   context.Context
	base  oauth2.TokenSource
	store driven.CredentialsStore

	mu    sync.Mutex
	creds domain.Credentials
	last  string
}

// NewPersistingTokenSource wraps the provider's refreshing token source for creds.
func NewPersistingTokenSource(
	ctx context.Context,
	provider *Provider,
	store driven.CredentialsStore,
	creds *domain.Credentials,
) *PersistingTokenSource {
	ts := &PersistingTokenSource{
		ctx:   ctx,
		base:  provider.TokenSource(ctx, creds),
		store: store,
		creds: *creds,
	}
	if creds.OAuth != nil {
		ts.last = creds.OAuth.AccessToken
	}
	return ts
}

// Token implements oauth2.TokenSource.
func (t *PersistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := t.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrTokenRefreshFailed, t.creds.Identity, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if tok.AccessToken == t.last {
		return tok, nil
	}

	oauthCreds := FromToken(tok)
	// Google omits the refresh token on refresh responses.
	if oauthCreds.RefreshToken == "" && t.creds.OAuth != nil {
		oauthCreds.RefreshToken = t.creds.OAuth.RefreshToken
	}
	t.creds.OAuth = &oauthCreds
	t.creds.UpdatedAt = time.Now()

	if err := t.store.Save(t.ctx, t.creds); err != nil {
		return nil, fmt.Errorf("persist refreshed token for %s: %w", t.creds.Identity, err)
	}
	t.last = tok.AccessToken
	logger.Debug("Refreshed access token for %s", t.creds.Identity)

	return tok, nil
}
