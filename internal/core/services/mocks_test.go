package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
)

// mockProvider implements driven.IdentityProvider for testing.
// Codes in validCodes can be exchanged once.
type mockProvider struct {
	mu          sync.Mutex
	validCodes  map[string]bool
	email       string
	scopes      []string
	userInfoErr error
	exchanges   int
}

func newMockProvider(email string, codes ...string) *mockProvider {
	p := &mockProvider{validCodes: make(map[string]bool), email: email}
	for _, c := range codes {
		p.validCodes[c] = true
	}
	return p
}

func (p *mockProvider) AuthCodeURL(req domain.AuthorizationRequest) string {
	v := url.Values{}
	v.Set("state", req.State)
	v.Set("scope", strings.Join(req.Scopes, " "))
	if req.OfflineAccess {
		v.Set("access_type", "offline")
	}
	return "https://accounts.example.com/auth?" + v.Encode()
}

func (p *mockProvider) Exchange(_ context.Context, code string, _ domain.AuthorizationRequest) (*driven.TokenGrant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchanges++
	if !p.validCodes[code] {
		return nil, errors.New("oauth2: \"invalid_grant\" \"Bad Request\"")
	}
	delete(p.validCodes, code)
	return &driven.TokenGrant{
		OAuth: domain.OAuthCredentials{
			AccessToken:  "access-" + code,
			RefreshToken: "refresh-" + code,
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		},
		Scopes: p.scopes,
	}, nil
}

func (p *mockProvider) UserInfo(_ context.Context, _ string) (*driven.Profile, error) {
	if p.userInfoErr != nil {
		return nil, p.userInfoErr
	}
	return &driven.Profile{Email: p.email, VerifiedEmail: true}, nil
}

// mockWatcher implements driven.MailWatcher for testing.
type mockWatcher struct {
	mu       sync.Mutex
	requests []domain.WatchRequest
	tokens   []string
	errs     []error
}

func (w *mockWatcher) Watch(_ context.Context, creds *domain.Credentials, req domain.WatchRequest) (*driven.WatchResponse, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append(w.requests, req)
	w.tokens = append(w.tokens, creds.OAuth.AccessToken)
	if len(w.errs) > 0 {
		err := w.errs[0]
		w.errs = w.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &driven.WatchResponse{HistoryID: 1234, Expiration: time.Unix(1700000000, 0)}, nil
}

// failingCredentialsStore fails every write.
type failingCredentialsStore struct {
	driven.CredentialsStore
}

func (failingCredentialsStore) Save(context.Context, domain.Credentials) error {
	return errors.New("database is locked")
}
