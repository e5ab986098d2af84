package oauth

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driving"
)

// fakeProvider implements driven.IdentityProvider. Codes exchange once.
type fakeProvider struct {
	mu    sync.Mutex
	codes map[string]bool
	email string
}

func newFakeProvider(email string, codes ...string) *fakeProvider {
	p := &fakeProvider{codes: make(map[string]bool), email: email}
	for _, c := range codes {
		p.codes[c] = true
	}
	return p
}

func (p *fakeProvider) AuthCodeURL(req domain.AuthorizationRequest) string {
	v := url.Values{}
	v.Set("state", req.State)
	for _, s := range req.Scopes {
		v.Add("scope", s)
	}
	return "https://accounts.example.com/o/oauth2/auth?" + v.Encode()
}

func (p *fakeProvider) Exchange(_ context.Context, code string, _ domain.AuthorizationRequest) (*driven.TokenGrant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.codes[code] {
		return nil, errors.New(`oauth2: "invalid_grant"`)
	}
	delete(p.codes, code)
	return &driven.TokenGrant{OAuth: domain.OAuthCredentials{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}}, nil
}

func (p *fakeProvider) UserInfo(context.Context, string) (*driven.Profile, error) {
	return &driven.Profile{Email: p.email, VerifiedEmail: true}, nil
}

// fakeWatcher implements driven.MailWatcher.
type fakeWatcher struct {
	mu       sync.Mutex
	requests []domain.WatchRequest
	err      error
}

func (w *fakeWatcher) Watch(_ context.Context, _ *domain.Credentials, req domain.WatchRequest) (*driven.WatchResponse, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append(w.requests, req)
	if w.err != nil {
		return nil, w.err
	}
	return &driven.WatchResponse{HistoryID: 42, Expiration: time.Now().Add(7 * 24 * time.Hour)}, nil
}

func (w *fakeWatcher) calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.requests)
}

// fakeAuth implements driving.AuthorizationService with fixed results.
type fakeAuth struct {
	state       string
	completeErr error
}

var _ driving.AuthorizationService = (*fakeAuth)(nil)

func (a *fakeAuth) Init(context.Context, driving.InitOptions) (*domain.RedirectDescriptor, error) {
	return &domain.RedirectDescriptor{URL: "https://accounts.example.com/o/oauth2/auth", State: a.state}, nil
}

func (a *fakeAuth) Complete(context.Context, domain.CallbackParams) (*domain.Authorized, error) {
	if a.completeErr != nil {
		return nil, a.completeErr
	}
	return &domain.Authorized{Identity: "alice@example.com", CredentialsID: "cred-1"}, nil
}
