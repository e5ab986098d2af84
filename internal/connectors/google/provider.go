package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
)

// DefaultUserInfoURL is Google's OpenID userinfo endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Scopes requested by default.
const (
	ScopeProfile      = "profile"
	ScopeEmail        = "email"
	ScopeGmailModify  = "https://www.googleapis.com/auth/gmail.modify"
	ScopeSpreadsheets = "https://www.googleapis.com/auth/spreadsheets"
)

// DefaultScopes is the scope set requested when none is configured.
var DefaultScopes = []string{ScopeProfile, ScopeEmail, ScopeGmailModify, ScopeSpreadsheets}

// ProviderConfig configures the Google identity provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	// RedirectURL is the registered callback URL.
	RedirectURL string
	// Endpoint overrides the Google OAuth endpoints (tests).
	Endpoint oauth2.Endpoint
	// UserInfoURL overrides DefaultUserInfoURL (tests).
	UserInfoURL string
	// HTTPClient is used for token and userinfo calls. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Provider is the Google OAuth identity provider.
type Provider struct {
	base        oauth2.Config
	userInfoURL string
	client      *http.Client
}

var _ driven.IdentityProvider = (*Provider)(nil)

// NewProvider creates a Google identity provider.
func NewProvider(cfg ProviderConfig) *Provider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = googleoauth.Endpoint
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Provider{
		base: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
		client:      client,
	}
}

func (p *Provider) config(scopes []string) *oauth2.Config {
	c := p.base
	c.Scopes = append([]string(nil), scopes...)
	return &c
}

func (p *Provider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

// AuthCodeURL builds the consent URL with an S256 code challenge.
// Offline requests also force the consent prompt so a refresh token is issued.
func (p *Provider) AuthCodeURL(req domain.AuthorizationRequest) string {
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(req.CodeVerifier)}
	if req.OfflineAccess {
		opts = append(opts, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	}
	return p.config(req.Scopes).AuthCodeURL(req.State, opts...)
}

// Exchange trades the grant code for tokens.
func (p *Provider) Exchange(ctx context.Context, code string, req domain.AuthorizationRequest) (*driven.TokenGrant, error) {
	tok, err := p.config(req.Scopes).Exchange(p.withClient(ctx), code, oauth2.VerifierOption(req.CodeVerifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	grant := &driven.TokenGrant{OAuth: FromToken(tok)}
	if scope, ok := tok.Extra("scope").(string); ok {
		grant.Scopes = strings.Fields(scope)
	}
	return grant, nil
}

// userInfoResponse is the subset of the userinfo payload we decode.
type userInfoResponse struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// UserInfo fetches the profile of the token's owner.
func (p *Provider) UserInfo(ctx context.Context, accessToken string) (*driven.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed: %s", resp.Status)
	}

	var info userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	return &driven.Profile{
		Email:         info.Email,
		VerifiedEmail: info.VerifiedEmail,
		Name:          info.Name,
	}, nil
}

// TokenSource returns a refreshing token source for stored credentials.
// It does not persist refreshed tokens; see NewPersistingTokenSource.
func (p *Provider) TokenSource(ctx context.Context, creds *domain.Credentials) oauth2.TokenSource {
	return p.config(creds.Scopes).TokenSource(p.withClient(ctx), ToToken(creds.OAuth))
}

// ToToken converts stored OAuth credentials to an oauth2 token.
func ToToken(c *domain.OAuthCredentials) *oauth2.Token {
	if c == nil {
		return &oauth2.Token{}
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// FromToken converts an oauth2 token to storable OAuth credentials.
func FromToken(tok *oauth2.Token) domain.OAuthCredentials {
	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	expiry := tok.Expiry
	if !expiry.IsZero() {
		expiry = expiry.UTC().Truncate(time.Second)
	}
	return domain.OAuthCredentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tokenType,
		Expiry:       expiry,
	}
}
