package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driving"
	"github.com/custodia-labs/inboxwatch/internal/logger"
)

// Ensure AuthorizationService implements the interface.
var _ driving.AuthorizationService = (*AuthorizationService)(nil)

// DefaultStateTTL bounds how long a consent may take between init and callback.
const DefaultStateTTL = 10 * time.Minute

// AuthorizationConfig holds the defaults applied to every init.
type AuthorizationConfig struct {
	// Scopes requested when an init does not name any.
	Scopes []string
	// Mode used when an init does not name one.
	Mode domain.IdentityMode
	// OfflineAccess requests refresh-capable credentials by default.
	OfflineAccess bool
	// StateTTL defaults to DefaultStateTTL.
	StateTTL time.Duration
}

// AuthorizationOption configures an AuthorizationService.
type AuthorizationOption func(*AuthorizationService)

// WithAuthorizationTracerProvider sets the tracer provider used for spans.
func WithAuthorizationTracerProvider(tp trace.TracerProvider) AuthorizationOption {
	return func(s *AuthorizationService) {
		s.tracer = tracerFrom(tp)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) AuthorizationOption {
	return func(s *AuthorizationService) {
		s.now = now
	}
}

// AuthorizationService runs the consent handshake.
//
// Each callback moves through Pending -> Resolving -> Exchanged -> Terminal
// exactly once. A failure at any step ends the flow; the user restarts at init.
type AuthorizationService struct {
	provider driven.IdentityProvider
	states   driven.AuthorizationStateStore
	store    driven.CredentialsStore
	cfg      AuthorizationConfig
	tracer   trace.Tracer
	now      func() time.Time
}

// NewAuthorizationService creates a new authorization service.
func NewAuthorizationService(
	provider driven.IdentityProvider,
	states driven.AuthorizationStateStore,
	store driven.CredentialsStore,
	cfg AuthorizationConfig,
	opts ...AuthorizationOption,
) *AuthorizationService {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = DefaultStateTTL
	}
	if cfg.Mode == "" {
		cfg.Mode = domain.IdentityModeProfile
	}
	s := &AuthorizationService{
		provider: provider,
		states:   states,
		store:    store,
		cfg:      cfg,
		tracer:   tracerFrom(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init records a pending request and returns the consent redirect.
// It does not contact the provider.
func (s *AuthorizationService) Init(ctx context.Context, opts driving.InitOptions) (*domain.RedirectDescriptor, error) {
	ctx, span := s.tracer.Start(ctx, "authorization.init")
	defer span.End()

	req, err := s.newRequest(opts)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String(attrScope, strings.Join(req.Scopes, " ")),
		attribute.String(attrIdentityMode, string(req.Mode)),
	)

	if err := s.states.Put(ctx, *req, s.cfg.StateTTL); err != nil {
		err = fmt.Errorf("saving authorization state: %w", err)
		recordError(span, err)
		return nil, err
	}

	logger.Debug("authorization init: mode=%s offline=%t scopes=%v", req.Mode, req.OfflineAccess, req.Scopes)

	return &domain.RedirectDescriptor{
		URL:   s.provider.AuthCodeURL(*req),
		State: req.State,
	}, nil
}

func (s *AuthorizationService) newRequest(opts driving.InitOptions) (*domain.AuthorizationRequest, error) {
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = s.cfg.Scopes
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("%w: no scopes requested", domain.ErrInvalidInput)
	}

	mode := opts.Mode
	if mode == "" {
		mode = s.cfg.Mode
	}
	if mode == domain.IdentityModeSession && opts.SessionIdentity == "" {
		return nil, fmt.Errorf("%w: session mode requires an authenticated session", domain.ErrIdentityResolution)
	}

	offline := s.cfg.OfflineAccess
	if opts.OfflineAccess != nil {
		offline = *opts.OfflineAccess
	}

	state, err := generateState()
	if err != nil {
		return nil, err
	}
	verifier, err := generateCodeVerifier()
	if err != nil {
		return nil, err
	}

	return &domain.AuthorizationRequest{
		State:           state,
		Scopes:          slices.Clone(scopes),
		Mode:            mode,
		OfflineAccess:   offline,
		SessionIdentity: opts.SessionIdentity,
		CodeVerifier:    verifier,
		CreatedAt:       s.now(),
	}, nil
}

// Complete resolves the identity, exchanges the grant and saves the credentials.
// The credentials are persisted before Complete returns.
func (s *AuthorizationService) Complete(ctx context.Context, params domain.CallbackParams) (*domain.Authorized, error) {
	ctx, span := s.tracer.Start(ctx, "authorization.complete")
	defer span.End()

	authorized, err := s.complete(ctx, params)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String(attrUserID, authorized.Identity))
	return authorized, nil
}

func (s *AuthorizationService) complete(ctx context.Context, params domain.CallbackParams) (*domain.Authorized, error) {
	// Resolving
	req, err := s.takeRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	if params.ProviderError != "" {
		return nil, fmt.Errorf("%w: provider returned %s: %s",
			domain.ErrGrantExchange, params.ProviderError, params.ProviderErrorDescription)
	}
	if params.Code == "" {
		return nil, fmt.Errorf("%w: no authorization code received", domain.ErrGrantExchange)
	}

	grant, err := s.provider.Exchange(ctx, params.Code, *req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGrantExchange, err)
	}

	identity, err := s.resolveIdentity(ctx, req, grant)
	if err != nil {
		return nil, err
	}

	// Exchanged
	now := s.now()
	scopes := grant.Scopes
	if len(scopes) == 0 {
		scopes = req.Scopes
	}
	oauth := grant.OAuth
	creds := domain.Credentials{
		ID:        uuid.NewString(),
		Identity:  identity,
		Scopes:    slices.Clone(scopes),
		OAuth:     &oauth,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.OfflineAccess && oauth.RefreshToken == "" {
		logger.Warn("provider issued no refresh token for %s despite offline access", identity)
	}

	if err := s.store.Save(ctx, creds); err != nil {
		logger.Error("saving credentials for %s: %v", identity, err)
		return nil, fmt.Errorf("saving credentials for %s: %w", identity, err)
	}

	logger.Info("authorized %s (credentials %s)", identity, creds.ID)
	return &domain.Authorized{Identity: identity, CredentialsID: creds.ID}, nil
}

// takeRequest consumes the pending request matching the callback.
// A state that is not bound to the caller is left in place.
func (s *AuthorizationService) takeRequest(
	ctx context.Context,
	params domain.CallbackParams,
) (*domain.AuthorizationRequest, error) {
	if params.State == "" {
		return nil, fmt.Errorf("%w: missing state parameter", domain.ErrIdentityResolution)
	}
	if subtle.ConstantTimeCompare([]byte(params.State), []byte(params.BoundState)) != 1 {
		return nil, fmt.Errorf("%w: state is not bound to this client", domain.ErrIdentityResolution)
	}

	req, err := s.states.Take(ctx, params.State)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown or already used state", domain.ErrIdentityResolution)
	}
	if err != nil {
		return nil, fmt.Errorf("loading authorization state: %w", err)
	}
	if req.IsExpired(s.cfg.StateTTL, s.now()) {
		return nil, fmt.Errorf("%w: authorization request expired", domain.ErrIdentityResolution)
	}

	if req.Mode == domain.IdentityModeSession {
		switch {
		case params.SessionIdentity == "":
			return nil, fmt.Errorf("%w: unauthenticated session", domain.ErrIdentityResolution)
		case params.SessionIdentity != req.SessionIdentity:
			return nil, fmt.Errorf("%w: session user does not match the initiating user", domain.ErrIdentityResolution)
		}
	}
	return req, nil
}

func (s *AuthorizationService) resolveIdentity(
	ctx context.Context,
	req *domain.AuthorizationRequest,
	grant *driven.TokenGrant,
) (string, error) {
	if req.Mode == domain.IdentityModeSession {
		return req.SessionIdentity, nil
	}

	profile, err := s.provider.UserInfo(ctx, grant.OAuth.AccessToken)
	if err != nil {
		return "", fmt.Errorf("%w: fetching profile: %w", domain.ErrIdentityResolution, err)
	}
	email := strings.TrimSpace(profile.Email)
	if email == "" {
		return "", fmt.Errorf("%w: profile has no email address", domain.ErrIdentityResolution)
	}
	return email, nil
}
