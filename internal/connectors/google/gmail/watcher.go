package gmail

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/inboxwatch/internal/connectors/google"
	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
	"github.com/custodia-labs/inboxwatch/internal/logger"
)

// TokenSourceFactory produces a token source acting as the owner of creds.
type TokenSourceFactory func(ctx context.Context, creds *domain.Credentials) oauth2.TokenSource

// StaticTokenSource uses the stored access token as is, without refresh.
func StaticTokenSource(_ context.Context, creds *domain.Credentials) oauth2.TokenSource {
	return oauth2.StaticTokenSource(google.ToToken(creds.OAuth))
}

// Watcher implements driven.MailWatcher against the Gmail API.
type Watcher struct {
	tokens      TokenSourceFactory
	limiter     *google.RateLimiter
	serviceOpts []option.ClientOption
}

var _ driven.MailWatcher = (*Watcher)(nil)

// Option configures a Watcher.
type Option func(*Watcher)

// WithRateLimiter replaces the default limiter.
func WithRateLimiter(l *google.RateLimiter) Option {
	return func(w *Watcher) { w.limiter = l }
}

// WithServiceOptions appends Gmail client options (endpoint overrides in tests).
func WithServiceOptions(opts ...option.ClientOption) Option {
	return func(w *Watcher) { w.serviceOpts = append(w.serviceOpts, opts...) }
}

// NewWatcher creates a watcher. A nil factory uses StaticTokenSource.
func NewWatcher(tokens TokenSourceFactory, opts ...Option) *Watcher {
	if tokens == nil {
		tokens = StaticTokenSource
	}
	w := &Watcher{
		tokens:  tokens,
		limiter: google.NewRateLimiter(google.DefaultGmailRateLimit),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch issues one users.watch call for req.Identity using creds.
func (w *Watcher) Watch(ctx context.Context, creds *domain.Credentials, req domain.WatchRequest) (*driven.WatchResponse, error) {
	if creds == nil || !creds.IsAuthenticated() {
		return nil, fmt.Errorf("%w: credentials have no access token", domain.ErrInvalidInput)
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	svc, err := google.NewGmailService(ctx, w.tokens(ctx, creds), w.serviceOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	logger.Debug("Watching %v for %s on %s", req.LabelIDs, req.Identity, req.Topic)

	resp, err := svc.Users.Watch(req.Identity, &gmailapi.WatchRequest{
		LabelIds:  req.LabelIDs,
		TopicName: req.Topic.String(),
	}).Context(ctx).Do()
	if err != nil {
		if google.IsRateLimited(err) {
			w.limiter.RecordRateLimitError(google.RetryAfter(err))
			return nil, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
		return nil, err
	}

	out := &driven.WatchResponse{HistoryID: resp.HistoryId}
	if resp.Expiration > 0 {
		out.Expiration = time.UnixMilli(resp.Expiration).UTC()
	}
	return out, nil
}
