package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driving"
	"github.com/custodia-labs/inboxwatch/internal/logger"
)

// Ensure SubscriptionService implements the interface.
var _ driving.SubscriptionService = (*SubscriptionService)(nil)

// SubscriptionConflictPhrase is the text Gmail puts in the error returned
// when a watch already exists for the principal.
//
// TODO: confirm against current Gmail API documentation; the phrase is not
// a documented error code.
const SubscriptionConflictPhrase = "one user push notification client allowed per developer"

// IsSubscriptionConflict reports whether err is the "watch already exists"
// error. Gmail returns no distinct status for this case, so the match is on
// the message text.
func IsSubscriptionConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), SubscriptionConflictPhrase)
}

// SubscriptionOption configures a SubscriptionService.
type SubscriptionOption func(*SubscriptionService)

// WithConflictMatcher replaces IsSubscriptionConflict.
func WithConflictMatcher(match func(error) bool) SubscriptionOption {
	return func(s *SubscriptionService) {
		s.isConflict = match
	}
}

// WithSubscriptionTracerProvider sets the tracer provider used for spans.
func WithSubscriptionTracerProvider(tp trace.TracerProvider) SubscriptionOption {
	return func(s *SubscriptionService) {
		s.tracer = tracerFrom(tp)
	}
}

// SubscriptionService registers inbox watches. It owns no state: every call
// acts with the credentials passed to it.
type SubscriptionService struct {
	watcher    driven.MailWatcher
	isConflict func(error) bool
	tracer     trace.Tracer
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(watcher driven.MailWatcher, opts ...SubscriptionOption) *SubscriptionService {
	s := &SubscriptionService{
		watcher:    watcher,
		isConflict: IsSubscriptionConflict,
		tracer:     tracerFrom(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Establish issues one inbox watch for creds.Identity routed to topic.
// Watches are leases, so calling Establish on every authorization renews them.
func (s *SubscriptionService) Establish(
	ctx context.Context,
	creds *domain.Credentials,
	topic domain.TopicTarget,
) (*domain.Subscription, error) {
	ctx, span := s.tracer.Start(ctx, "subscription.establish")
	defer span.End()

	if creds == nil || creds.Identity == "" || !creds.IsAuthenticated() {
		err := fmt.Errorf("%w: credentials with an access token are required", domain.ErrInvalidInput)
		recordError(span, err)
		return nil, err
	}
	if err := topic.Validate(); err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String(attrUserID, creds.Identity),
		attribute.String(attrTopic, topic.String()),
	)

	req := domain.WatchRequest{
		Identity: creds.Identity,
		LabelIDs: []string{domain.InboxLabel},
		Topic:    topic,
	}
	sub := &domain.Subscription{
		Identity: req.Identity,
		Topic:    topic,
		LabelIDs: req.LabelIDs,
	}

	resp, err := s.watcher.Watch(ctx, creds, req)
	if err != nil {
		if s.isConflict(err) {
			logger.Info("inbox watch for %s already active: %v", creds.Identity, err)
			span.SetAttributes(attribute.Bool(attrAlreadyWatch, true))
			sub.AlreadyActive = true
			return sub, nil
		}
		logger.Error("establishing inbox watch for %s on %s: %v", creds.Identity, topic, err)
		err = fmt.Errorf("%w: %w", domain.ErrSubscriptionFailed, err)
		recordError(span, err)
		return nil, err
	}

	sub.HistoryID = resp.HistoryID
	sub.Expiration = resp.Expiration
	logger.Info("inbox watch for %s established on %s (expires %s)", creds.Identity, topic, resp.Expiration)
	return sub, nil
}
