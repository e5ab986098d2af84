package driving

import (
	"context"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

// SubscriptionService establishes or renews inbox watches.
type SubscriptionService interface {
	// Establish registers an inbox watch for creds.Identity routed to topic.
	// An existing watch for the principal is reported as success with
	// Subscription.AlreadyActive set.
	Establish(ctx context.Context, creds *domain.Credentials, topic domain.TopicTarget) (*domain.Subscription, error)
}
