package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

// WatchResponse is the notification service's acknowledgement of a watch.
type WatchResponse struct {
	HistoryID  uint64
	Expiration time.Time
}

// MailWatcher registers inbox watches with the notification service.
// Each call acts with the credentials it is given; implementations hold no
// per-user state.
type MailWatcher interface {
	// Watch issues a single watch request. Errors are returned as reported by
	// the service; classification is left to the caller.
	Watch(ctx context.Context, creds *domain.Credentials, req domain.WatchRequest) (*WatchResponse, error)
}
