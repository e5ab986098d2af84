package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

// AuthorizationStateStore holds pending authorization requests between init
// and callback.
type AuthorizationStateStore interface {
	// Put records a pending request under its state token.
	// The request is dropped after ttl.
	Put(ctx context.Context, req domain.AuthorizationRequest, ttl time.Duration) error

	// Take atomically returns and removes the request for state.
	// A second Take for the same state, or a Take after expiry,
	// returns domain.ErrNotFound.
	Take(ctx context.Context, state string) (*domain.AuthorizationRequest, error)
}
