package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Authorization Errors.

	// ErrIdentityResolution indicates an inbound callback could not be matched
	// to the user who initiated it: missing or unknown state, a state not bound
	// to the calling browser, an unauthenticated session, or a profile without
	// an email address.
	ErrIdentityResolution = errors.New("identity resolution failed")

	// ErrGrantExchange indicates the provider rejected the one-time grant
	// (expired, already consumed, scope mismatch) or the user denied consent.
	ErrGrantExchange = errors.New("grant exchange failed")

	// ErrTokenRefreshFailed indicates token refresh operation failed.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// Subscription Errors.

	// ErrSubscriptionFailed indicates the notification service refused to
	// establish the inbox watch for a reason other than an existing watch.
	ErrSubscriptionFailed = errors.New("subscription failed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// IsAuthorizationFailure reports whether err belongs to the authorization
// failure class: identity resolution or grant exchange. Any other error
// raised while completing a callback is an infrastructure failure.
func IsAuthorizationFailure(err error) bool {
	return errors.Is(err, ErrIdentityResolution) || errors.Is(err, ErrGrantExchange)
}
