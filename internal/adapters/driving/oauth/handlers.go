package oauth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driving"
	"github.com/custodia-labs/inboxwatch/internal/logger"
)

// Response texts.
const (
	SuccessMessage = "Successfully set up Gmail push notifications."
	FailureMessage = "An error has occurred in the authorization process."
)

// Handlers are the production callback continuations.
type Handlers struct {
	store driven.CredentialsStore
	subs  driving.SubscriptionService
	topic domain.TopicTarget
}

// NewHandlers creates continuations that watch the inbox of each newly
// authorized identity, notifying topic.
func NewHandlers(store driven.CredentialsStore, subs driving.SubscriptionService, topic domain.TopicTarget) *Handlers {
	return &Handlers{store: store, subs: subs, topic: topic}
}

// OnSuccess loads the saved credentials and establishes the inbox watch.
// Store and hard subscription errors are returned to the transport.
func (h *Handlers) OnSuccess(w http.ResponseWriter, r *http.Request, authorized domain.Authorized) error {
	creds, err := h.store.Get(r.Context(), authorized.Identity)
	if err != nil {
		logger.Error("loading credentials for %s: %v", authorized.Identity, err)
		return fmt.Errorf("loading credentials for %s: %w", authorized.Identity, err)
	}

	sub, err := h.subs.Establish(r.Context(), creds, h.topic)
	if err != nil {
		return fmt.Errorf("establishing watch for %s: %w", authorized.Identity, err)
	}

	if sub.AlreadyActive {
		logger.Info("watch already active for %s", sub.Identity)
	} else {
		logger.Info("watching %s on %s (history %d, expires %s)",
			sub.Identity, sub.Topic, sub.HistoryID, sub.Expiration.Format("2006-01-02 15:04"))
	}

	writePage(w, http.StatusOK, SuccessMessage)
	return nil
}

// OnFailure answers an authorization failure: 401 when the identity could
// not be resolved, 400 when the grant was rejected.
func (h *Handlers) OnFailure(err error, w http.ResponseWriter, _ *http.Request) {
	logger.Warn("authorization failed: %v", err)

	status := http.StatusBadRequest
	if errors.Is(err, domain.ErrIdentityResolution) {
		status = http.StatusUnauthorized
	}
	writePage(w, status, FailureMessage)
}

// Observer reports how each callback ended: nil after a successful
// OnSuccess, otherwise the error that ended it. Authorization failures,
// errors returned from OnSuccess and infrastructure errors from Complete
// are all reported. Sends never block; outcomes beyond the buffer are dropped.
type Observer struct {
	outcomes chan error
}

// NewObserver creates an observer with room for one pending outcome.
func NewObserver() *Observer {
	return &Observer{outcomes: make(chan error, 1)}
}

// Outcomes returns the channel outcomes are sent on.
func (o *Observer) Outcomes() <-chan error {
	return o.outcomes
}

func (o *Observer) notify(err error) {
	select {
	case o.outcomes <- err:
	default:
	}
}

// Success reports a nil outcome when next succeeds. Its errors surface
// through Callback.
func (o *Observer) Success(next SuccessFunc) SuccessFunc {
	return func(w http.ResponseWriter, r *http.Request, authorized domain.Authorized) error {
		err := next(w, r, authorized)
		if err == nil {
			o.notify(nil)
		}
		return err
	}
}

// Failure reports the authorization failure passed to next.
func (o *Observer) Failure(next FailureFunc) FailureFunc {
	return func(err error, w http.ResponseWriter, r *http.Request) {
		next(err, w, r)
		o.notify(err)
	}
}

// Callback reports any error escaping the callback handler.
func (o *Observer) Callback(next HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		err := next(w, r)
		if err != nil {
			o.notify(err)
		}
		return err
	}
}
