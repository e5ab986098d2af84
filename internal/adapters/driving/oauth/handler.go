package oauth

import (
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driving"
	"github.com/custodia-labs/inboxwatch/internal/logger"
)

// HandlerFunc is an HTTP handler that may fail.
// A returned error is logged and answered with one 500 response.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP implements http.Handler.
func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rw := &trackingWriter{ResponseWriter: w}
	if err := f(rw, r); err != nil {
		logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
		if rw.wrote {
			return
		}
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// trackingWriter records whether a response has been started.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

// SuccessFunc continues a callback whose identity was resolved and whose
// credentials were saved.
type SuccessFunc func(w http.ResponseWriter, r *http.Request, authorized domain.Authorized) error

// FailureFunc answers a callback that failed authorization. It must write a
// response and cannot fail.
type FailureFunc func(err error, w http.ResponseWriter, r *http.Request)

// HandlerConfig configures the transport.
type HandlerConfig struct {
	// CookieName names the state-binding cookie. Defaults to DefaultCookieName.
	CookieName string
	// CookiePath scopes the cookie. Defaults to "/auth".
	CookiePath string
	// CookieTTL bounds the cookie lifetime. Defaults to ten minutes.
	CookieTTL time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
	// SessionHeader is the trusted header carrying the authenticated session
	// user. Empty disables session identity.
	SessionHeader string
}

// DefaultCookieName is the state-binding cookie name.
const DefaultCookieName = "inboxwatch_state"

// Handler adapts an AuthorizationService to HTTP.
type Handler struct {
	auth driving.AuthorizationService
	cfg  HandlerConfig
}

// NewHandler creates the transport for auth.
func NewHandler(auth driving.AuthorizationService, cfg HandlerConfig) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/auth"
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = 10 * time.Minute
	}
	return &Handler{auth: auth, cfg: cfg}
}

// Init starts a consent: it binds a fresh state to the browser and redirects
// to the provider. Repeated "scope" query parameters override the default scopes.
func (h *Handler) Init() http.Handler {
	return HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		opts := driving.InitOptions{
			Scopes:          r.URL.Query()["scope"],
			SessionIdentity: h.sessionUser(r),
		}

		redirect, err := h.auth.Init(r.Context(), opts)
		if err != nil {
			if domain.IsAuthorizationFailure(err) {
				logger.Warn("authorization init refused: %v", err)
				writePage(w, http.StatusUnauthorized, FailureMessage)
				return nil
			}
			return err
		}

		http.SetCookie(w, &http.Cookie{
			Name:     h.cfg.CookieName,
			Value:    redirect.State,
			Path:     h.cfg.CookiePath,
			MaxAge:   int(h.cfg.CookieTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, redirect.URL, http.StatusFound)
		return nil
	})
}

// Callback completes a consent and routes to exactly one of onSuccess or onFailure.
// The state cookie is cleared in either case.
func (h *Handler) Callback(onSuccess SuccessFunc, onFailure FailureFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		q := r.URL.Query()
		params := domain.CallbackParams{
			State:                    q.Get("state"),
			Code:                     q.Get("code"),
			ProviderError:            q.Get("error"),
			ProviderErrorDescription: q.Get("error_description"),
			SessionIdentity:          h.sessionUser(r),
		}
		if c, err := r.Cookie(h.cfg.CookieName); err == nil {
			params.BoundState = c.Value
		} else if !errors.Is(err, http.ErrNoCookie) {
			return err
		}

		http.SetCookie(w, &http.Cookie{
			Name:     h.cfg.CookieName,
			Value:    "",
			Path:     h.cfg.CookiePath,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		authorized, err := h.auth.Complete(r.Context(), params)
		if err != nil {
			if domain.IsAuthorizationFailure(err) {
				onFailure(err, w, r)
				return nil
			}
			return err
		}
		return onSuccess(w, r, *authorized)
	}
}

func (h *Handler) sessionUser(r *http.Request) string {
	if h.cfg.SessionHeader == "" {
		return ""
	}
	return r.Header.Get(h.cfg.SessionHeader)
}
