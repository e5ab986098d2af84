package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/inboxwatch/internal/logger"
)

// Routes.
const (
	InitPath     = "/auth/init"
	CallbackPath = "/auth/callback"
	HealthPath   = "/healthz"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address. Port 0 picks a free port.
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves the init and callback endpoints.
type Server struct {
	mu       sync.Mutex
	cfg      ServerConfig
	server   *http.Server
	listener net.Listener
	errChan  chan error
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	observer *Observer
}

// WithObserver reports every callback outcome to o.
func WithObserver(o *Observer) ServerOption {
	return func(opts *serverOptions) { opts.observer = o }
}

// NewServer mounts handler's endpoints with the given continuations.
func NewServer(
	cfg ServerConfig,
	handler *Handler,
	onSuccess SuccessFunc,
	onFailure FailureFunc,
	opts ...ServerOption,
) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	callback := handler.Callback(onSuccess, onFailure)
	if o.observer != nil {
		callback = o.observer.Callback(handler.Callback(o.observer.Success(onSuccess), o.observer.Failure(onFailure)))
	}

	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+InitPath, handler.Init())
	mux.Handle("GET "+CallbackPath, callback)
	mux.HandleFunc("GET "+HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		cfg: cfg,
		server: &http.Server{
			Handler:           mux,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		errChan: make(chan error, 1),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener
	logger.Info("listening on %s", listener.Addr())

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	return nil
}

// Run starts the server and blocks until ctx is done or serving fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-s.errChan:
		return err
	}
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
