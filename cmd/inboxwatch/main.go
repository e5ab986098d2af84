// Command inboxwatch authorizes Gmail accounts and watches their inboxes.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/inboxwatch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/inboxwatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/inboxwatch/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/inboxwatch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/inboxwatch/internal/adapters/driving/cli"
	"github.com/custodia-labs/inboxwatch/internal/adapters/driving/oauth"
	"github.com/custodia-labs/inboxwatch/internal/connectors/google"
	"github.com/custodia-labs/inboxwatch/internal/connectors/google/gmail"
	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
	"github.com/custodia-labs/inboxwatch/internal/core/services"
	"github.com/custodia-labs/inboxwatch/internal/logger"
	"github.com/custodia-labs/inboxwatch/internal/security"
)

// version is set at build time.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap wires the application from validated configuration.
func bootstrap(cfg *file.Config) (*cli.App, error) {
	key, err := cfg.EncryptionKey()
	if err != nil {
		return nil, err
	}
	encryptor, err := security.NewEncryptor(key)
	if err != nil {
		return nil, err
	}
	if !encryptor.IsEnabled() {
		logger.Warn("token encryption at rest is disabled; set storage.encryption_key")
	}

	store, err := sqlite.NewStore(cfg.Storage.DataDir, sqlite.WithEncryptor(encryptor))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	closers := []func() error{store.Close}
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	credentials := store.CredentialsStore()

	states, closeStates, err := stateStore(cfg, store)
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	if closeStates != nil {
		closers = append(closers, closeStates)
	}

	provider := google.NewProvider(google.ProviderConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.RedirectURL(),
	})

	// Watches act with a refreshing token source that saves new tokens.
	watcher := gmail.NewWatcher(func(ctx context.Context, creds *domain.Credentials) oauth2.TokenSource {
		return google.NewPersistingTokenSource(ctx, provider, credentials, creds)
	})

	authService := services.NewAuthorizationService(provider, states, credentials, services.AuthorizationConfig{
		Scopes:        cfg.OAuth.Scopes,
		Mode:          cfg.Mode(),
		OfflineAccess: cfg.OAuth.OfflineAccess,
		StateTTL:      cfg.OAuth.StateTTL.Duration,
	})
	subscriptions := services.NewSubscriptionService(watcher)

	handlers := oauth.NewHandlers(credentials, subscriptions, cfg.Topic())
	observer := oauth.NewObserver()

	handler := oauth.NewHandler(authService, oauth.HandlerConfig{
		CookieName:    cfg.Server.StateCookie,
		CookieTTL:     cfg.OAuth.StateTTL.Duration,
		Secure:        isHTTPS(cfg.Server.PublicURL),
		SessionHeader: cfg.Server.SessionHeader,
	})
	server := oauth.NewServer(oauth.ServerConfig{
		Addr:         cfg.Server.Listen,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}, handler, handlers.OnSuccess, handlers.OnFailure, oauth.WithObserver(observer))

	return &cli.App{
		Config:        cfg,
		Credentials:   services.NewCredentialsService(credentials),
		Subscriptions: subscriptions,
		Server:        server,
		Outcomes:      observer.Outcomes(),
		Close:         closeAll,
	}, nil
}

// stateStore selects the authorization state backend.
func stateStore(cfg *file.Config, store *sqlite.Store) (driven.AuthorizationStateStore, func() error, error) {
	switch cfg.Storage.StateBackend {
	case file.StateBackendMemory:
		return memory.NewStateStore(), nil, nil
	case file.StateBackendRedis:
		client, err := redis.Dial(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return redis.NewStateStore(client, cfg.Redis.KeyPrefix), client.Close, nil
	default:
		return store.StateStore(), nil, nil
	}
}

func isHTTPS(publicURL string) bool {
	return strings.HasPrefix(publicURL, "https://")
}
