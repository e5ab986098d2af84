package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inboxwatch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/inboxwatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/inboxwatch/internal/connectors/google"
	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/services"
)

const testConfig = `
[server]
listen = "127.0.0.1:0"
public_url = "http://localhost:8080"

[google]
client_id = "test-client"
client_secret = "test-secret"

[pubsub]
project = "acme"
topic = "inbox"

[storage]
state_backend = "memory"
`

// fakeSubscriptions records Establish calls.
type fakeSubscriptions struct {
	mu     sync.Mutex
	called []string
	errFor map[string]error
	active map[string]bool
}

func (f *fakeSubscriptions) Establish(_ context.Context, creds *domain.Credentials, topic domain.TopicTarget) (*domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = append(f.called, creds.Identity)
	if err := f.errFor[creds.Identity]; err != nil {
		return nil, err
	}
	return &domain.Subscription{
		Identity:      creds.Identity,
		Topic:         topic,
		LabelIDs:      []string{domain.InboxLabel},
		HistoryID:     77,
		Expiration:    time.Date(2026, 10, 21, 9, 0, 0, 0, time.UTC),
		AlreadyActive: f.active[creds.Identity],
	}, nil
}

type testApp struct {
	configPath string
	store      *memory.CredentialsStore
	subs       *fakeSubscriptions
	app        *App
}

// setupTestApp writes a config file and wires a bootstrap backed by memory stores.
func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0600))

	ta := &testApp{
		store: memory.NewCredentialsStore(),
		subs:  &fakeSubscriptions{errFor: map[string]error{}, active: map[string]bool{}},
	}

	oldBootstrap, oldConfig := bootstrap, configPath
	SetBootstrap(func(cfg *file.Config) (*App, error) {
		ta.app = &App{
			Config:        cfg,
			Credentials:   services.NewCredentialsService(ta.store),
			Subscriptions: ta.subs,
			Close:         func() error { return nil },
		}
		return ta.app, nil
	})
	t.Cleanup(func() {
		bootstrap, configPath = oldBootstrap, oldConfig
		watchIdentity = ""
		authorizeNoBrowser = false
		authorizeTimeout = 5 * time.Minute
		authorizeScopes = nil
		verbose = false
	})

	// Keep the host environment out of the config.
	t.Setenv("GCP_PROJECT", "")
	t.Setenv("PUBSUB_TOPIC", "")
	ta.configPath = path
	return ta
}

func (ta *testApp) saveCredentials(t *testing.T, identities ...string) {
	t.Helper()
	for _, id := range identities {
		require.NoError(t, ta.store.Save(context.Background(), domain.Credentials{
			ID:        "cred-" + id,
			Identity:  id,
			Scopes:    []string{"email", google.ScopeGmailModify},
			OAuth:     &domain.OAuthCredentials{AccessToken: "a", RefreshToken: "r"},
			UpdatedAt: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
		}))
	}
}

// run executes the root command with args and returns combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

var errBoom = errors.New("boom")
