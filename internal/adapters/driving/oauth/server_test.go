//nolint:noctx // Test file uses http.Get for convenience; context not required in tests
package oauth

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inboxwatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/inboxwatch/internal/core/services"
)

func newTestServer(t *testing.T, addr string) *Server {
	t.Helper()
	store := memory.NewCredentialsStore()
	auth := services.NewAuthorizationService(newFakeProvider("alice@example.com"), memory.NewStateStore(), store,
		services.AuthorizationConfig{Scopes: []string{"email"}})
	handlers := NewHandlers(store, services.NewSubscriptionService(&fakeWatcher{}), testTopic)
	return NewServer(ServerConfig{Addr: addr}, NewHandler(auth, HandlerConfig{}), handlers.OnSuccess, handlers.OnFailure)
}

func TestServer_StartStop(t *testing.T) {
	server := newTestServer(t, "127.0.0.1:0")
	require.NoError(t, server.Start())
	assert.NotEqual(t, "127.0.0.1:0", server.Addr(), "Addr reports the bound port")

	resp, err := http.Get("http://" + server.Addr() + HealthPath)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	assert.Error(t, server.Start(), "second start fails")
	require.NoError(t, server.Stop())
}

func TestServer_StopNotStarted(t *testing.T) {
	assert.NoError(t, newTestServer(t, "127.0.0.1:0").Stop())
}

func TestServer_PortInUse(t *testing.T) {
	first := newTestServer(t, "127.0.0.1:0")
	require.NoError(t, first.Start())
	defer first.Stop()

	second := newTestServer(t, first.Addr())
	assert.Error(t, second.Start())
}

func TestServer_Run(t *testing.T) {
	server := newTestServer(t, "127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + server.Addr() + HealthPath)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t, "127.0.0.1:0")
	require.NoError(t, server.Start())
	defer server.Stop()

	resp, err := http.Post("http://"+server.Addr()+CallbackPath, "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
