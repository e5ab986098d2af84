package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

func setupStore(t *testing.T) (*StateStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStateStore(client, ""), mr
}

func testRequest(state string) domain.AuthorizationRequest {
	return domain.AuthorizationRequest{
		State:        state,
		Scopes:       []string{"email"},
		Mode:         domain.IdentityModeSession,
		CodeVerifier: "verifier",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestStateStore_TakeOnce(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testRequest("abc"), time.Minute))
	assert.True(t, mr.Exists(DefaultKeyPrefix+"abc"))
	assert.Equal(t, time.Minute, mr.TTL(DefaultKeyPrefix+"abc"))

	got, err := store.Take(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.IdentityModeSession, got.Mode)
	assert.Equal(t, "verifier", got.CodeVerifier)
	assert.False(t, mr.Exists(DefaultKeyPrefix+"abc"))

	_, err = store.Take(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStateStore_Expired(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testRequest("abc"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Take(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStateStore_Invalid(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Put(ctx, domain.AuthorizationRequest{}, time.Minute), domain.ErrInvalidInput)

	_, err := store.Take(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStateStore_ConnectionError(t *testing.T) {
	store, mr := setupStore(t)
	mr.Close()

	_, err := store.Take(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)

	addr := mr.Addr()

	client, err := Dial(context.Background(), addr, "", 0)
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	// Addr is unusable once the server is closed.
	mr.Close()
	_, err = Dial(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
