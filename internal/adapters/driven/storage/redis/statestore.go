// Package redis provides a Redis-backed authorization state store, for
// deployments where init and callback may be served by different instances.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
)

// DefaultKeyPrefix namespaces state keys.
const DefaultKeyPrefix = "inboxwatch:oauth:state:"

// StateStore implements driven.AuthorizationStateStore backed by Redis.
type StateStore struct {
	client goredis.UniversalClient
	prefix string
}

var _ driven.AuthorizationStateStore = (*StateStore)(nil)

// NewStateStore constructs a Redis-backed state store.
// An empty prefix uses DefaultKeyPrefix.
func NewStateStore(client goredis.UniversalClient, prefix string) *StateStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &StateStore{client: client, prefix: prefix}
}

// Dial connects to addr and verifies the connection with a ping.
func Dial(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// Put stores the request with ttl as the key expiry. A non-positive ttl never expires.
func (s *StateStore) Put(ctx context.Context, req domain.AuthorizationRequest, ttl time.Duration) error {
	if req.State == "" {
		return fmt.Errorf("%w: state is required", domain.ErrInvalidInput)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.prefix+req.State, payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// Take atomically reads and deletes the request with GETDEL.
func (s *StateStore) Take(ctx context.Context, state string) (*domain.AuthorizationRequest, error) {
	if state == "" {
		return nil, domain.ErrNotFound
	}
	payload, err := s.client.GetDel(ctx, s.prefix+state).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load state: %w", err)
	}
	var req domain.AuthorizationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &req, nil
}
