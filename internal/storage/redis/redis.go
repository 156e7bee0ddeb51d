package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/catalog-admin/internal/storage"
	"github.com/utafrali/catalog-admin/pkg/database"
)

// DefaultKeyPrefix namespaces the keys written by this store.
const DefaultKeyPrefix = "catalog-admin:"

// Store implements storage.Store on top of Redis string values.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

var _ storage.Store = (*Store)(nil)

// New creates a Redis-backed store. All keys are prefixed with prefix.
func New(client goredis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Get returns the value under key, or storage.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) (_ []byte, err error) {
	ctx, end := database.TraceOp(ctx, "redis", "get", s.key(key))
	defer func() { end(err) }()

	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key(key), err)
	}
	return v, nil
}

// Set overwrites the value under key. No expiry is applied.
func (s *Store) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceOp(ctx, "redis", "set", s.key(key))
	defer func() { end(err) }()

	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key(key), err)
	}
	return nil
}

// Ping checks connectivity to Redis.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
