package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrz1836/structure/internal/constants"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// DefaultRedisPrefix namespaces every key written by RedisBackend.
const DefaultRedisPrefix = "structure"

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 100

// RedisBackend stores records as redis strings keyed
// <prefix>:<kind>:<id>, each with a TTL refreshed on every save.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisBackend.
type RedisOption func(*RedisBackend)

// WithTTL sets the record time-to-live. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(b *RedisBackend) {
		b.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(b *RedisBackend) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

// NewRedisBackend wraps an existing client. The backend owns the client
// and closes it in Close.
func NewRedisBackend(client *redis.Client, opts ...RedisOption) *RedisBackend {
	b := &RedisBackend{
		client: client,
		prefix: DefaultRedisPrefix,
		ttl:    constants.DefaultRedisTTL,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load implements Backend.
func (b *RedisBackend) Load(ctx context.Context, kind Kind, id string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key(kind, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, structerrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// Save implements Backend.
func (b *RedisBackend) Save(ctx context.Context, kind Kind, id string, data []byte) error {
	if err := b.client.Set(ctx, b.key(kind, id), data, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Remove implements Backend.
func (b *RedisBackend) Remove(ctx context.Context, kind Kind, id string) error {
	if err := b.client.Del(ctx, b.key(kind, id)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// Keys implements Backend.
func (b *RedisBackend) Keys(ctx context.Context, kind Kind) ([]string, error) {
	prefix := b.key(kind, "")
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := b.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan failed: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Close implements Backend.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) key(kind Kind, id string) string {
	return b.prefix + ":" + string(kind) + ":" + id
}

var _ Backend = (*RedisBackend)(nil)
