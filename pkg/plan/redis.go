package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "usage:"
	// redisUpdateRetries bounds the optimistic WATCH loop under write
	// contention on one user's key.
	redisUpdateRetries = 8
)

// RedisStore persists usage as JSON blobs in Redis, one key per user.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects a store to the given Redis endpoint.
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Read returns the stored usage, zero for unknown users.
func (s *RedisStore) Read(ctx context.Context, userID string) (Usage, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Usage{}, nil
	}
	if err != nil {
		return Usage{}, fmt.Errorf("redis get: %w", err)
	}
	var u Usage
	if err := json.Unmarshal(raw, &u); err != nil {
		return Usage{}, fmt.Errorf("decode usage: %w", err)
	}
	return u, nil
}

// Write replaces the stored usage. Keys never expire: last-month
// counters stay queryable for reporting.
func (s *RedisStore) Write(ctx context.Context, userID string, u Usage) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode usage: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+userID, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Update runs fn inside a WATCH/MULTI transaction on the user's key:
// the write only commits if no other client touched the key since the
// read, and the whole cycle retries on conflict.
func (s *RedisStore) Update(ctx context.Context, userID string, fn func(*Usage) error) error {
	key := redisKeyPrefix + userID
	txn := func(tx *redis.Tx) error {
		var u Usage
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// unknown user starts from zero usage
		case err != nil:
			return fmt.Errorf("redis get: %w", err)
		default:
			if err := json.Unmarshal(raw, &u); err != nil {
				return fmt.Errorf("decode usage: %w", err)
			}
		}
		if err := fn(&u); err != nil {
			return err
		}
		out, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("encode usage: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < redisUpdateRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis update for %s: key kept changing under the transaction", userID)
}

// Close releases the connection pool.
func (s *RedisStore) Close() error { return s.client.Close() }
