package redisclient

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

//go:embed scripts/complete_idempotency.lua
var completeIdempotencyScript string

const idempotencyPending = "pending"

type Client struct {
	rdb              *redis.Client
	releaseScript    *redis.Script
	completeIdScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:              rdb,
		releaseScript:    redis.NewScript(releaseLockScript),
		completeIdScript: redis.NewScript(completeIdempotencyScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection for readiness probes
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// AcquireLock tries to take lockKey for ttl. The returned token must be
// passed to ReleaseLock; ok is false if someone else holds the lock.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.New().String()
	ok, err = c.rdb.SetNX(ctx, lockName(lockKey), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %s: %w", lockKey, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseLock releases lockKey if it is still held with token
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	if _, err := c.releaseScript.Run(ctx, c.rdb, []string{lockName(lockKey)}, token).Result(); err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}

// ReserveIdempotencyKey marks key as in flight. Returns false if the key
// was already reserved or completed.
func (c *Client) ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, idempotencyName(key), idempotencyPending, ttl).Result()
}

// GetIdempotencyResult returns the stored result for key. An empty string
// means the key is absent or still in flight.
func (c *Client) GetIdempotencyResult(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, idempotencyName(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if val == idempotencyPending {
		return "", nil
	}
	return val, nil
}

// CompleteIdempotencyKey records value as the result of the request
// holding key
func (c *Client) CompleteIdempotencyKey(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := c.completeIdScript.Run(ctx, c.rdb, []string{idempotencyName(key)}, value, ttl.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("complete idempotency script failed: %w", err)
	}
	return nil
}

// ReleaseIdempotencyKey forgets key so the request may be retried
func (c *Client) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, idempotencyName(key)).Err()
}

func lockName(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

func idempotencyName(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}
