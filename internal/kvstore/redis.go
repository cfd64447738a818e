package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores each key as a plain Redis string. Suitable when several
// kiosk processes on one site share a local Redis.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr, prefix string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	if prefix == "" {
		prefix = "pointage"
	}
	return &Redis{client: client, prefix: prefix}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.client == nil {
		return false
	}
	return r.client.Ping(ctx).Err() == nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Get returns the stored value or ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.prefix+":"+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("kvstore: redis get %s: %w", key, err)
	}
	return val, nil
}

// Set writes value under key with no expiry.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+":"+key, value, 0).Err(); err != nil {
		return fmt.Errorf("kvstore: redis set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+":"+key).Err(); err != nil {
		return fmt.Errorf("kvstore: redis del %s: %w", key, err)
	}
	return nil
}
