package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "zbook:"

// Redis is a Gateway over a Redis server. Keys are namespaced with "zbook:".
type Redis struct {
	client *redis.Client
}

// OpenRedis connects to the server at url (redis://...) and pings it.
func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// GetItem returns the document stored under key.
func (r *Redis) GetItem(ctx context.Context, key string) (json.RawMessage, error) {
	data, err := r.client.Get(ctx, redisPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item %s: %w", key, err)
	}
	return json.RawMessage(data), nil
}

// SetItem stores value under key without expiry.
func (r *Redis) SetItem(ctx context.Context, key string, value any) error {
	data, err := marshal(value)
	if err != nil {
		return fmt.Errorf("set item %s: marshal: %w", key, err)
	}

	if err := r.client.Set(ctx, redisPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("set item %s: %w", key, err)
	}
	return nil
}

// Close closes the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
