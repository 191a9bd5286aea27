package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/starford/stickies/internal/apperr"
	"github.com/starford/stickies/internal/checksum"
)

const redisKeyPrefix = "stickies:"

// Redis stores each auth key as a hash whose fields are data keys.
type Redis struct {
	rdb *redis.Client
}

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("kvstore: redis ping: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func hashKey(authKey string) string {
	return redisKeyPrefix + authKey
}

// Get returns a single item.
func (r *Redis) Get(ctx context.Context, authKey, dataKey string) (Item, error) {
	value, err := r.rdb.HGet(ctx, hashKey(authKey), dataKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Item{}, apperr.ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("kvstore: redis get: %w", err)
	}
	return Item{AuthKey: authKey, DataKey: dataKey, Value: value, Checksum: checksum.Sum(value)}, nil
}

// Set overwrites a field of the auth key's hash.
func (r *Redis) Set(ctx context.Context, authKey, dataKey string, value []byte) error {
	if err := r.rdb.HSet(ctx, hashKey(authKey), dataKey, value).Err(); err != nil {
		return fmt.Errorf("kvstore: redis set: %w", err)
	}
	return nil
}

// List returns every field of the auth key's hash.
func (r *Redis) List(ctx context.Context, authKey string) ([]Item, error) {
	fields, err := r.rdb.HGetAll(ctx, hashKey(authKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("kvstore: redis list: %w", err)
	}
	out := make([]Item, 0, len(fields))
	for k, v := range fields {
		value := []byte(v)
		out = append(out, Item{AuthKey: authKey, DataKey: k, Value: value, Checksum: checksum.Sum(value)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DataKey < out[j].DataKey })
	return out, nil
}

// Delete removes one field.
func (r *Redis) Delete(ctx context.Context, authKey, dataKey string) error {
	n, err := r.rdb.HDel(ctx, hashKey(authKey), dataKey).Result()
	if err != nil {
		return fmt.Errorf("kvstore: redis delete: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteAll drops the auth key's hash.
func (r *Redis) DeleteAll(ctx context.Context, authKey string) (int, error) {
	n, err := r.rdb.HLen(ctx, hashKey(authKey)).Result()
	if err != nil {
		return 0, fmt.Errorf("kvstore: redis len: %w", err)
	}
	if err := r.rdb.Del(ctx, hashKey(authKey)).Err(); err != nil {
		return 0, fmt.Errorf("kvstore: redis delete all: %w", err)
	}
	return int(n), nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
