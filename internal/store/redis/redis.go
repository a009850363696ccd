// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

// Package redis implements the store.KV boundary on top of a Redis
// server using go-redis. Items are stored as hashes with a key-level
// TTL; membership indexes are plain Redis sets.
package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tessera-dev/tessera/internal/store"
)

func init() {
	store.RegisterBackend("redis", func(cfg store.Config) (store.KV, error) {
		return New(Options{URL: cfg.URL})
	})
}

// Options configures the Redis connection.
type Options struct {
	// URL is the Redis connection string (e.g. "redis://localhost:6379").
	URL string

	// ConnectTimeout is the maximum time to wait for connection establishment.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	WriteTimeout time.Duration
}

// Compile-time interface check.
var _ store.KV = (*KV)(nil)

// KV implements store.KV using go-redis/v9.
type KV struct {
	client *redis.Client
}

// New creates a Redis-backed KV and verifies connectivity with a ping.
func New(opts Options) (*KV, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}

	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %v: %w", err, store.ErrUnavailable)
	}

	return &KV{client: client}, nil
}

// Put writes all fields as a hash and applies the TTL in the same pipeline,
// so a key is never left without its expiry.
func (k *KV) Put(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("empty key: %w", store.ErrInvalidInput)
	}

	args := make([]any, 0, len(fields)*2)
	for f, v := range fields {
		args = append(args, f, v)
	}

	pipe := k.client.TxPipeline()
	pipe.HSet(ctx, key, args...)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return wrapErr("putting %s", key, err)
	}
	return nil
}

// Get returns the hash fields stored under key. Redis reports a missing
// hash as an empty map, which maps to store.ErrNotFound here.
func (k *KV) Get(ctx context.Context, key string) (map[string]string, error) {
	fields, err := k.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, wrapErr("getting %s", key, err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("key %s: %w", key, store.ErrNotFound)
	}
	return fields, nil
}

func (k *KV) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := k.client.Del(ctx, key).Result()
	if err != nil {
		return false, wrapErr("deleting %s", key, err)
	}
	return removed > 0, nil
}

// ScanKeys walks the keyspace with cursor-based SCAN. Order follows the
// server's internal iteration and is not stable across calls.
func (k *KV) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)

	for {
		batch, next, err := k.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, wrapErr("scanning %s", prefix, err)
		}
		keys = append(keys, batch...)

		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

func (k *KV) SetAdd(ctx context.Context, setKey, member string) error {
	if err := k.client.SAdd(ctx, setKey, member).Err(); err != nil {
		return wrapErr("adding to set %s", setKey, err)
	}
	return nil
}

func (k *KV) SetRemove(ctx context.Context, setKey, member string) error {
	if err := k.client.SRem(ctx, setKey, member).Err(); err != nil {
		return wrapErr("removing from set %s", setKey, err)
	}
	return nil
}

func (k *KV) SetMembers(ctx context.Context, setKey string) ([]string, error) {
	members, err := k.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, wrapErr("reading set %s", setKey, err)
	}
	return members, nil
}

func (k *KV) Ping(ctx context.Context) error {
	if err := k.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %v: %w", err, store.ErrUnavailable)
	}
	return nil
}

func (k *KV) Close() error {
	return k.client.Close()
}

// wrapErr maps transport-level failures to store.ErrUnavailable so callers
// can classify without importing go-redis.
func wrapErr(format, key string, err error) error {
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf(format+": %w", key, store.ErrNotFound)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf(format+": %v: %w", key, err, store.ErrUnavailable)
	}

	return fmt.Errorf(format+": %w", key, err)
}
