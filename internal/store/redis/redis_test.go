// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-dev/tessera/internal/store"
	redisstore "github.com/tessera-dev/tessera/internal/store/redis"
)

// setupKV creates a miniredis instance and returns a connected KV.
func setupKV(t *testing.T) (*redisstore.KV, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	kv, err := redisstore.New(redisstore.Options{
		URL: fmt.Sprintf("redis://%s", mr.Addr()),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = kv.Close()
	})

	return kv, mr
}

func TestNew(t *testing.T) {
	t.Run("successful connection", func(t *testing.T) {
		mr := miniredis.RunT(t)
		kv, err := redisstore.New(redisstore.Options{
			URL: fmt.Sprintf("redis://%s", mr.Addr()),
		})
		require.NoError(t, err)
		require.NotNil(t, kv)
		require.NoError(t, kv.Close())
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := redisstore.New(redisstore.Options{
			URL:            "redis://localhost:1",
			ConnectTimeout: 100 * time.Millisecond,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrUnavailable)
		// The underlying dial failure stays visible alongside the sentinel.
		assert.NotEqual(t, "connecting to redis: "+store.ErrUnavailable.Error(), err.Error())
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := redisstore.New(redisstore.Options{URL: "invalid://url"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing redis URL")
	})
}

func TestPutGet(t *testing.T) {
	kv, _ := setupKV(t)
	ctx := context.Background()

	fields := map[string]string{
		"id":    "item:1:abc",
		"title": "Redis Guide",
	}
	require.NoError(t, kv.Put(ctx, "item:1:abc", fields, 0))

	got, err := kv.Get(ctx, "item:1:abc")
	require.NoError(t, err)
	assert.Equal(t, fields, got)
}

func TestPutEmptyKey(t *testing.T) {
	kv, _ := setupKV(t)

	err := kv.Put(context.Background(), "", map[string]string{"a": "b"}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestPutAppliesTTL(t *testing.T) {
	kv, mr := setupKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "item:ttl", map[string]string{"a": "b"}, time.Minute))

	ttl := mr.TTL("item:ttl")
	assert.Equal(t, time.Minute, ttl)

	// After the TTL elapses the key is gone.
	mr.FastForward(2 * time.Minute)
	_, err := kv.Get(ctx, "item:ttl")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetMissingKey(t *testing.T) {
	kv, _ := setupKV(t)

	_, err := kv.Get(context.Background(), "item:missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete(t *testing.T) {
	kv, _ := setupKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "item:del", map[string]string{"a": "b"}, 0))

	removed, err := kv.Delete(ctx, "item:del")
	require.NoError(t, err)
	assert.True(t, removed)

	// Second delete reports nothing removed.
	removed, err = kv.Delete(ctx, "item:del")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestScanKeys(t *testing.T) {
	kv, _ := setupKV(t)
	ctx := context.Background()

	for i := range 5 {
		key := fmt.Sprintf("item:%d", i)
		require.NoError(t, kv.Put(ctx, key, map[string]string{"n": fmt.Sprint(i)}, 0))
	}
	require.NoError(t, kv.Put(ctx, "other:1", map[string]string{"n": "x"}, 0))

	keys, err := kv.ScanKeys(ctx, "item:")
	require.NoError(t, err)
	assert.Len(t, keys, 5)
	for _, k := range keys {
		assert.Contains(t, k, "item:")
	}
}

func TestScanKeysEmpty(t *testing.T) {
	kv, _ := setupKV(t)

	keys, err := kv.ScanKeys(context.Background(), "item:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSets(t *testing.T) {
	kv, _ := setupKV(t)
	ctx := context.Background()

	require.NoError(t, kv.SetAdd(ctx, "items:all", "item:1"))
	require.NoError(t, kv.SetAdd(ctx, "items:all", "item:2"))
	require.NoError(t, kv.SetAdd(ctx, "items:all", "item:2")) // duplicate add is a no-op

	members, err := kv.SetMembers(ctx, "items:all")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"item:1", "item:2"}, members)

	require.NoError(t, kv.SetRemove(ctx, "items:all", "item:1"))
	require.NoError(t, kv.SetRemove(ctx, "items:all", "item:does-not-exist"))

	members, err = kv.SetMembers(ctx, "items:all")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"item:2"}, members)
}

func TestSetMembersMissingSet(t *testing.T) {
	kv, _ := setupKV(t)

	members, err := kv.SetMembers(context.Background(), "items:category:Nope")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestPing(t *testing.T) {
	kv, mr := setupKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Ping(ctx))

	mr.Close()
	err := kv.Ping(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	// The underlying transport failure stays visible alongside the sentinel.
	assert.NotEqual(t, "pinging redis: "+store.ErrUnavailable.Error(), err.Error())
}

func TestFactoryOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	kv, err := store.Open(store.Config{URL: fmt.Sprintf("redis://%s", mr.Addr())})
	require.NoError(t, err)
	require.NoError(t, kv.Ping(context.Background()))
	require.NoError(t, kv.Close())

	_, err = store.Open(store.Config{Backend: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage backend")
}
