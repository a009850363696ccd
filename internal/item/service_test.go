// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package item_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-dev/tessera/internal/embedding"
	"github.com/tessera-dev/tessera/internal/item"
	"github.com/tessera-dev/tessera/internal/store"
	redisstore "github.com/tessera-dev/tessera/internal/store/redis"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// setupService builds an item.Service over miniredis with the
// deterministic fallback embedder.
func setupService(t *testing.T) (*item.Service, store.KV, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	kv, err := redisstore.New(redisstore.Options{URL: fmt.Sprintf("redis://%s", mr.Addr())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	svc := item.NewService(kv, embedding.NewChain(nil, nil), 0, nil)
	return svc, kv, mr
}

func TestAddThenGet(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	added, err := svc.Add(ctx, item.AddParams{
		Title:    "Redis Guide",
		Content:  "Learn caching",
		Category: "Docs",
	})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)
	assert.Contains(t, added.ID, item.KeyPrefix)

	got, err := svc.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Redis Guide", got.Title)
	assert.Equal(t, "Learn caching", got.Content)
	assert.Equal(t, "Docs", got.Category)
	assert.Len(t, got.CombinedEmbedding, embedding.Dimensions)
}

func TestAddDefaultsCategory(t *testing.T) {
	svc, _, _ := setupService(t)

	added, err := svc.Add(context.Background(), item.AddParams{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, item.DefaultCategory, added.Category)
}

func TestAddSetsExpiry(t *testing.T) {
	svc, _, mr := setupService(t)
	svc.SetNowFunc(func() time.Time {
		return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	})

	added, err := svc.Add(context.Background(), item.AddParams{
		Title:      "Redis Guide",
		Content:    "Learn caching",
		TTLSeconds: 60,
	})
	require.NoError(t, err)

	want := time.Date(2026, 8, 31, 12, 1, 0, 0, time.UTC)
	assert.True(t, added.ExpiresAt.Equal(want), "expiresAt should be now+60s")
	assert.Equal(t, time.Minute, mr.TTL(added.ID))
}

func TestAddDefaultTTL(t *testing.T) {
	svc, _, mr := setupService(t)

	added, err := svc.Add(context.Background(), item.AddParams{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, item.DefaultTTLSeconds*time.Second, mr.TTL(added.ID))
}

func TestAddConfiguredDefaultTTL(t *testing.T) {
	_, kv, mr := setupService(t)

	svc := item.NewService(kv, embedding.NewChain(nil, nil), 3600, nil)

	added, err := svc.Add(context.Background(), item.AddParams{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(added.ID))

	// A caller-supplied TTL still beats the configured default.
	explicit, err := svc.Add(context.Background(), item.AddParams{Title: "t", Content: "c", TTLSeconds: 60})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL(explicit.ID))
}

func TestAddValidation(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params item.AddParams
	}{
		{"empty title", item.AddParams{Content: "c"}},
		{"whitespace title", item.AddParams{Title: "   ", Content: "c"}},
		{"empty content", item.AddParams{Title: "t"}},
		{"negative ttl", item.AddParams{Title: "t", Content: "c", TTLSeconds: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tt.params)
			require.Error(t, err)
			assert.True(t, tesserr.IsInvalidInput(err))
		})
	}
}

func TestAddRegistersMemberships(t *testing.T) {
	svc, kv, _ := setupService(t)
	ctx := context.Background()

	added, err := svc.Add(ctx, item.AddParams{Title: "t", Content: "c", Category: "Docs"})
	require.NoError(t, err)

	all, err := kv.SetMembers(ctx, item.AllSetKey)
	require.NoError(t, err)
	assert.Contains(t, all, added.ID)

	docs, err := kv.SetMembers(ctx, item.CategorySetKey("Docs"))
	require.NoError(t, err)
	assert.Contains(t, docs, added.ID)
}

func TestAddUniqueIDsUnderConcurrency(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	const n = 20
	type outcome struct {
		id  string
		err error
	}
	results := make(chan outcome, n)
	for range n {
		go func() {
			added, err := svc.Add(ctx, item.AddParams{Title: "t", Content: "c"})
			if err != nil {
				results <- outcome{err: err}
				return
			}
			results <- outcome{id: added.ID}
		}()
	}

	seen := map[string]bool{}
	for range n {
		res := <-results
		require.NoError(t, res.err)
		assert.False(t, seen[res.id], "duplicate id %s", res.id)
		seen[res.id] = true
	}
}

func TestGetMissing(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Get(context.Background(), "item:0:nope")
	require.Error(t, err)
	assert.True(t, tesserr.IsNotFound(err))
}

func TestGetAfterExpiry(t *testing.T) {
	svc, _, mr := setupService(t)
	ctx := context.Background()

	added, err := svc.Add(ctx, item.AddParams{Title: "t", Content: "c", TTLSeconds: 60})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = svc.Get(ctx, added.ID)
	require.Error(t, err)
	assert.True(t, tesserr.IsNotFound(err))
}

func TestDeleteReturnsSnapshotAndCleansSets(t *testing.T) {
	svc, kv, _ := setupService(t)
	ctx := context.Background()

	added, err := svc.Add(ctx, item.AddParams{Title: "t", Content: "c", Category: "Docs"})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", deleted.Title)

	_, err = svc.Get(ctx, added.ID)
	assert.True(t, tesserr.IsNotFound(err))

	all, err := kv.SetMembers(ctx, item.AllSetKey)
	require.NoError(t, err)
	assert.NotContains(t, all, added.ID)

	docs, err := kv.SetMembers(ctx, item.CategorySetKey("Docs"))
	require.NoError(t, err)
	assert.NotContains(t, docs, added.ID)
}

func TestDeleteTwice(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	added, err := svc.Add(ctx, item.AddParams{Title: "t", Content: "c"})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, added.ID)
	require.NoError(t, err)

	_, err = svc.Delete(ctx, added.ID)
	require.Error(t, err)
	assert.True(t, tesserr.IsNotFound(err))
}

func TestDeleteMissing(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Delete(context.Background(), "item:0:nope")
	require.Error(t, err)
	assert.True(t, tesserr.IsNotFound(err))
}

// failingSetKV simulates a store whose set writes fail mid-add. A
// non-zero failAfter lets the first writes through so later membership
// writes fail with earlier ones already applied.
type failingSetKV struct {
	store.KV
	failAfter int
	calls     int
}

func (f *failingSetKV) SetAdd(ctx context.Context, key, member string) error {
	f.calls++
	if f.calls > f.failAfter {
		return errors.New("set write refused")
	}
	return f.KV.SetAdd(ctx, key, member)
}

func TestAddRollsBackOnMembershipFailure(t *testing.T) {
	tests := []struct {
		name      string
		failAfter int
	}{
		{"global set write fails", 0},
		{"category set write fails after global succeeded", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, kv, mr := setupService(t)
			ctx := context.Background()

			broken := item.NewService(
				&failingSetKV{KV: kv, failAfter: tt.failAfter},
				embedding.NewChain(nil, nil), 0, nil)

			_, err := broken.Add(ctx, item.AddParams{Title: "t", Content: "c", Category: "Docs"})
			require.Error(t, err)

			// Neither the item key nor any membership may survive a
			// failed add.
			keys, err := kv.ScanKeys(ctx, item.KeyPrefix)
			require.NoError(t, err)
			assert.Empty(t, keys)

			all, err := kv.SetMembers(ctx, item.AllSetKey)
			require.NoError(t, err)
			assert.Empty(t, all)

			docs, err := kv.SetMembers(ctx, item.CategorySetKey("Docs"))
			require.NoError(t, err)
			assert.Empty(t, docs)

			assert.Empty(t, mr.Keys())
		})
	}
}
