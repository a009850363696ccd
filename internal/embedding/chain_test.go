// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a scriptable embedding.Backend for chain tests.
type fakeBackend struct {
	name      string
	vec       []float32
	err       error
	available bool
	calls     int
	successes int
	failures  int
}

func (f *fakeBackend) Name() string                       { return f.name }
func (f *fakeBackend) Available(_ context.Context) bool   { return f.available }
func (f *fakeBackend) RecordSuccess()                     { f.successes++ }
func (f *fakeBackend) RecordFailure()                     { f.failures++ }
func (f *fakeBackend) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

func goodVector() []float32 {
	vec := make([]float32, Dimensions)
	vec[0] = 1
	return vec
}

func TestChainUsesFirstHealthyBackend(t *testing.T) {
	primary := &fakeBackend{name: "google", vec: goodVector(), available: true}
	secondary := &fakeBackend{name: "openai", vec: goodVector(), available: true}

	chain := NewChain([]Backend{primary, secondary}, nil)
	res, err := chain.Embed(context.Background(), "caching strategies")
	require.NoError(t, err)

	assert.False(t, res.UsedFallback)
	assert.Equal(t, goodVector(), res.Vector)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, primary.successes)
	assert.Zero(t, secondary.calls)
}

func TestChainFallsThroughOnError(t *testing.T) {
	primary := &fakeBackend{name: "google", err: errors.New("quota exceeded"), available: true}
	secondary := &fakeBackend{name: "openai", vec: goodVector(), available: true}

	chain := NewChain([]Backend{primary, secondary}, nil)
	res, err := chain.Embed(context.Background(), "caching strategies")
	require.NoError(t, err)

	assert.False(t, res.UsedFallback)
	assert.Equal(t, 1, primary.failures)
	assert.Equal(t, 1, secondary.calls)
}

func TestChainSkipsUnavailableBackend(t *testing.T) {
	cooling := &fakeBackend{name: "google", vec: goodVector(), available: false}
	healthy := &fakeBackend{name: "openai", vec: goodVector(), available: true}

	chain := NewChain([]Backend{cooling, healthy}, nil)
	res, err := chain.Embed(context.Background(), "x")
	require.NoError(t, err)

	assert.False(t, res.UsedFallback)
	assert.Zero(t, cooling.calls)
	assert.Equal(t, 1, healthy.calls)
}

func TestChainRejectsWrongDimension(t *testing.T) {
	short := &fakeBackend{name: "google", vec: []float32{1, 2, 3}, available: true}

	chain := NewChain([]Backend{short}, nil)
	res, err := chain.Embed(context.Background(), "x")
	require.NoError(t, err)

	assert.True(t, res.UsedFallback)
	assert.Equal(t, 1, short.failures)
	assert.Len(t, res.Vector, Dimensions)
}

func TestChainAllBackendsFailingUsesFallback(t *testing.T) {
	a := &fakeBackend{name: "google", err: errors.New("down"), available: true}
	b := &fakeBackend{name: "openai", err: errors.New("down"), available: true}

	chain := NewChain([]Backend{a, b}, nil)
	res, err := chain.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.True(t, res.UsedFallback)

	// Fallback result is identical to calling the fallback directly.
	direct, err := NewFallback().Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, direct.Vector, res.Vector)
}

func TestChainNoBackendsConfigured(t *testing.T) {
	chain := NewChain(nil, nil)
	res, err := chain.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, res.UsedFallback)
	assert.Len(t, res.Vector, Dimensions)
}

func TestHealthTrackerCooldown(t *testing.T) {
	tracker, err := NewHealthTracker(30 * time.Second)
	require.NoError(t, err)

	now := time.Now()
	tracker.SetNowFunc(func() time.Time { return now })

	assert.True(t, tracker.IsHealthy())

	tracker.RecordFailure()
	assert.False(t, tracker.IsHealthy())

	// Cooldown elapsed: backend becomes eligible for retry again.
	now = now.Add(31 * time.Second)
	assert.True(t, tracker.IsHealthy())

	tracker.RecordSuccess()
	assert.True(t, tracker.IsHealthy())

	m := tracker.Metrics()
	assert.Equal(t, int64(1), m.FailureCount)
	assert.True(t, m.Available)
}

func TestHealthTrackerRejectsNonPositiveCooldown(t *testing.T) {
	_, err := NewHealthTracker(0)
	require.Error(t, err)
}
