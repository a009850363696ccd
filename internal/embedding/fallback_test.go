// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package embedding

import (
	"context"
	"math"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackDimensions(t *testing.T) {
	res, err := NewFallback().Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, res.Vector, Dimensions)
	assert.True(t, res.UsedFallback)
}

func TestFallbackDeterministic(t *testing.T) {
	ctx := context.Background()
	f := NewFallback()

	a, err := f.Embed(ctx, "hello")
	require.NoError(t, err)
	b, err := f.Embed(ctx, "hello")
	require.NoError(t, err)

	// Bit-identical for identical input.
	assert.Equal(t, a.Vector, b.Vector)
}

func TestFallbackDistinctTexts(t *testing.T) {
	ctx := context.Background()
	f := NewFallback()

	a, err := f.Embed(ctx, "hello")
	require.NoError(t, err)
	b, err := f.Embed(ctx, "world")
	require.NoError(t, err)

	assert.NotEqual(t, a.Vector, b.Vector)
}

func TestFallbackUnitNorm(t *testing.T) {
	tests := []string{
		"hello",
		"Redis Guide Learn caching",
		"a",
		"", // empty text still yields a usable vector
	}

	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			res, err := NewFallback().Embed(context.Background(), text)
			require.NoError(t, err)

			var sum float64
			for _, v := range res.Vector {
				sum += float64(v) * float64(v)
			}
			assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
		})
	}
}

func TestFallbackHashesUTF16CodeUnits(t *testing.T) {
	// Mixed-script text with a surrogate pair: byte-wise hashing would
	// produce a different seed and length for every one of these.
	const text = "héllo 世界 𝄞"

	units := utf16.Encode([]rune(text))
	var hash int32
	for _, u := range units {
		hash = hash*31 + int32(u)
	}

	want := make([]float32, Dimensions)
	for i := range want {
		seed := float64(hash) + float64(i) + float64(len(units))
		v := (math.Sin(seed)*math.Cos(seed*0.1) + math.Sin(seed*0.01)) * 0.1
		want[i] = float32(math.Round(v*1e6) / 1e6)
	}
	want = normalize(want)

	res, err := NewFallback().Embed(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, want, res.Vector)
}

func TestNormalizeZeroVector(t *testing.T) {
	zero := make([]float32, 4)
	got := normalize(zero)
	assert.Equal(t, []float32{0, 0, 0, 0}, got)
}
