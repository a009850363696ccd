// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package embedding

import (
	"context"
	"math"
	"unicode/utf16"
)

// Fallback deterministically synthesizes a unit-length pseudo-embedding
// from the text itself. Identical text always yields a bit-identical
// vector, so writes and searches stay reproducible when no remote
// backend is reachable. The vectors carry no semantic signal; they only
// preserve identity (same text, same vector) and spread (different
// texts, different vectors with high probability).
type Fallback struct{}

// NewFallback returns the deterministic fallback embedder.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Embed never fails; the vector is derived from a rolling hash of text.
func (f *Fallback) Embed(_ context.Context, text string) (Result, error) {
	return Result{Vector: pseudoVector(text), UsedFallback: true}, nil
}

// pseudoVector builds the fallback vector: a 32-bit rolling hash over
// the text's UTF-16 code units seeds a smooth periodic function per
// component, each component is rounded to 6 decimals, and the whole
// vector is L2-normalized. Hash and length both count UTF-16 code
// units, so non-ASCII text hashes the same as in a charCodeAt loop.
func pseudoVector(text string) []float32 {
	units := utf16.Encode([]rune(text))

	var hash int32
	for _, u := range units {
		// h*31 + c with two's-complement wraparound.
		hash = hash*31 + int32(u)
	}

	vec := make([]float32, Dimensions)
	for i := range vec {
		seed := float64(hash) + float64(i) + float64(len(units))
		v := (math.Sin(seed)*math.Cos(seed*0.1) + math.Sin(seed*0.01)) * 0.1
		vec[i] = float32(math.Round(v*1e6) / 1e6)
	}

	return normalize(vec)
}

// normalize scales vec to unit length in place and returns it.
// A zero vector is returned unchanged.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	mag := math.Sqrt(sum)
	if mag == 0 {
		return vec
	}

	for i := range vec {
		vec[i] = float32(float64(vec[i]) / mag)
	}
	return vec
}
