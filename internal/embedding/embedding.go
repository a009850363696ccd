// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

// Package embedding converts text into fixed-dimension vectors. Remote
// backends are tried in sequence; when none is configured or reachable,
// a deterministic pseudo-embedding keeps the write path alive.
package embedding

import (
	"context"
)

// Dimensions is the fixed length of every vector this package produces.
const Dimensions = 768

// Result is the two-outcome embedding value. UsedFallback lets callers
// log or meter degraded embeddings without changing control flow.
type Result struct {
	Vector       []float32
	UsedFallback bool
}

// Embedder converts text to a vector. Implementations must be safe for
// concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) (Result, error)
}

// Backend is a single remote text-to-vector service.
type Backend interface {
	Name() string

	// Available reports whether the backend should be attempted.
	// Backends in a failure cooldown report false.
	Available(ctx context.Context) bool

	// Embed returns a Dimensions-length vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// RecordSuccess and RecordFailure feed the backend's health state.
	RecordSuccess()
	RecordFailure()
}
