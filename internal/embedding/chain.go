// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package embedding

import (
	"context"
	"log/slog"

	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// Chain tries each configured remote backend in order and resolves to
// the deterministic fallback when all of them fail or none is
// configured. Embed never fails outward; remote trouble degrades the
// result instead of erroring the caller's write or search.
type Chain struct {
	backends []Backend
	fallback *Fallback
	logger   *slog.Logger
}

// Compile-time interface check.
var _ Embedder = (*Chain)(nil)

// NewChain creates a Chain over the given backends. The backend list
// is construction-time configuration, not ambient state, so multiple
// differently-configured chains can coexist.
func NewChain(backends []Backend, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		backends: backends,
		fallback: NewFallback(),
		logger:   logger,
	}
}

// Embed returns a 768-dimension vector for text. UsedFallback is true
// when no remote backend produced the vector.
func (c *Chain) Embed(ctx context.Context, text string) (Result, error) {
	for _, b := range c.backends {
		if !b.Available(ctx) {
			continue
		}

		vec, err := b.Embed(ctx, text)
		if err != nil {
			b.RecordFailure()
			c.logger.Warn("embedding backend failed",
				"backend", b.Name(),
				"error", tesserr.Wrapf(err, tesserr.CodeEmbeddingUpstreamFailure, "embedding via %s", b.Name()),
			)
			continue
		}

		if len(vec) != Dimensions {
			b.RecordFailure()
			c.logger.Warn("embedding backend returned wrong dimension",
				"backend", b.Name(),
				"got", len(vec),
				"want", Dimensions,
			)
			continue
		}

		b.RecordSuccess()
		return Result{Vector: vec}, nil
	}

	if len(c.backends) > 0 {
		c.logger.Warn("all embedding backends unavailable, using deterministic fallback",
			"backends", len(c.backends),
			"code", tesserr.CodeEmbeddingAllUnavailable,
		)
	}

	return c.fallback.Embed(ctx, text)
}
