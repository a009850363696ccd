// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

// Package search implements the two retrieval paths over the item
// namespace: brute-force cosine ranking against stored embeddings, and
// substring/category filtering with a fixed relevance heuristic.
package search

import (
	"context"
	"errors"
	"sort"

	"github.com/tessera-dev/tessera/internal/embedding"
	"github.com/tessera-dev/tessera/internal/item"
	"github.com/tessera-dev/tessera/internal/store"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// DefaultVectorLimit caps semantic search results when the caller does
// not supply a limit.
const DefaultVectorLimit = 5

// Result pairs an item with its relevance score for either search path.
type Result struct {
	Item  *item.Item
	Score float64
}

// VectorEngine ranks every stored item by cosine similarity to an
// embedded query. This is a deliberate O(N·D) full scan per query; for
// the item counts this system targets, a sub-linear index would buy
// nothing but complexity.
type VectorEngine struct {
	kv       store.KV
	embedder embedding.Embedder
}

// NewVectorEngine creates a VectorEngine.
func NewVectorEngine(kv store.KV, embedder embedding.Embedder) *VectorEngine {
	return &VectorEngine{kv: kv, embedder: embedder}
}

// VectorQuery describes one semantic search.
type VectorQuery struct {
	Text  string
	Limit int              // 0 means DefaultVectorLimit
	Field item.VectorField // empty means combined
}

// Search embeds the query, scans the item namespace, scores every
// candidate, and returns at most Limit results sorted by descending
// score. Ties keep scan order; with Redis that order is not
// deterministic across runs, and nothing here promises otherwise.
// UsedFallback reports whether the query embedding was synthesized.
func (e *VectorEngine) Search(ctx context.Context, q VectorQuery) (results []Result, usedFallback bool, err error) {
	limit := q.Limit
	if limit == 0 {
		limit = DefaultVectorLimit
	}
	if limit < 0 {
		return nil, false, tesserr.New(tesserr.CodeSearchInvalidInput,
			"limit must be a positive integer", tesserr.Field("limit", q.Limit))
	}

	field, err := item.ParseVectorField(string(q.Field))
	if err != nil {
		return nil, false, err
	}

	embedded, err := e.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, false, tesserr.Wrapf(err, tesserr.CodeSearchScanFailure, "embedding query")
	}

	keys, err := e.kv.ScanKeys(ctx, item.KeyPrefix)
	if err != nil {
		return nil, false, scanErr(err)
	}

	results = make([]Result, 0, len(keys))
	for _, key := range keys {
		fields, err := e.kv.Get(ctx, key)
		if err != nil {
			// Gone between enumeration and read (expiry or delete): skip.
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, false, scanErr(err)
		}

		it := item.FromFields(key, fields)
		vec := it.Embedding(field)
		if vec == nil {
			continue
		}

		results = append(results, Result{
			Item:  it,
			Score: CosineSimilarity(embedded.Vector, vec),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, embedded.UsedFallback, nil
}

func scanErr(err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		return tesserr.Wrap(err, tesserr.CodeStoreUnavailable, "scanning items")
	}
	return tesserr.Wrap(err, tesserr.CodeSearchScanFailure, "scanning items")
}
