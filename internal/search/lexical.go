// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package search

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/tessera-dev/tessera/internal/item"
	"github.com/tessera-dev/tessera/internal/store"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// DefaultLexicalLimit caps lexical search results when the caller does
// not supply a limit.
const DefaultLexicalLimit = 50

// Relevance tiers for the lexical path. A coarse three-tier heuristic,
// kept as-is: replacing it with TF-IDF or BM25 would change ranking
// behavior users may rely on, which is a product decision.
const (
	scoreExactMatch    = 1.0
	scoreTitleContains = 0.9
	scoreBodyContains  = 0.7
)

// LexicalEngine filters items by category membership and case-insensitive
// substring match.
type LexicalEngine struct {
	kv store.KV
}

// NewLexicalEngine creates a LexicalEngine.
func NewLexicalEngine(kv store.KV) *LexicalEngine {
	return &LexicalEngine{kv: kv}
}

// LexicalQuery describes one lexical search. An empty Query matches
// everything with score 1.0; an empty Category searches the global set.
type LexicalQuery struct {
	Query    string
	Category string
	Limit    int // 0 means DefaultLexicalLimit
}

// Search resolves candidate ids from the relevant membership set,
// filters and scores them, and returns at most Limit results sorted by
// descending score (ties keep set order). Ids whose item has already
// expired are skipped silently: the membership sets are eventually
// consistent mirrors, never pruned by TTL expiry, only by explicit
// delete.
func (e *LexicalEngine) Search(ctx context.Context, q LexicalQuery) ([]Result, error) {
	limit := q.Limit
	if limit == 0 {
		limit = DefaultLexicalLimit
	}
	if limit < 0 {
		return nil, tesserr.New(tesserr.CodeSearchInvalidInput,
			"limit must be a positive integer", tesserr.Field("limit", q.Limit))
	}

	setKey := item.AllSetKey
	if q.Category != "" {
		setKey = item.CategorySetKey(q.Category)
	}

	ids, err := e.kv.SetMembers(ctx, setKey)
	if err != nil {
		return nil, scanErr(err)
	}

	query := strings.ToLower(q.Query)

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		fields, err := e.kv.Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, scanErr(err)
		}

		it := item.FromFields(id, fields)

		score := scoreExactMatch
		if query != "" {
			searchable := strings.ToLower(it.Title + " " + it.Content)
			if !strings.Contains(searchable, query) {
				continue
			}

			switch {
			case searchable == query:
				score = scoreExactMatch
			case strings.Contains(strings.ToLower(it.Title), query):
				score = scoreTitleContains
			default:
				score = scoreBodyContains
			}
		}

		results = append(results, Result{Item: it, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
