// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package server

import (
	"context"

	"github.com/tessera-dev/tessera/internal/item"
	"github.com/tessera-dev/tessera/internal/search"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// ItemService is the item lifecycle surface the routes depend on.
type ItemService interface {
	Add(ctx context.Context, p item.AddParams) (*item.Item, error)
	Get(ctx context.Context, id string) (*item.Item, error)
	Delete(ctx context.Context, id string) (*item.Item, error)
}

// LexicalSearcher runs substring and category search.
type LexicalSearcher interface {
	Search(ctx context.Context, q search.LexicalQuery) ([]search.Result, error)
}

// VectorSearcher runs embedding similarity search.
type VectorSearcher interface {
	Search(ctx context.Context, q search.VectorQuery) ([]search.Result, bool, error)
}

// IndexManager exposes the index lifecycle.
type IndexManager interface {
	Ensure(ctx context.Context) (bool, error)
	Exists(ctx context.Context) (bool, error)
}

// StoreProbe reports storage connectivity for the status endpoint.
type StoreProbe interface {
	Ping(ctx context.Context) error
}

// Services holds dependencies injected into route handlers.
// Each field is an interface so subsystems can be mocked in tests.
// Use NewServices constructor to ensure all required services are provided.
type Services struct {
	items   ItemService
	lexical LexicalSearcher
	vector  VectorSearcher
	index   IndexManager
	probe   StoreProbe
}

// NewServices creates a Services instance with validation.
// Returns an error if any required service is nil.
func NewServices(items ItemService, lexical LexicalSearcher, vector VectorSearcher, index IndexManager, probe StoreProbe) (*Services, error) {
	if items == nil {
		return nil, tesserr.New(tesserr.CodeServerConfigInvalid, "item service is required")
	}
	if lexical == nil {
		return nil, tesserr.New(tesserr.CodeServerConfigInvalid, "lexical searcher is required")
	}
	if vector == nil {
		return nil, tesserr.New(tesserr.CodeServerConfigInvalid, "vector searcher is required")
	}
	if index == nil {
		return nil, tesserr.New(tesserr.CodeServerConfigInvalid, "index manager is required")
	}
	if probe == nil {
		return nil, tesserr.New(tesserr.CodeServerConfigInvalid, "store probe is required")
	}
	return &Services{
		items:   items,
		lexical: lexical,
		vector:  vector,
		index:   index,
		probe:   probe,
	}, nil
}
