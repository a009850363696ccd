// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tessera-dev/tessera/internal/item"
	"github.com/tessera-dev/tessera/internal/search"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	// Item endpoints
	huma.Register(s.api, huma.Operation{
		OperationID:   "add-item",
		Method:        http.MethodPost,
		Path:          "/api/v1/items",
		Summary:       "Store a knowledge item",
		Tags:          []string{"items"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-item",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}",
		Summary:     "Get a knowledge item",
		Tags:        []string{"items"},
	}, s.handleGetItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-item",
		Method:      http.MethodDelete,
		Path:        "/api/v1/items/{id}",
		Summary:     "Delete a knowledge item",
		Tags:        []string{"items"},
	}, s.handleDeleteItem)

	// Search endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "search-items",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search items by substring and category",
		Tags:        []string{"search"},
	}, s.handleLexicalSearchGet)

	huma.Register(s.api, huma.Operation{
		OperationID: "search-items-post",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search items by substring and category",
		Tags:        []string{"search"},
	}, s.handleLexicalSearchPost)

	huma.Register(s.api, huma.Operation{
		OperationID: "semantic-search",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/semantic",
		Summary:     "Search items by embedding similarity",
		Tags:        []string{"search"},
	}, s.handleSemanticSearch)

	// Index endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "init-index",
		Method:      http.MethodPost,
		Path:        "/api/v1/index",
		Summary:     "Initialize the item index",
		Tags:        []string{"index"},
	}, s.handleInitIndex)

	// Status endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Store and index status",
		Tags:        []string{"system"},
	}, s.handleStatus)
}

// --- Request/Response types for huma ---

// ItemPayload is the wire shape of an item. Embeddings stay internal.
type ItemPayload struct {
	ID        string    `json:"id" doc:"Item key"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at" doc:"When the item is evicted"`
}

func toPayload(it *item.Item) ItemPayload {
	return ItemPayload{
		ID:        it.ID,
		Title:     it.Title,
		Content:   it.Content,
		Category:  it.Category,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
		ExpiresAt: it.ExpiresAt,
	}
}

// ScoredItem is one search hit.
type ScoredItem struct {
	Item  ItemPayload `json:"item"`
	Score float64     `json:"score" doc:"Relevance in [0,1] for lexical, cosine similarity for semantic"`
}

func toScored(results []search.Result) []ScoredItem {
	out := make([]ScoredItem, 0, len(results))
	for _, r := range results {
		out = append(out, ScoredItem{Item: toPayload(r.Item), Score: r.Score})
	}
	return out
}

type addItemInput struct {
	Body struct {
		Title      string `json:"title" minLength:"1" doc:"Item title"`
		Content    string `json:"content" minLength:"1" doc:"Item content"`
		Category   string `json:"category,omitempty" doc:"Category, defaults to General"`
		TTLSeconds int    `json:"ttl_seconds,omitempty" minimum:"0" doc:"Seconds until eviction, defaults to 86400"`
	}
}
type addItemOutput struct {
	Body struct {
		Item    ItemPayload `json:"item"`
		Message string      `json:"message"`
	}
}

type itemIDInput struct {
	ID string `path:"id"`
}
type getItemOutput struct {
	Body ItemPayload
}
type deleteItemOutput struct {
	Body struct {
		Item    ItemPayload `json:"item" doc:"Snapshot of the deleted item"`
		Message string      `json:"message"`
	}
}

type lexicalSearchGetInput struct {
	Query    string `query:"q" doc:"Substring to match against title and content"`
	Category string `query:"category" doc:"Restrict to one category"`
	Limit    int    `query:"limit" minimum:"0" doc:"Maximum results, defaults to 50"`
}
type lexicalSearchPostInput struct {
	Body struct {
		Query    string `json:"query,omitempty"`
		Category string `json:"category,omitempty"`
		Limit    int    `json:"limit,omitempty" minimum:"0"`
	}
}
type searchOutput struct {
	Body struct {
		Results []ScoredItem `json:"results"`
		Total   int          `json:"total"`
		Message string       `json:"message"`
	}
}

type semanticSearchInput struct {
	Body struct {
		Query string `json:"query" minLength:"1" doc:"Text to embed and compare"`
		Limit int    `json:"limit,omitempty" minimum:"0" doc:"Maximum results, defaults to 5"`
		Field string `json:"field,omitempty" enum:"title,content,combined" doc:"Which stored embedding to rank by"`
	}
}
type semanticSearchOutput struct {
	Body struct {
		Results      []ScoredItem `json:"results"`
		Total        int          `json:"total"`
		UsedFallback bool         `json:"used_fallback" doc:"True when the query was embedded with the deterministic fallback"`
	}
}

type initIndexOutput struct {
	Body struct {
		Created bool   `json:"created"`
		Message string `json:"message"`
	}
}

type statusOutput struct {
	Body struct {
		Status      string `json:"status" example:"ok"`
		Store       string `json:"store" doc:"Storage connectivity: ok or unavailable"`
		IndexExists bool   `json:"index_exists"`
	}
}

// --- Handlers ---

func (s *Server) handleAddItem(ctx context.Context, input *addItemInput) (*addItemOutput, error) {
	it, err := s.services.items.Add(ctx, item.AddParams{
		Title:      input.Body.Title,
		Content:    input.Body.Content,
		Category:   input.Body.Category,
		TTLSeconds: input.Body.TTLSeconds,
	})
	if err != nil {
		return nil, apiError(err)
	}

	out := &addItemOutput{}
	out.Body.Item = toPayload(it)
	out.Body.Message = fmt.Sprintf("stored item %s", it.ID)
	return out, nil
}

func (s *Server) handleGetItem(ctx context.Context, input *itemIDInput) (*getItemOutput, error) {
	it, err := s.services.items.Get(ctx, input.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return &getItemOutput{Body: toPayload(it)}, nil
}

func (s *Server) handleDeleteItem(ctx context.Context, input *itemIDInput) (*deleteItemOutput, error) {
	it, err := s.services.items.Delete(ctx, input.ID)
	if err != nil {
		return nil, apiError(err)
	}

	out := &deleteItemOutput{}
	out.Body.Item = toPayload(it)
	out.Body.Message = fmt.Sprintf("deleted item %s", it.ID)
	return out, nil
}

func (s *Server) handleLexicalSearchGet(ctx context.Context, input *lexicalSearchGetInput) (*searchOutput, error) {
	return s.lexicalSearch(ctx, search.LexicalQuery{
		Query:    input.Query,
		Category: input.Category,
		Limit:    input.Limit,
	})
}

func (s *Server) handleLexicalSearchPost(ctx context.Context, input *lexicalSearchPostInput) (*searchOutput, error) {
	return s.lexicalSearch(ctx, search.LexicalQuery{
		Query:    input.Body.Query,
		Category: input.Body.Category,
		Limit:    input.Body.Limit,
	})
}

func (s *Server) lexicalSearch(ctx context.Context, q search.LexicalQuery) (*searchOutput, error) {
	results, err := s.services.lexical.Search(ctx, q)
	if err != nil {
		return nil, apiError(err)
	}

	out := &searchOutput{}
	out.Body.Results = toScored(results)
	out.Body.Total = len(results)
	out.Body.Message = fmt.Sprintf("found %d items", len(results))
	return out, nil
}

func (s *Server) handleSemanticSearch(ctx context.Context, input *semanticSearchInput) (*semanticSearchOutput, error) {
	results, usedFallback, err := s.services.vector.Search(ctx, search.VectorQuery{
		Text:  input.Body.Query,
		Limit: input.Body.Limit,
		Field: item.VectorField(input.Body.Field),
	})
	if err != nil {
		return nil, apiError(err)
	}

	out := &semanticSearchOutput{}
	out.Body.Results = toScored(results)
	out.Body.Total = len(results)
	out.Body.UsedFallback = usedFallback
	return out, nil
}

func (s *Server) handleInitIndex(ctx context.Context, _ *struct{}) (*initIndexOutput, error) {
	created, err := s.services.index.Ensure(ctx)
	if err != nil {
		return nil, apiError(err)
	}

	out := &initIndexOutput{}
	out.Body.Created = created
	if created {
		out.Body.Message = "index created"
	} else {
		out.Body.Message = "index already exists"
	}
	return out, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	out := &statusOutput{}
	out.Body.Status = "ok"
	out.Body.Store = "ok"

	if err := s.services.probe.Ping(ctx); err != nil {
		out.Body.Status = "degraded"
		out.Body.Store = "unavailable"
		return out, nil
	}

	exists, err := s.services.index.Exists(ctx)
	if err != nil {
		out.Body.Status = "degraded"
		return out, nil
	}
	out.Body.IndexExists = exists

	return out, nil
}

// apiError maps a coded error onto the matching huma status error, so
// transport concerns stay out of the services.
func apiError(err error) error {
	return huma.NewError(tesserr.HTTPStatus(err), err.Error())
}
