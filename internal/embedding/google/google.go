// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package google

import (
	"context"

	"google.golang.org/genai"

	"github.com/tessera-dev/tessera/internal/embedding"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// defaultModel produces 768-dimension embeddings when asked to.
const defaultModel = "gemini-embedding-001"

// Config holds Google backend configuration.
type Config struct {
	APIKey string
	Model  string // defaults to gemini-embedding-001
}

// Backend implements embedding.Backend using the Google Gemini API.
type Backend struct {
	client *genai.Client
	model  string
	health *embedding.HealthTracker
}

// Compile-time interface check.
var _ embedding.Backend = (*Backend)(nil)

// New creates a Google embedding backend. Returns an error if the API
// key is missing.
func New(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, tesserr.New(tesserr.CodeEmbeddingRequestInvalid,
			"google: missing api_key in config", tesserr.FieldBackend("google"))
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, tesserr.Wrapf(err, tesserr.CodeEmbeddingUpstreamFailure, "google: creating client")
	}

	health, err := embedding.NewHealthTracker(embedding.DefaultHealthCooldown)
	if err != nil {
		return nil, tesserr.Wrapf(err, tesserr.CodeEmbeddingRequestInvalid, "google: creating health tracker")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Backend{
		client: client,
		model:  model,
		health: health,
	}, nil
}

func (b *Backend) Name() string { return "google" }

func (b *Backend) Available(_ context.Context) bool {
	return b.health.IsHealthy()
}

func (b *Backend) RecordSuccess() { b.health.RecordSuccess() }
func (b *Backend) RecordFailure() { b.health.RecordFailure() }

// Embed requests a single embedding with the output dimensionality
// pinned to the store's vector size.
func (b *Backend) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := b.client.Models.EmbedContent(ctx, b.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr[int32](embedding.Dimensions),
	})
	if err != nil {
		return nil, tesserr.Wrapf(err, tesserr.CodeEmbeddingUpstreamFailure, "google: embedding content")
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, tesserr.New(tesserr.CodeEmbeddingUpstreamFailure,
			"google: empty embedding response", tesserr.FieldBackend("google"))
	}

	return resp.Embeddings[0].Values, nil
}
