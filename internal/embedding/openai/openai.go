// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tessera-dev/tessera/internal/embedding"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// defaultModel supports reduced output dimensions, which keeps the
// vectors compatible with the 768-dimension store layout.
const defaultModel = openaisdk.EmbeddingModelTextEmbedding3Small

// Config holds OpenAI backend configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
	Model   string // defaults to text-embedding-3-small
}

// Backend implements embedding.Backend using the OpenAI Embeddings API.
type Backend struct {
	client openaisdk.Client
	model  openaisdk.EmbeddingModel
	health *embedding.HealthTracker
}

// Compile-time interface check.
var _ embedding.Backend = (*Backend)(nil)

// New creates an OpenAI embedding backend. Returns an error if the API
// key is missing.
func New(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, tesserr.New(tesserr.CodeEmbeddingRequestInvalid,
			"openai: missing api_key in config", tesserr.FieldBackend("openai"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	health, err := embedding.NewHealthTracker(embedding.DefaultHealthCooldown)
	if err != nil {
		return nil, tesserr.Wrapf(err, tesserr.CodeEmbeddingRequestInvalid, "openai: creating health tracker")
	}

	model := openaisdk.EmbeddingModel(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Backend{
		client: openaisdk.NewClient(opts...),
		model:  model,
		health: health,
	}, nil
}

func (b *Backend) Name() string { return "openai" }

func (b *Backend) Available(_ context.Context) bool {
	return b.health.IsHealthy()
}

func (b *Backend) RecordSuccess() { b.health.RecordSuccess() }
func (b *Backend) RecordFailure() { b.health.RecordFailure() }

func (b *Backend) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := b.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model:      b.model,
		Input:      openaisdk.EmbeddingNewParamsInputUnion{OfString: openaisdk.String(text)},
		Dimensions: openaisdk.Int(embedding.Dimensions),
	})
	if err != nil {
		return nil, tesserr.Wrapf(err, tesserr.CodeEmbeddingUpstreamFailure, "openai: creating embedding")
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, tesserr.New(tesserr.CodeEmbeddingUpstreamFailure,
			"openai: empty embedding response", tesserr.FieldBackend("openai"))
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
