// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package item

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tessera-dev/tessera/internal/embedding"
	"github.com/tessera-dev/tessera/internal/store"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// DefaultTTLSeconds is applied when neither the caller nor the service
// configuration supplies a TTL.
const DefaultTTLSeconds = 86400

// Service implements the item lifecycle on top of the KV boundary and
// an embedder. It holds no cross-request mutable state; concurrent
// operations race only through the store's own per-key atomicity.
type Service struct {
	kv         store.KV
	embedder   embedding.Embedder
	logger     *slog.Logger
	defaultTTL int
	now        func() time.Time // for testing
}

// NewService creates an item Service. defaultTTLSeconds is applied to
// adds that omit a TTL; zero falls back to DefaultTTLSeconds.
func NewService(kv store.KV, embedder embedding.Embedder, defaultTTLSeconds int, logger *slog.Logger) *Service {
	if defaultTTLSeconds <= 0 {
		defaultTTLSeconds = DefaultTTLSeconds
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		kv:         kv,
		embedder:   embedder,
		logger:     logger,
		defaultTTL: defaultTTLSeconds,
		now:        time.Now,
	}
}

// SetNowFunc overrides the time source (for testing).
func (s *Service) SetNowFunc(fn func() time.Time) { s.now = fn }

// AddParams are the caller-supplied inputs for Add. A zero TTLSeconds
// means the default; negative values are rejected.
type AddParams struct {
	Title      string
	Content    string
	Category   string
	TTLSeconds int
}

// Add validates, embeds, and persists a new item, then registers it in
// the global and category membership sets. The write is all-or-nothing:
// if index registration fails, the item key and any memberships
// already written are removed again so a retried Add (which mints a
// fresh id) starts clean.
func (s *Service) Add(ctx context.Context, p AddParams) (*Item, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, tesserr.New(tesserr.CodeItemAddInvalidInput, "title is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, tesserr.New(tesserr.CodeItemAddInvalidInput, "content is required")
	}

	ttl := p.TTLSeconds
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	if ttl < 0 {
		return nil, tesserr.New(tesserr.CodeItemAddInvalidInput,
			"ttlSeconds must be a positive integer",
			tesserr.Field("ttl_seconds", p.TTLSeconds))
	}

	category := p.Category
	if category == "" {
		category = DefaultCategory
	}

	// An item is never persisted without all three embeddings.
	title, err := s.embedder.Embed(ctx, p.Title)
	if err != nil {
		return nil, tesserr.Wrapf(err, tesserr.CodeItemWriteFailure, "embedding title")
	}
	content, err := s.embedder.Embed(ctx, p.Content)
	if err != nil {
		return nil, tesserr.Wrapf(err, tesserr.CodeItemWriteFailure, "embedding content")
	}
	combined, err := s.embedder.Embed(ctx, p.Title+" "+p.Content)
	if err != nil {
		return nil, tesserr.Wrapf(err, tesserr.CodeItemWriteFailure, "embedding combined text")
	}

	if title.UsedFallback || content.UsedFallback || combined.UsedFallback {
		s.logger.Warn("item embedded with deterministic fallback", "title", p.Title)
	}

	now := s.now().UTC()
	it := &Item{
		ID:                newID(now),
		Title:             p.Title,
		Content:           p.Content,
		Category:          category,
		CreatedAt:         now,
		UpdatedAt:         now,
		ExpiresAt:         now.Add(time.Duration(ttl) * time.Second),
		TitleEmbedding:    title.Vector,
		ContentEmbedding:  content.Vector,
		CombinedEmbedding: combined.Vector,
	}

	if err := s.kv.Put(ctx, it.ID, it.Fields(), time.Duration(ttl)*time.Second); err != nil {
		return nil, storeErr(err, "writing item", it.ID)
	}

	if err := s.registerMemberships(ctx, it); err != nil {
		s.rollbackAdd(ctx, it)
		return nil, storeErr(err, "registering item memberships", it.ID)
	}

	return it, nil
}

func (s *Service) registerMemberships(ctx context.Context, it *Item) error {
	if err := s.kv.SetAdd(ctx, AllSetKey, it.ID); err != nil {
		return err
	}
	return s.kv.SetAdd(ctx, CategorySetKey(it.Category), it.ID)
}

// rollbackAdd removes the item key and any set memberships written
// before a mid-add failure, so a failed Add leaves nothing observable.
// Best effort: rollback failures are logged, the original error wins.
func (s *Service) rollbackAdd(ctx context.Context, it *Item) {
	if _, err := s.kv.Delete(ctx, it.ID); err != nil {
		s.logger.Warn("rollback of partially written item failed",
			"item_id", it.ID, "error", err)
	}
	for _, set := range []string{AllSetKey, CategorySetKey(it.Category)} {
		if err := s.kv.SetRemove(ctx, set, it.ID); err != nil {
			s.logger.Warn("rollback of item set membership failed",
				"item_id", it.ID, "key", set, "error", err)
		}
	}
}

// Get returns the item stored under id. An absent key, including one
// removed by TTL expiry, is a NotFound result.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	if id == "" {
		return nil, tesserr.New(tesserr.CodeItemAddInvalidInput, "item id is required")
	}

	fields, err := s.kv.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, tesserr.New(tesserr.CodeItemNotFound, "item not found", tesserr.FieldItemID(id))
		}
		return nil, storeErr(err, "reading item", id)
	}

	return FromFields(id, fields), nil
}

// Delete removes the item and returns its last snapshot. Membership-set
// cleanup is best-effort: a failure there is logged and never turns a
// successful deletion into a reported failure.
func (s *Service) Delete(ctx context.Context, id string) (*Item, error) {
	it, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	removed, err := s.kv.Delete(ctx, id)
	if err != nil {
		return nil, storeErr(err, "deleting item", id)
	}
	if !removed {
		// Raced with expiry or a concurrent delete.
		return nil, tesserr.New(tesserr.CodeItemNotFound, "item not found", tesserr.FieldItemID(id))
	}

	if err := s.kv.SetRemove(ctx, AllSetKey, id); err != nil {
		s.logger.Warn("removing item from global set failed", "item_id", id, "error", err)
	}
	if err := s.kv.SetRemove(ctx, CategorySetKey(it.Category), id); err != nil {
		s.logger.Warn("removing item from category set failed",
			"item_id", id, "category", it.Category, "error", err)
	}

	return it, nil
}

// newID mints a unique item key from monotonic wall time plus a random
// suffix, so concurrent creations never collide.
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s%d:%s", KeyPrefix, now.UnixMilli(), suffix)
}

// storeErr classifies a KV failure into the coded-error taxonomy.
func storeErr(err error, msg, key string) error {
	if errors.Is(err, store.ErrUnavailable) {
		return tesserr.Wrap(err, tesserr.CodeStoreUnavailable, msg, tesserr.FieldKey(key))
	}
	if errors.Is(err, store.ErrInvalidInput) {
		return tesserr.Wrap(err, tesserr.CodeStoreInvalidInput, msg, tesserr.FieldKey(key))
	}
	return tesserr.Wrap(err, tesserr.CodeStoreOperationFailure, msg, tesserr.FieldKey(key))
}
