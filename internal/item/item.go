// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

// Package item owns the knowledge-item lifecycle: creation with expiry,
// retrieval, deletion, and membership in the category and global index
// sets.
package item

import (
	"encoding/json"
	"time"

	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

const (
	// KeyPrefix namespaces item hashes in the store. Enumeration is a
	// prefix scan over this namespace; there is no secondary index.
	KeyPrefix = "item:"

	// AllSetKey is the global membership set of every item id.
	AllSetKey = "items:all"

	categorySetPrefix = "items:category:"

	// DefaultCategory is applied when a caller omits the category.
	DefaultCategory = "General"
)

// CategorySetKey returns the membership set key for a category.
func CategorySetKey(category string) string {
	return categorySetPrefix + category
}

// Item is the stored knowledge unit. The three embeddings are internal:
// they are persisted alongside the item but never serialized into API
// responses.
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`

	TitleEmbedding    []float32 `json:"-"`
	ContentEmbedding  []float32 `json:"-"`
	CombinedEmbedding []float32 `json:"-"`
}

// VectorField selects which stored embedding a similarity search ranks by.
type VectorField string

const (
	VectorFieldTitle    VectorField = "title"
	VectorFieldContent  VectorField = "content"
	VectorFieldCombined VectorField = "combined"
)

// ParseVectorField validates a field name, defaulting to combined when
// empty.
func ParseVectorField(s string) (VectorField, error) {
	switch VectorField(s) {
	case "":
		return VectorFieldCombined, nil
	case VectorFieldTitle, VectorFieldContent, VectorFieldCombined:
		return VectorField(s), nil
	default:
		return "", tesserr.Errorf(tesserr.CodeSearchInvalidInput,
			"vector field must be one of [title, content, combined], got %q", s)
	}
}

// Embedding returns the stored vector for the given field, or nil when
// it was missing or unparsable at load time.
func (i *Item) Embedding(field VectorField) []float32 {
	switch field {
	case VectorFieldTitle:
		return i.TitleEmbedding
	case VectorFieldContent:
		return i.ContentEmbedding
	default:
		return i.CombinedEmbedding
	}
}

// Fields flattens the item into the string field map the store persists.
// Embeddings are serialized as JSON float arrays.
func (i *Item) Fields() map[string]string {
	return map[string]string{
		"id":                i.ID,
		"title":             i.Title,
		"content":           i.Content,
		"category":          i.Category,
		"createdAt":         i.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":         i.UpdatedAt.Format(time.RFC3339Nano),
		"expiresAt":         i.ExpiresAt.Format(time.RFC3339Nano),
		"titleEmbedding":    encodeVector(i.TitleEmbedding),
		"contentEmbedding":  encodeVector(i.ContentEmbedding),
		"combinedEmbedding": encodeVector(i.CombinedEmbedding),
	}
}

// FromFields maps a stored field map back to a typed Item. Defaulting
// happens once here: a missing or empty category becomes
// DefaultCategory. Embeddings that are missing or unparsable decode to
// nil rather than failing the whole item, so scans can skip them.
func FromFields(key string, fields map[string]string) *Item {
	it := &Item{
		ID:       fields["id"],
		Title:    fields["title"],
		Content:  fields["content"],
		Category: fields["category"],
	}

	if it.ID == "" {
		it.ID = key
	}
	if it.Category == "" {
		it.Category = DefaultCategory
	}

	it.CreatedAt = parseTime(fields["createdAt"])
	it.UpdatedAt = parseTime(fields["updatedAt"])
	it.ExpiresAt = parseTime(fields["expiresAt"])

	it.TitleEmbedding = decodeVector(fields["titleEmbedding"])
	it.ContentEmbedding = decodeVector(fields["contentEmbedding"])
	it.CombinedEmbedding = decodeVector(fields["combinedEmbedding"])

	return it
}

func encodeVector(vec []float32) string {
	if len(vec) == 0 {
		return ""
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeVector(s string) []float32 {
	if s == "" {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal([]byte(s), &vec); err != nil {
		return nil
	}
	return vec
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
