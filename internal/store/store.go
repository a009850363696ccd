// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package store

import (
	"context"
	"time"
)

// KV is the key-value boundary the core talks to. Items are flat
// string-keyed field maps stored under an opaque key; set operations
// maintain the membership indexes used by search.
//
// Implementations must honor per-call context deadlines; no operation
// may block indefinitely.
type KV interface {
	// Put writes the full field map under key, replacing any existing
	// fields. A positive ttl schedules physical expiry of the key; the
	// caller never observes the key past that instant.
	Put(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error

	// Get returns the field map stored under key.
	// Returns ErrNotFound when the key is absent or already expired.
	Get(ctx context.Context, key string) (map[string]string, error)

	// Delete removes the key. The bool reports whether a key was
	// actually removed.
	Delete(ctx context.Context, key string) (bool, error)

	// ScanKeys enumerates every key beginning with prefix. Ordering is
	// backend-defined and not stable across calls.
	ScanKeys(ctx context.Context, prefix string) ([]string, error)

	// SetAdd adds member to the set stored at setKey, creating it if needed.
	SetAdd(ctx context.Context, setKey, member string) error

	// SetRemove removes member from the set at setKey. Removing an
	// absent member is not an error.
	SetRemove(ctx context.Context, setKey, member string) error

	// SetMembers returns all members of the set at setKey. An absent
	// set yields an empty slice.
	SetMembers(ctx context.Context, setKey string) ([]string, error)

	// Ping verifies connectivity to the backend.
	Ping(ctx context.Context) error

	Close() error
}
