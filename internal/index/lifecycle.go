// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

// Package index manages the one-time initialization of the item
// namespace. The store needs no schema, so "the index" reduces to a
// persisted marker recording that setup ran; creating it twice is
// harmless, which is what makes Ensure safe to call from every process
// at startup.
package index

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tessera-dev/tessera/internal/store"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// MarkerKey is the hash recording that index initialization completed.
const MarkerKey = "tessera:index:marker"

// Manager owns the index lifecycle against one store.
type Manager struct {
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time // for testing
}

// NewManager creates a Manager.
func NewManager(kv store.KV, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{kv: kv, logger: logger, now: time.Now}
}

// SetNowFunc overrides the time source (for testing).
func (m *Manager) SetNowFunc(fn func() time.Time) { m.now = fn }

// Ensure verifies store connectivity and writes the marker if it is not
// already present. It reports whether this call created the marker.
// Concurrent callers may both attempt the write; the marker's content
// is identical either way, so the race is benign.
func (m *Manager) Ensure(ctx context.Context) (created bool, err error) {
	if err := m.kv.Ping(ctx); err != nil {
		return false, tesserr.Wrap(err, tesserr.CodeStoreUnavailable, "pinging store")
	}

	_, err = m.kv.Get(ctx, MarkerKey)
	if err == nil {
		m.logger.Debug("index marker already present")
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, tesserr.Wrap(err, tesserr.CodeIndexEnsureFailure, "reading index marker")
	}

	fields := map[string]string{
		"createdAt": m.now().UTC().Format(time.RFC3339Nano),
	}
	if err := m.kv.Put(ctx, MarkerKey, fields, 0); err != nil {
		return false, tesserr.Wrap(err, tesserr.CodeIndexEnsureFailure, "writing index marker")
	}

	m.logger.Info("index initialized", "marker", MarkerKey)
	return true, nil
}

// Exists reports whether the marker is present without creating it.
func (m *Manager) Exists(ctx context.Context) (bool, error) {
	_, err := m.kv.Get(ctx, MarkerKey)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return false, tesserr.Wrap(err, tesserr.CodeIndexEnsureFailure, "reading index marker")
}
