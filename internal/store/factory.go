// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package store

import (
	"sync"

	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// Config selects and configures the storage backend.
type Config struct {
	Backend string // "redis" is the only supported backend for now.
	URL     string // backend connection string, e.g. "redis://localhost:6379"
}

// Factory creates a KV given the backend configuration.
type Factory func(cfg Config) (KV, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory function for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// resolveBackend returns the effective backend name, defaulting to "redis".
func resolveBackend(cfg Config) string {
	if cfg.Backend == "" {
		return "redis"
	}
	return cfg.Backend
}

// Open creates a KV for the configured backend.
func Open(cfg Config) (KV, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, tesserr.Errorf(tesserr.CodeStoreBackendUnsupported,
			"unsupported storage backend: %q", backend)
	}

	return factory(cfg)
}
