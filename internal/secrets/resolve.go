// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package secrets

import (
	"log/slog"
	"strings"

	"github.com/tessera-dev/tessera/internal/config"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// URI scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI extracts service and key from a keyring://service/key URI.
// Returns an error if the URI is malformed.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", tesserr.Errorf(tesserr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}

	path := strings.TrimPrefix(uri, keyringScheme)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", tesserr.Errorf(tesserr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}

	return parts[0], parts[1], nil
}

// ResolveKeyringURI resolves a single keyring:// URI to its secret value.
// Returns the original value unchanged if it is not a keyring URI.
func ResolveKeyringURI(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}

	secret, err := store.Retrieve(service, key)
	if err != nil {
		return "", tesserr.Wrapf(err, tesserr.CodeSecretResolveFailure,
			"resolving keyring URI %q", value)
	}

	return secret, nil
}

// ResolveConfigSecrets replaces keyring:// references in the loaded config
// with their secret values. This is a post-load step, not a decoder hook.
//
// Resolution failures are logged as warnings and the original URI value is
// kept in place; the provider carrying it will simply fail auth and drop
// out of the embedding chain, which is the behavior an operator can debug.
func ResolveConfigSecrets(cfg *config.Config, store Store) {
	cfg.Embedding.Google.APIKey = resolveOrKeep(store, "embedding.google.api_key", cfg.Embedding.Google.APIKey)
	cfg.Embedding.OpenAI.APIKey = resolveOrKeep(store, "embedding.openai.api_key", cfg.Embedding.OpenAI.APIKey)
}

func resolveOrKeep(store Store, configKey, value string) string {
	if !IsKeyringURI(value) {
		return value
	}

	resolved, err := ResolveKeyringURI(store, value)
	if err != nil {
		slog.Warn("failed to resolve keyring URI, keeping original value",
			"config_key", configKey,
			"error", err,
		)
		return value
	}

	return resolved
}
