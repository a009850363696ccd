// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-dev/tessera/internal/config"
	"github.com/tessera-dev/tessera/internal/secrets"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

func TestIsKeyringURI(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid URI", "keyring://tessera/google-api-key", true},
		{"valid URI with dashes", "keyring://my-svc/my-key", true},
		{"env var reference", "${GOOGLE_API_KEY}", false},
		{"literal value", "sk-abc123", false},
		{"empty string", "", false},
		{"just scheme", "keyring://", true},
		{"other scheme", "vault://secret/key", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, secrets.IsKeyringURI(tt.value))
		})
	}
}

func TestParseKeyringURI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantService string
		wantKey     string
		wantErr     bool
	}{
		{"valid", "keyring://tessera/api-key", "tessera", "api-key", false},
		{"dashes", "keyring://my-service/my-key-name", "my-service", "my-key-name", false},
		{"slashes in key", "keyring://tessera/path/to/key", "tessera", "path/to/key", false},
		{"not a keyring URI", "vault://secret/key", "", "", true},
		{"missing key", "keyring://tessera", "", "", true},
		{"missing service", "keyring:///api-key", "", "", true},
		{"just scheme", "keyring://", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, key, err := secrets.ParseKeyringURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, tesserr.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantService, service)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestResolveKeyringURI(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("tessera-resolve", "api-key", "resolved-secret"))

	val, err := secrets.ResolveKeyringURI(ks, "keyring://tessera-resolve/api-key")
	require.NoError(t, err)
	assert.Equal(t, "resolved-secret", val)

	// Non-URI values pass through untouched.
	val, err = secrets.ResolveKeyringURI(ks, "sk-literal")
	require.NoError(t, err)
	assert.Equal(t, "sk-literal", val)

	_, err = secrets.ResolveKeyringURI(ks, "keyring://tessera-resolve/absent")
	require.Error(t, err)
	assert.True(t, tesserr.HasCode(err, tesserr.CodeSecretResolveFailure))
}

func TestResolveConfigSecrets(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("tessera-cfg", "google-api-key", "g-secret"))

	cfg := &config.Config{}
	cfg.Embedding.Google.APIKey = "keyring://tessera-cfg/google-api-key"
	cfg.Embedding.OpenAI.APIKey = "sk-literal"

	secrets.ResolveConfigSecrets(cfg, ks)

	assert.Equal(t, "g-secret", cfg.Embedding.Google.APIKey)
	assert.Equal(t, "sk-literal", cfg.Embedding.OpenAI.APIKey)
}

func TestResolveConfigSecretsKeepsUnresolvable(t *testing.T) {
	ks := secrets.NewKeyringStore()

	cfg := &config.Config{}
	cfg.Embedding.OpenAI.APIKey = "keyring://tessera-cfg/absent-key"

	secrets.ResolveConfigSecrets(cfg, ks)

	assert.Equal(t, "keyring://tessera-cfg/absent-key", cfg.Embedding.OpenAI.APIKey)
}
