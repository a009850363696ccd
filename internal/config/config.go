// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package config

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// Config is the top-level Tessera configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Items     ItemsConfig     `mapstructure:"items"`
}

// ServerConfig controls how Tessera listens for connections.
type ServerConfig struct {
	Listen string     `mapstructure:"listen"`
	CORS   CORSConfig `mapstructure:"cors"`
}

// CORSConfig controls cross-origin access to the HTTP API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig selects and addresses the storage backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	URL     string `mapstructure:"url"`
}

// EmbeddingConfig holds per-provider embedding settings. A provider with
// no API key is simply not used; the deterministic fallback needs none.
type EmbeddingConfig struct {
	Google GoogleConfig `mapstructure:"google"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// GoogleConfig configures the Gemini embedding provider.
type GoogleConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OpenAIConfig configures the OpenAI embedding provider.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// ItemsConfig controls item lifecycle defaults.
type ItemsConfig struct {
	DefaultTTLSeconds int `mapstructure:"default_ttl_seconds"`
}

// SetDefaults installs the default value for every config key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", "127.0.0.1:8790")
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("storage.backend", "redis")
	v.SetDefault("storage.url", "redis://localhost:6379")
	v.SetDefault("embedding.google.model", "gemini-embedding-001")
	v.SetDefault("embedding.openai.model", "text-embedding-3-small")
	v.SetDefault("items.default_ttl_seconds", 86400)
}

// SetupEnv binds TESSERA_ environment variables, with dots in config
// keys mapping to underscores.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("TESSERA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix TESSERA_).
func Load(path string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)
	SetupEnv(v)

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, tesserr.Errorf(tesserr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateItems()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
	} else {
		host, portStr, err := net.SplitHostPort(c.Server.Listen)
		if err != nil {
			errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue,
				"config: server.listen must be a valid host:port address, got %q: %w",
				c.Server.Listen, err,
			))
		} else {
			_ = host // host can be empty (e.g., ":8790"), which is valid
			port, err := strconv.Atoi(portStr)
			if err != nil {
				errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue,
					"config: server.listen port must be a number, got %q",
					portStr,
				))
			} else if port < 1 || port > 65535 {
				errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue,
					"config: server.listen port must be between 1 and 65535, got %d",
					port,
				))
			}
		}
	}

	for i, origin := range c.Server.CORS.AllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue,
				"config: server.cors.allowed_origins[%d] must not be empty", i))
		}
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"redis": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [redis], got %q",
			c.Storage.Backend,
		))
	}

	if c.Storage.URL == "" {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue, "config: storage.url must not be empty"))
	} else if u, err := url.Parse(c.Storage.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue,
			"config: storage.url must be an absolute URL like redis://host:port, got %q",
			c.Storage.URL,
		))
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	if c.Embedding.Google.APIKey != "" && c.Embedding.Google.Model == "" {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue,
			"config: embedding.google.model must not be empty when an API key is set"))
	}

	if c.Embedding.OpenAI.APIKey != "" && c.Embedding.OpenAI.Model == "" {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue,
			"config: embedding.openai.model must not be empty when an API key is set"))
	}

	if c.Embedding.OpenAI.BaseURL != "" {
		if u, err := url.Parse(c.Embedding.OpenAI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue,
				"config: embedding.openai.base_url must be an absolute URL, got %q",
				c.Embedding.OpenAI.BaseURL,
			))
		}
	}

	return errs
}

func (c *Config) validateItems() []error {
	var errs []error

	if c.Items.DefaultTTLSeconds <= 0 {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigValidateInvalidValue,
			"config: items.default_ttl_seconds must be greater than 0, got %d",
			c.Items.DefaultTTLSeconds,
		))
	}

	return errs
}
