// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/tessera-dev/tessera/internal/config"
	"github.com/tessera-dev/tessera/internal/embedding"
	"github.com/tessera-dev/tessera/internal/embedding/google"
	"github.com/tessera-dev/tessera/internal/embedding/openai"
	"github.com/tessera-dev/tessera/internal/index"
	"github.com/tessera-dev/tessera/internal/item"
	"github.com/tessera-dev/tessera/internal/search"
	"github.com/tessera-dev/tessera/internal/secrets"
	"github.com/tessera-dev/tessera/internal/server"
	"github.com/tessera-dev/tessera/internal/store"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"

	// Registers the redis storage backend.
	_ "github.com/tessera-dev/tessera/internal/store/redis"
)

// app holds the wired subsystems for one process.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	kv     store.KV
	index  *index.Manager
	srv    *server.Server
}

// newLogger builds the process logger. Verbose switches to debug level.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildApp loads config, resolves secrets, opens the store, assembles
// the embedding chain, and wires services into an HTTP server. A
// non-empty listenOverride wins over the configured listen address.
func buildApp(cfgPath string, verbose bool, listenOverride string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if listenOverride != "" {
		cfg.Server.Listen = listenOverride
	}
	config.WarnInsecurePermissions(cfgPath)
	secrets.ResolveConfigSecrets(cfg, secrets.NewKeyringStore())

	logger := newLogger(verbose)
	slog.SetDefault(logger)

	kv, err := store.Open(store.Config{
		Backend: cfg.Storage.Backend,
		URL:     cfg.Storage.URL,
	})
	if err != nil {
		return nil, tesserr.Wrap(err, tesserr.CodeStoreUnavailable, "opening store",
			tesserr.FieldBackend(cfg.Storage.Backend))
	}

	embedder := embedding.NewChain(buildBackends(cfg, logger), logger)

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORS.AllowedOrigins,
	})
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	mgr := index.NewManager(kv, logger)

	svcs, err := server.NewServices(
		item.NewService(kv, embedder, cfg.Items.DefaultTTLSeconds, logger),
		search.NewLexicalEngine(kv),
		search.NewVectorEngine(kv, embedder),
		mgr,
		kv,
	)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	srv.RegisterServices(svcs)

	return &app{
		cfg:    cfg,
		logger: logger,
		kv:     kv,
		index:  mgr,
		srv:    srv,
	}, nil
}

// buildBackends assembles the provider list in priority order. Providers
// without an API key are left out; an empty list means every embedding
// comes from the deterministic fallback.
func buildBackends(cfg *config.Config, logger *slog.Logger) []embedding.Backend {
	var backends []embedding.Backend

	if cfg.Embedding.Google.APIKey != "" {
		b, err := google.New(google.Config{
			APIKey: cfg.Embedding.Google.APIKey,
			Model:  cfg.Embedding.Google.Model,
		})
		if err != nil {
			logger.Warn("google embedding provider disabled", "error", err)
		} else {
			backends = append(backends, b)
		}
	}

	if cfg.Embedding.OpenAI.APIKey != "" {
		b, err := openai.New(openai.Config{
			APIKey:  cfg.Embedding.OpenAI.APIKey,
			BaseURL: cfg.Embedding.OpenAI.BaseURL,
			Model:   cfg.Embedding.OpenAI.Model,
		})
		if err != nil {
			logger.Warn("openai embedding provider disabled", "error", err)
		} else {
			backends = append(backends, b)
		}
	}

	return backends
}

func (a *app) close() {
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
}
