// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Shared dependency wiring for CLI commands and the TUI.
package cli

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/jeranaias/fleetdeck/internal/api"
	"github.com/jeranaias/fleetdeck/internal/auth"
	"github.com/jeranaias/fleetdeck/internal/config"
	"github.com/jeranaias/fleetdeck/internal/storage"
)

// =============================================================================
// RUNTIME
// =============================================================================

// Runtime bundles the collaborators every command needs: the API client,
// the session manager, and the optional inventory cache. Both the one-shot
// CLI commands and the TUI are built on the same wiring so they share one
// stored session.
type Runtime struct {
	Cfg     *config.Config
	Client  *api.Client
	Store   *auth.FileStore
	Manager *auth.Manager
	Cache   *storage.Cache // nil when caching is disabled
}

// NewRuntime builds a Runtime from configuration. Extra session manager
// options (navigation hooks for the TUI) are appended after the
// config-derived ones.
func NewRuntime(cfg *config.Config, opts ...auth.Option) (*Runtime, error) {
	client := api.NewClient(cfg.Server.BaseURL).
		WithTimeout(time.Duration(cfg.Server.TimeoutSecs) * time.Second).
		WithMaxRetries(cfg.Server.MaxRetries)

	storeDir := cfg.Auth.StoreDir
	if storeDir == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve session dir: %w", err)
		}
		storeDir = filepath.Join(dir, "session")
	}
	store := auth.NewFileStore(storeDir)

	// The client reads the token from the store on every request, so a
	// restored session authenticates without any explicit handoff.
	client.WithTokenSource(func() string {
		cred, err := store.Load()
		if err != nil || cred == nil {
			return ""
		}
		return cred.Token
	})

	managerOpts := []auth.Option{
		auth.WithMode(auth.Mode(cfg.Auth.Mode)),
		auth.WithValidity(time.Duration(cfg.Auth.SessionHours) * time.Hour),
	}
	managerOpts = append(managerOpts, opts...)
	manager := auth.NewManager(client, store, managerOpts...)

	var cache *storage.Cache
	if cfg.Cache.Enabled {
		path := cfg.Cache.Path
		if path == "" {
			p, err := storage.DefaultCachePath()
			if err != nil {
				return nil, fmt.Errorf("resolve cache path: %w", err)
			}
			path = p
		}
		c, err := storage.Open(path, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		if err != nil {
			// A broken cache degrades to live-only operation.
			log.Printf("cache: open %s: %v (continuing without cache)", path, err)
		} else {
			cache = c
		}
	}

	return &Runtime{
		Cfg:     cfg,
		Client:  client,
		Store:   store,
		Manager: manager,
		Cache:   cache,
	}, nil
}

// Close releases the runtime's resources.
func (r *Runtime) Close() {
	r.Manager.Close()
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil {
			log.Printf("cache: close: %v", err)
		}
	}
}
