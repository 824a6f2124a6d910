// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestValidate_BadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty base url", func(c *Config) { c.Server.BaseURL = "" }, "server.base_url"},
		{"relative base url", func(c *Config) { c.Server.BaseURL = "not-a-url" }, "server.base_url"},
		{"timeout too high", func(c *Config) { c.Server.TimeoutSecs = 999 }, "server.timeout_secs"},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "kerberos" }, "auth.mode"},
		{"session hours zero", func(c *Config) { c.Auth.SessionHours = 0 }, "auth.session_hours"},
		{"negative ttl", func(c *Config) { c.Cache.TTLHours = -1 }, "cache.ttl_hours"},
		{"unknown theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention field %s", err, tt.field)
			}
		})
	}
}

func TestSetDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Server.BaseURL == "" {
		t.Error("base URL not defaulted")
	}
	if cfg.Auth.Mode != "bearer" {
		t.Errorf("auth mode = %q, want bearer", cfg.Auth.Mode)
	}
	if cfg.Auth.SessionHours != 24 {
		t.Errorf("session hours = %d, want 24", cfg.Auth.SessionHours)
	}
}

// =============================================================================
// FILE ROUND TRIP
// =============================================================================

func TestSaveTOML_LoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Server.BaseURL = "https://fleet.internal:8443"
	cfg.Auth.Mode = "session"
	cfg.UI.CompactMode = true

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if loaded.Server.BaseURL != "https://fleet.internal:8443" {
		t.Errorf("base URL = %q", loaded.Server.BaseURL)
	}
	if loaded.Auth.Mode != "session" {
		t.Errorf("auth mode = %q", loaded.Auth.Mode)
	}
	if !loaded.UI.CompactMode {
		t.Error("compact mode lost in round trip")
	}
}

func TestSaveTOML_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveTOML(Default(), path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}
}

func TestSaveJSON_LoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Cache.Enabled = false
	cfg.Cache.TTLHours = 6

	if err := SaveJSON(cfg, path); err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Cache.Enabled {
		t.Error("cache.enabled = true, want false")
	}
	if loaded.Cache.TTLHours != 6 {
		t.Errorf("cache ttl = %d, want 6", loaded.Cache.TTLHours)
	}
}

func TestLoadFromPath_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	partial := "[server]\nbase_url = \"https://fleet.partial.test\"\n"
	if err := os.WriteFile(path, []byte(partial), 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Server.BaseURL != "https://fleet.partial.test" {
		t.Errorf("base URL = %q", loaded.Server.BaseURL)
	}
	if loaded.Auth.SessionHours != 24 {
		t.Errorf("session hours = %d, want default 24", loaded.Auth.SessionHours)
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("FLEETDECK_SERVER_URL", "https://override.test")
	t.Setenv("FLEETDECK_AUTH_MODE", "session")
	t.Setenv("FLEETDECK_SESSION_HOURS", "8")
	t.Setenv("FLEETDECK_CACHE", "false")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Server.BaseURL != "https://override.test" {
		t.Errorf("base URL = %q", cfg.Server.BaseURL)
	}
	if cfg.Auth.Mode != "session" {
		t.Errorf("auth mode = %q", cfg.Auth.Mode)
	}
	if cfg.Auth.SessionHours != 8 {
		t.Errorf("session hours = %d", cfg.Auth.SessionHours)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by FLEETDECK_CACHE=false")
	}
}

// =============================================================================
// DOT NOTATION GET/SET
// =============================================================================

func TestGetSet_DotNotation(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("ui.theme", "light"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := cfg.Get("ui.theme")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "light" {
		t.Errorf("ui.theme = %v, want light", got)
	}

	if err := cfg.Set("server.timeout_secs", "45"); err != nil {
		t.Fatalf("Set int from string failed: %v", err)
	}
	if cfg.Server.TimeoutSecs != 45 {
		t.Errorf("timeout = %d, want 45", cfg.Server.TimeoutSecs)
	}

	if _, err := cfg.Get("no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

// =============================================================================
// GLOBAL SINGLETON
// =============================================================================

// TestConfig_ConcurrentAccess verifies Global/SetGlobal are race-free.
// Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()
	SetGlobal(Default())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if cfg := Global(); cfg == nil {
				t.Error("Global returned nil")
			}
		}()
	}
	wg.Wait()
}
