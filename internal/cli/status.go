// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for fleetdeck.
//
// Command: status
// Short:   Display session and server status
// Aliases: s, info
//
// Examples:
//   fleetdeck status              Show status
//   fleetdeck status --json       Status in JSON format
//
// Status Sections:
//   Session:   Signed-in user, role, auth mode, expiry
//   Server:    Base URL, timeout, retry budget
//   Cache:     Enabled, path, freshness window
package cli

import (
	"context"
	"fmt"
	"time"
)

// statusData is the JSON payload for the status command.
type statusData struct {
	SignedIn  bool   `json:"signed_in"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	AuthMode  string `json:"auth_mode"`
	ExpiresAt string `json:"expires_at,omitempty"`
	ServerURL string `json:"server_url"`
	CacheOn   bool   `json:"cache_enabled"`
	CachePath string `json:"cache_path,omitempty"`
}

// RunStatus handles the status command. Returns an exit code.
func RunStatus(rt *Runtime, args Args) int {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rt.Manager.CheckAuth(ctx)
	snap := rt.Manager.Snapshot()

	data := statusData{
		SignedIn:  snap.IsAuthenticated,
		AuthMode:  rt.Cfg.Auth.Mode,
		ServerURL: rt.Cfg.Server.BaseURL,
		CacheOn:   rt.Cache != nil,
		CachePath: rt.Cfg.Cache.Path,
	}
	if snap.User != nil {
		data.Username = snap.User.Username
		data.Role = string(snap.User.Role)
	}
	if cred, err := rt.Store.Load(); err == nil && cred != nil {
		data.ExpiresAt = cred.ExpiresAt.Format(time.RFC3339)
	}

	if args.JSON {
		NewJSONResponse("status", data).Print()
		return 0
	}

	fmt.Println(titleStyle.Render("fleetdeck status"))
	fmt.Println()

	if data.SignedIn {
		fmt.Println(field("Session", okStyle.Render("signed in")))
		fmt.Println(field("User", data.Username))
		if data.Role != "" {
			fmt.Println(field("Role", data.Role))
		}
		if data.ExpiresAt != "" {
			fmt.Println(field("Expires", data.ExpiresAt))
		}
	} else {
		fmt.Println(field("Session", warnStyle.Render("not signed in")))
	}
	fmt.Println(field("Auth mode", data.AuthMode))
	fmt.Println()
	fmt.Println(field("Server", data.ServerURL))
	fmt.Println(field("Timeout", fmt.Sprintf("%ds", rt.Cfg.Server.TimeoutSecs)))
	fmt.Println(field("Retries", fmt.Sprintf("%d", rt.Cfg.Server.MaxRetries)))
	fmt.Println()
	if data.CacheOn {
		fmt.Println(field("Cache", okStyle.Render("enabled")))
		fmt.Println(field("Cache TTL", fmt.Sprintf("%dh", rt.Cfg.Cache.TTLHours)))
	} else {
		fmt.Println(field("Cache", "disabled"))
	}

	return 0
}
