// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"testing"

	"github.com/jeranaias/fleetdeck/internal/auth"
	"github.com/jeranaias/fleetdeck/internal/model"
)

func TestRoute_LoadingWinsOverEverything(t *testing.T) {
	snap := auth.Snapshot{Loading: true}

	for _, req := range []Screen{ScreenLoading, ScreenLogin, ScreenSites, ScreenDevices, ScreenHelp} {
		if got := Route(snap, req); got != ScreenLoading {
			t.Errorf("Route(loading, %v) = %v, want loading", req, got)
		}
	}
}

func TestRoute_UnauthenticatedAlwaysLandsOnLogin(t *testing.T) {
	snap := auth.Snapshot{}

	for _, req := range []Screen{ScreenLoading, ScreenLogin, ScreenSites, ScreenDevices, ScreenHelp} {
		if got := Route(snap, req); got != ScreenLogin {
			t.Errorf("Route(unauthenticated, %v) = %v, want login", req, got)
		}
	}
}

func TestRoute_AuthenticatedServesRequestedScreen(t *testing.T) {
	snap := auth.Snapshot{
		IsAuthenticated: true,
		User:            &model.Profile{Username: "ops@example.com"},
	}

	for _, req := range []Screen{ScreenSites, ScreenDevices, ScreenHelp} {
		if got := Route(snap, req); got != req {
			t.Errorf("Route(authenticated, %v) = %v, want %v", req, got, req)
		}
	}
}

func TestRoute_AuthenticatedRedirectsEntryScreens(t *testing.T) {
	snap := auth.Snapshot{
		IsAuthenticated: true,
		User:            &model.Profile{Username: "ops@example.com"},
	}

	if got := Route(snap, ScreenLogin); got != ScreenSites {
		t.Errorf("Route(authenticated, login) = %v, want sites", got)
	}
	if got := Route(snap, ScreenLoading); got != ScreenSites {
		t.Errorf("Route(authenticated, loading) = %v, want sites", got)
	}
}

func TestRoute_IsPure(t *testing.T) {
	snap := auth.Snapshot{IsAuthenticated: true, User: &model.Profile{Username: "a"}}

	first := Route(snap, ScreenDevices)
	for i := 0; i < 10; i++ {
		if got := Route(snap, ScreenDevices); got != first {
			t.Fatal("Route must return the same result for the same inputs")
		}
	}
}
