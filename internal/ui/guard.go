// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides the fleetdeck dashboard TUI: a Bubble Tea application
// that routes between the loading, login, and inventory screens based on
// the committed session snapshot.
package ui

import (
	"github.com/jeranaias/fleetdeck/internal/auth"
)

// =============================================================================
// SCREENS AND ROUTE GUARD
// =============================================================================

// Screen identifies a top-level view of the dashboard.
type Screen int

const (
	// ScreenLoading renders while the startup session check runs.
	ScreenLoading Screen = iota

	// ScreenLogin is the sign-in form.
	ScreenLogin

	// ScreenSites is the site list, the post-login landing screen.
	ScreenSites

	// ScreenDevices is the device list for a selected site.
	ScreenDevices

	// ScreenHelp is the keyboard reference.
	ScreenHelp
)

// String returns the display name of a screen.
func (s Screen) String() string {
	switch s {
	case ScreenLoading:
		return "loading"
	case ScreenLogin:
		return "login"
	case ScreenSites:
		return "sites"
	case ScreenDevices:
		return "devices"
	case ScreenHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Route decides which screen actually renders. It is a pure function of the
// session snapshot and the requested screen, so access control cannot drift
// out of sync with session state:
//
//   - while the startup check runs, only the loading screen renders
//   - without a session, only the login screen renders
//   - with a session, the requested screen renders; requests for the
//     loading or login screens land on the site list instead
func Route(snap auth.Snapshot, requested Screen) Screen {
	if snap.Loading {
		return ScreenLoading
	}
	if !snap.IsAuthenticated {
		return ScreenLogin
	}
	if requested == ScreenLoading || requested == ScreenLogin {
		return ScreenSites
	}
	return requested
}
