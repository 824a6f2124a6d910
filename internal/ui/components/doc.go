// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the fleetdeck TUI.
//
// Components are self-contained Bubble Tea models (or plain view helpers)
// that the root application composes: the login form, the status bar, the
// loading spinner, and the toast stack used for session notices.
package components
