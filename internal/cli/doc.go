// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the fleetdeck command-line interface: argument
// parsing, the one-shot commands (login, logout, status, sites, devices,
// config, version), and the Runtime wiring shared with the TUI.
package cli
