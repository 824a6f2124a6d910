// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements session lifecycle management for fleetdeck.
//
// The Manager is the single owner of session state. It exposes a Snapshot
// of {User, IsAuthenticated, Loading} that the UI reads, and three
// operations that mutate it: CheckAuth (once at startup), Login, and
// Logout. Two event sources can additionally force a logout: the session
// Clock firing at the credential's expiry instant, and an unauthorized
// notice from the transport layer (server-side revocation).
//
// # Deployment modes
//
// In bearer mode the client holds an opaque token with an expiry and the
// Manager owns validity decisions; credentials survive restarts via the
// CredentialStore. In server-session mode the server holds the session
// artifact and the Manager's only sources of truth are the identity probe
// and unauthorized notices. A deployment picks exactly one mode at
// composition time.
//
// # Concurrency
//
// All snapshot mutation is serialized behind the Manager's mutex. Network
// completions are gated on a session generation counter so that a late
// response arriving after a logout cannot resurrect the old session, and
// every forced-logout transition is idempotent: the second of two racing
// expiry/revocation signals is a no-op.
package auth
