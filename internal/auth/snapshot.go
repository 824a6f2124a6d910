// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import "github.com/jeranaias/fleetdeck/internal/model"

// =============================================================================
// SESSION STATE
// =============================================================================

// State represents the Manager's position in the session lifecycle.
type State int

const (
	// StateVerifying is the initial state while the startup check runs.
	StateVerifying State = iota

	// StateAuthenticated indicates a session believed valid.
	StateAuthenticated

	// StateUnauthenticated indicates no session; the entry point renders.
	StateUnauthenticated
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateVerifying:
		return "VERIFYING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is the externally observed session state. Consumers receive
// committed copies; only the Manager writes these fields.
//
// Invariants: IsAuthenticated implies User is present. Loading is true only
// during the initial check and implies !IsAuthenticated with User absent,
// so stale identity never flashes before verification completes.
type Snapshot struct {
	User            *model.Profile
	IsAuthenticated bool
	Loading         bool
}

// clone returns a copy whose User pointer does not alias the original.
func (s Snapshot) clone() Snapshot {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}
