// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the core data types shared across fleetdeck.
package model

// Role is the coarse access level attached to a profile.
type Role string

const (
	// RoleAdmin can manage sites, devices, and users.
	RoleAdmin Role = "admin"

	// RoleOperator can act on devices but not manage users.
	RoleOperator Role = "operator"

	// RoleViewer has read-only access.
	RoleViewer Role = "viewer"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleViewer:
		return true
	}
	return false
}

// String returns the role name, or "unknown" for unrecognized values.
func (r Role) String() string {
	if !r.Valid() {
		if r == "" {
			return "none"
		}
		return "unknown"
	}
	return string(r)
}

// Profile is the identity record for the signed-in user.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role,omitempty"`
}

// DisplayName returns the best human-readable name for the profile.
func (p Profile) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.Email
}
