// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// DeviceStatus describes the last reported state of a device.
type DeviceStatus string

const (
	// StatusOnline means the device checked in recently.
	StatusOnline DeviceStatus = "online"

	// StatusOffline means the device missed its check-in window.
	StatusOffline DeviceStatus = "offline"

	// StatusDegraded means the device is reachable but reporting faults.
	StatusDegraded DeviceStatus = "degraded"

	// StatusUnknown means no status has been reported yet.
	StatusUnknown DeviceStatus = "unknown"
)

// String returns the status name for display.
func (s DeviceStatus) String() string {
	if s == "" {
		return string(StatusUnknown)
	}
	return string(s)
}

// Site is a physical or logical location that groups devices.
type Site struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Region      string    `json:"region"`
	DeviceCount int       `json:"device_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Device is a managed unit belonging to a site.
type Device struct {
	ID       string       `json:"id"`
	SiteID   string       `json:"site_id"`
	Name     string       `json:"name"`
	Kind     string       `json:"kind"`
	Status   DeviceStatus `json:"status"`
	LastSeen time.Time    `json:"last_seen"`
}
