// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fleetdeck/internal/auth"
	"github.com/jeranaias/fleetdeck/internal/model"
)

// =============================================================================
// SESSION-TO-UI BRIDGE
// =============================================================================

// SnapshotMsg carries a committed session snapshot into the update loop.
type SnapshotMsg struct {
	Snapshot auth.Snapshot
}

// NavMsg carries a session-end navigation event into the update loop.
type NavMsg struct {
	Reason auth.NavReason
}

// loginResultMsg carries the outcome of a sign-in round trip.
type loginResultMsg struct {
	Result auth.LoginResult
}

// sitesLoadedMsg carries a site list fetch result.
type sitesLoadedMsg struct {
	Sites     []model.Site
	FromCache bool
	Err       error
}

// devicesLoadedMsg carries a device list fetch result.
type devicesLoadedMsg struct {
	SiteID    string
	Devices   []model.Device
	FromCache bool
	Err       error
}

// Bridge forwards session manager callbacks into a running Bubble Tea
// program. The manager fires callbacks from its own goroutines, possibly
// before the program starts; messages sent before Attach are queued and
// flushed on Attach so no transition is lost.
type Bridge struct {
	mu     sync.Mutex
	send   func(tea.Msg)
	queued []tea.Msg
}

// NewBridge creates a detached bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach connects the bridge to a program and flushes queued messages in
// order.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.send = p.Send
	queued := b.queued
	b.queued = nil
	b.mu.Unlock()

	for _, msg := range queued {
		p.Send(msg)
	}
}

// Send delivers a message to the program, or queues it if the program is
// not attached yet.
func (b *Bridge) Send(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	if send == nil {
		b.queued = append(b.queued, msg)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	send(msg)
}
