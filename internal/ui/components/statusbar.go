// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fleetdeck/internal/ui/styles"
	"github.com/jeranaias/fleetdeck/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Connection describes the data path the dashboard is currently serving from.
type Connection int

const (
	// ConnLive means the last inventory fetch came from the server.
	ConnLive Connection = iota
	// ConnCached means the server was unreachable and cached data is shown.
	ConnCached
	// ConnOffline means the server is unreachable and no cache exists.
	ConnOffline
)

// String returns the display label for a connection state.
func (c Connection) String() string {
	switch c {
	case ConnLive:
		return "live"
	case ConnCached:
		return "cached"
	case ConnOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// StatusBar renders the persistent bottom bar: signed-in identity on the
// left, connection state and shortcut hints on the right. It adapts its
// layout to the terminal width.
type StatusBar struct {
	width int
	theme *styles.Theme

	username   string
	role       string
	connection Connection
	hints      []Hint
}

// Hint is a single key binding shown in the status bar.
type Hint struct {
	Key  string
	Desc string
}

// NewStatusBar creates a status bar with no signed-in identity.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		width:      80,
		theme:      theme,
		connection: ConnLive,
	}
}

// SetWidth sets the render width.
func (b *StatusBar) SetWidth(width int) {
	b.width = width
}

// SetIdentity sets the signed-in username and role. Empty strings clear the
// identity (signed out).
func (b *StatusBar) SetIdentity(username, role string) {
	b.username = username
	b.role = role
}

// SetConnection sets the connection state indicator.
func (b *StatusBar) SetConnection(c Connection) {
	b.connection = c
}

// SetHints replaces the shortcut hints shown on the right side.
func (b *StatusBar) SetHints(hints []Hint) {
	b.hints = hints
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the status bar at the configured width.
func (b *StatusBar) View() string {
	switch {
	case b.width < 50:
		return b.viewNarrow()
	case b.width < 100:
		return b.viewMedium()
	default:
		return b.viewWide()
	}
}

// viewNarrow renders identity only.
func (b *StatusBar) viewNarrow() string {
	return b.theme.StatusBar.Width(b.width).Render(b.identityView())
}

// viewMedium renders identity plus connection state.
func (b *StatusBar) viewMedium() string {
	left := b.identityView()
	right := b.connectionView()
	return b.joinEnds(left, right)
}

// viewWide renders identity, connection state, and shortcut hints.
func (b *StatusBar) viewWide() string {
	left := b.identityView() + " " + b.connectionView()
	right := b.hintsView()
	return b.joinEnds(left, right)
}

func (b *StatusBar) identityView() string {
	if b.username == "" {
		return b.theme.SessionHint.Render("not signed in")
	}
	// Long usernames must not push the right side off-screen.
	maxUser := b.width / 3
	if maxUser < 12 {
		maxUser = 12
	}
	out := b.theme.UserBadge.Render(util.Truncate(b.username, maxUser))
	if b.role != "" {
		out += " " + b.theme.RoleBadge.Render(b.role)
	}
	return out
}

func (b *StatusBar) connectionView() string {
	label := b.connection.String()
	switch b.connection {
	case ConnLive:
		return b.theme.SuccessStyle.Render(label)
	case ConnCached:
		return b.theme.StaleBadge.Render(label)
	default:
		return b.theme.ErrorStyle.Render(label)
	}
}

func (b *StatusBar) hintsView() string {
	parts := make([]string, 0, len(b.hints))
	for _, h := range b.hints {
		parts = append(parts, b.theme.ShortcutKey.Render(h.Key)+" "+b.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// joinEnds places left and right content at opposite ends of the bar,
// padding the middle with spaces.
func (b *StatusBar) joinEnds(left, right string) string {
	leftW := lipgloss.Width(left)
	rightW := lipgloss.Width(right)

	gap := b.width - leftW - rightW - 2
	if gap < 1 {
		// PERFORMANCE: drop the right side rather than wrap the bar.
		return b.theme.StatusBar.Width(b.width).Render(left)
	}

	return b.theme.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}
