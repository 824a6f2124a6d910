// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// RENDERING
// =============================================================================

// View renders the routed screen with the header above and the status bar
// below.
func (a *App) View() string {
	var body string

	switch Route(a.snap, a.requested) {
	case ScreenLoading:
		body = a.viewLoading()
	case ScreenLogin:
		body = a.viewLogin()
	case ScreenSites:
		body = a.viewSites()
	case ScreenDevices:
		body = a.viewDevices()
	case ScreenHelp:
		body = a.viewHelp()
	}

	sections := []string{a.viewHeader(), body}
	if toasts := a.toasts.View(a.theme); toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections, a.statusBar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) viewHeader() string {
	title := a.theme.HeaderTitle.Render("fleetdeck")

	var subtitle string
	switch Route(a.snap, a.requested) {
	case ScreenDevices:
		subtitle = a.theme.HeaderSubtitle.Render(a.selectedSite.Name)
	case ScreenSites:
		subtitle = a.theme.HeaderSubtitle.Render("sites")
	case ScreenHelp:
		subtitle = a.theme.HeaderSubtitle.Render("help")
	}

	if subtitle == "" {
		return a.theme.Header.Width(a.width).Render(title)
	}
	return a.theme.Header.Width(a.width).Render(title + "  " + subtitle)
}

func (a *App) viewLoading() string {
	content := a.spinner.View()
	if content == "" {
		content = a.theme.LoadingText.Render("Checking session...")
	}
	return lipgloss.Place(a.width, a.contentHeight(), lipgloss.Center, lipgloss.Center, content)
}

func (a *App) viewLogin() string {
	return lipgloss.Place(a.width, a.contentHeight(), lipgloss.Center, lipgloss.Center, a.loginForm.View())
}

func (a *App) viewSites() string {
	if a.spinner.IsActive() {
		return a.withFooter(a.sitesTable.View(), a.spinner.View())
	}
	if len(a.sites) == 0 {
		empty := a.theme.LoadingText.Render("No sites yet. Press r to refresh.")
		return a.withFooter(a.sitesTable.View(), empty)
	}
	return a.theme.Container.Render(a.sitesTable.View())
}

func (a *App) viewDevices() string {
	if a.spinner.IsActive() {
		return a.withFooter(a.devicesTable.View(), a.spinner.View())
	}
	if len(a.devices) == 0 {
		empty := a.theme.LoadingText.Render("No devices at this site. Press esc to go back.")
		return a.withFooter(a.devicesTable.View(), empty)
	}
	return a.theme.Container.Render(a.devicesTable.View())
}

func (a *App) withFooter(main, footer string) string {
	return a.theme.Container.Render(main + "\n" + footer)
}

func (a *App) contentHeight() int {
	h := a.height - 4
	if h < 4 {
		h = 4
	}
	return h
}

// =============================================================================
// HELP SCREEN
// =============================================================================

const helpMarkdown = `# fleetdeck

A terminal dashboard for your device fleet.

## Navigation

| Key | Action |
|-----|--------|
| up/k, down/j | move selection |
| enter | open selected site |
| esc | back to sites |
| r | refresh the current list |
| ? | toggle this help |
| C-o | sign out |
| q | quit (session is kept) |

## Sessions

Signing in stores a session on this machine; the dashboard restores it on
the next start. Quitting keeps the session; signing out ends it. When the
session expires or is revoked by the server, the dashboard returns to the
sign-in screen on its own.

## Offline

When the server is unreachable, the last fetched inventory is shown from
the local cache and the status bar reads "cached".
`

// viewHelp renders the help markdown, caching the result until a resize.
func (a *App) viewHelp() string {
	if a.helpCache != "" {
		return a.helpCache
	}

	wrap := a.width - 4
	if wrap > 80 {
		wrap = 80
	}
	if wrap < 20 {
		wrap = 20
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		a.helpCache = helpMarkdown
		return a.helpCache
	}

	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		out = helpMarkdown
	}
	a.helpCache = strings.TrimRight(out, "\n")
	return a.helpCache
}
