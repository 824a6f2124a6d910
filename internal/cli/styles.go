// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for CLI output.
package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")) // White

	// headerStyle colors table headers without imposing a width; cells
	// are pre-padded with padCell.
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")) // Green

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Amber

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red
)

// field renders a "Label  value" line.
func field(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

// padCell pads a table cell to the given display width. Width is measured
// in terminal cells, not bytes, so wide runes line up.
func padCell(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return runewidth.Truncate(s, width, "...")
	}
	pad := width - w
	return s + spaces(pad)
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
