// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/fleetdeck/internal/model"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	UserBadge    lipgloss.Style
	RoleBadge    lipgloss.Style
	SessionHint  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// SIGN-IN FORM STYLES
	// ==========================================================================

	FormBox        lipgloss.Style
	FormTitle      lipgloss.Style
	FormLabel      lipgloss.Style
	FormError      lipgloss.Style
	FormHint       lipgloss.Style
	InputFocused   lipgloss.Style
	InputBlurred   lipgloss.Style
	SubmitActive   lipgloss.Style
	SubmitInactive lipgloss.Style

	// ==========================================================================
	// TABLE STYLES
	// ==========================================================================

	TableHeader   lipgloss.Style
	TableSelected lipgloss.Style
	TableCell     lipgloss.Style
	TableBorder   lipgloss.Style

	// ==========================================================================
	// DEVICE STATUS STYLES
	// ==========================================================================

	StatusOnline   lipgloss.Style
	StatusOffline  lipgloss.Style
	StatusDegraded lipgloss.Style
	StatusUnknown  lipgloss.Style

	// ==========================================================================
	// TOAST AND ALERT STYLES
	// ==========================================================================

	ToastError lipgloss.Style
	ToastInfo  lipgloss.Style
	StaleBadge lipgloss.Style

	// ==========================================================================
	// SPINNER AND LOADING STYLES
	// ==========================================================================

	Spinner     lipgloss.Style
	LoadingText lipgloss.Style

	// ==========================================================================
	// ACCESSIBILITY: Status indicator styles with shapes and high contrast
	// ==========================================================================

	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.UserBadge = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.RoleBadge = lipgloss.NewStyle().
		Foreground(Purple)

	t.SessionHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Sign-in form
	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 4)

	t.FormTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)

	t.FormLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.FormError = lipgloss.NewStyle().
		Foreground(ErrorHighContrast).
		Bold(true)

	t.FormHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.InputFocused = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(FocusRing).
		Padding(0, 1)

	t.InputBlurred = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SubmitActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true).
		Padding(0, 2)

	t.SubmitInactive = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceBright).
		Padding(0, 2)

	// Tables
	t.TableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)

	t.TableSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)

	t.TableCell = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.TableBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)

	// Device status
	t.StatusOnline = lipgloss.NewStyle().
		Foreground(SuccessHighContrast).
		Bold(true)

	t.StatusOffline = lipgloss.NewStyle().
		Foreground(ErrorHighContrast).
		Bold(true)

	t.StatusDegraded = lipgloss.NewStyle().
		Foreground(WarningHighContrast).
		Bold(true)

	t.StatusUnknown = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Toasts
	t.ToastError = lipgloss.NewStyle().
		Foreground(ErrorHighContrast).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 2).
		Bold(true)

	t.ToastInfo = lipgloss.NewStyle().
		Foreground(InfoHighContrast).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 2)

	t.StaleBadge = lipgloss.NewStyle().
		Foreground(WarningHighContrast).
		Italic(true)

	// Spinner
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.LoadingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Accessibility indicator styles
	t.SuccessStyle = lipgloss.NewStyle().Foreground(SuccessHighContrast).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(ErrorHighContrast).Bold(true)
	t.WarningStyle = lipgloss.NewStyle().Foreground(WarningHighContrast).Bold(true)
	t.InfoStyle = lipgloss.NewStyle().Foreground(InfoHighContrast).Bold(true)
}

// DeviceStatusStyle returns the style for a device status value.
// ACCESSIBILITY: Pair with StatusIndicators so state is never color-only.
func (t *Theme) DeviceStatusStyle(status model.DeviceStatus) lipgloss.Style {
	switch status {
	case model.StatusOnline:
		return t.StatusOnline
	case model.StatusOffline:
		return t.StatusOffline
	case model.StatusDegraded:
		return t.StatusDegraded
	default:
		return t.StatusUnknown
	}
}

// DeviceStatusIcon returns the shape indicator for a device status value.
func (t *Theme) DeviceStatusIcon(status model.DeviceStatus) string {
	switch status {
	case model.StatusOnline:
		return StatusIndicators.Active
	case model.StatusOffline:
		return StatusIndicators.Error
	case model.StatusDegraded:
		return StatusIndicators.Warning
	default:
		return StatusIndicators.Pending
	}
}
