// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Non-blocking toast notifications. Toasts render in a corner stack and
// auto-dismiss, so a session notice ("session expired") never traps the
// user behind a modal while they are being returned to the login screen.
package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fleetdeck/internal/ui/styles"
	"github.com/jeranaias/fleetdeck/internal/util"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind classifies a toast notification.
type ToastKind int

const (
	// ToastKindStatus is an informational toast.
	ToastKindStatus ToastKind = iota
	// ToastKindError is an error toast.
	ToastKindError
	// ToastKindWarning is a warning toast.
	ToastKindWarning
	// ToastKindSuccess is a success toast.
	ToastKindSuccess
)

// DefaultToastDuration is the auto-dismiss duration for status toasts.
const DefaultToastDuration = 4 * time.Second

// ErrorToastDuration is the auto-dismiss duration for error toasts.
// Longer than status toasts so the message can actually be read.
const ErrorToastDuration = 8 * time.Second

// Toast is a single notification.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true once the toast should be dismissed.
func (t *Toast) IsExpired() bool {
	return time.Since(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager holds the visible toast stack. It is safe for concurrent use
// because session notices arrive from the session manager's goroutines while
// the render loop reads the stack.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	nextID    int
	maxToasts int
}

// NewToastManager creates an empty toast manager.
func NewToastManager() *ToastManager {
	return &ToastManager{
		nextID:    1,
		maxToasts: 5,
	}
}

// AddError pushes an error toast and returns its ID.
func (m *ToastManager) AddError(message string) int {
	return m.add(message, ToastKindError, ErrorToastDuration)
}

// AddWarning pushes a warning toast and returns its ID.
func (m *ToastManager) AddWarning(message string) int {
	return m.add(message, ToastKindWarning, 6*time.Second)
}

// AddStatus pushes an informational toast and returns its ID.
func (m *ToastManager) AddStatus(message string) int {
	return m.add(message, ToastKindStatus, DefaultToastDuration)
}

// AddSuccess pushes a success toast and returns its ID.
func (m *ToastManager) AddSuccess(message string) int {
	return m.add(message, ToastKindSuccess, DefaultToastDuration)
}

func (m *ToastManager) add(message string, kind ToastKind, d time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	m.toasts = append(m.toasts, Toast{
		ID:        id,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
		Duration:  d,
	})

	// Oldest toast falls off when the stack is full.
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[len(m.toasts)-m.maxToasts:]
	}

	return id
}

// Dismiss removes a toast by ID. Unknown IDs are ignored.
func (m *ToastManager) Dismiss(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissAll clears the toast stack.
func (m *ToastManager) DismissAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = nil
}

// Prune drops expired toasts and reports whether any remain.
func (m *ToastManager) Prune() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.IsExpired() {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
	return len(m.toasts) > 0
}

// Count returns the number of visible toasts.
func (m *ToastManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts)
}

// Toasts returns a copy of the visible toast stack, oldest first.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// ToastTickMsg drives expiry pruning while any toast is visible.
type ToastTickMsg struct {
	Time time.Time
}

// TickToasts returns a command that emits ToastTickMsg twice a second.
func TickToasts() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// View renders the toast stack, one toast per line, oldest first.
func (m *ToastManager) View(theme *styles.Theme) string {
	toasts := m.Toasts()
	if len(toasts) == 0 {
		return ""
	}

	lines := make([]string, 0, len(toasts))
	for _, t := range toasts {
		lines = append(lines, renderToast(theme, t))
	}
	return strings.Join(lines, "\n")
}

func renderToast(theme *styles.Theme, t Toast) string {
	var style lipgloss.Style
	var prefix string

	switch t.Kind {
	case ToastKindError:
		style = theme.ToastError
		prefix = "[!]"
	case ToastKindWarning:
		style = theme.WarningStyle
		prefix = "[!]"
	case ToastKindSuccess:
		style = theme.SuccessStyle
		prefix = "[+]"
	default:
		style = theme.ToastInfo
		prefix = "[i]"
	}

	// Errors can carry multi-line detail; a toast shows only the headline.
	return style.Render(prefix + " " + util.FirstLine(t.Message))
}
