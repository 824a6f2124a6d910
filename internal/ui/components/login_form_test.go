// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fleetdeck/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestForm() *LoginForm {
	return NewLoginForm(styles.NewTheme())
}

func typeString(f *LoginForm, s string) *LoginForm {
	for _, r := range s {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return f
}

func pressKey(f *LoginForm, key string) (*LoginForm, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	return f.Update(msg)
}

// =============================================================================
// FOCUS CYCLING
// =============================================================================

func TestLoginForm_TabCyclesFocus(t *testing.T) {
	f := newTestForm()

	if f.focus != fieldEmail {
		t.Fatalf("initial focus = %v, want email", f.focus)
	}

	f, _ = pressKey(f, "tab")
	if f.focus != fieldPassword {
		t.Errorf("after tab focus = %v, want password", f.focus)
	}

	f, _ = pressKey(f, "tab")
	if f.focus != fieldSubmit {
		t.Errorf("after two tabs focus = %v, want submit", f.focus)
	}

	// Wraps around.
	f, _ = pressKey(f, "tab")
	if f.focus != fieldEmail {
		t.Errorf("after three tabs focus = %v, want email", f.focus)
	}
}

func TestLoginForm_ShiftTabCyclesBackward(t *testing.T) {
	f := newTestForm()

	f, _ = pressKey(f, "shift+tab")
	if f.focus != fieldSubmit {
		t.Errorf("after shift+tab focus = %v, want submit", f.focus)
	}
}

func TestLoginForm_EnterOnEmailAdvances(t *testing.T) {
	f := newTestForm()

	f, cmd := pressKey(f, "enter")
	if cmd != nil {
		t.Error("enter on email field should not submit")
	}
	if f.focus != fieldPassword {
		t.Errorf("focus = %v, want password", f.focus)
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestLoginForm_SubmitEmitsCredentials(t *testing.T) {
	f := newTestForm()
	f = typeString(f, "ops@example.com")
	f, _ = pressKey(f, "tab")
	f = typeString(f, "hunter2")

	f, cmd := pressKey(f, "enter")
	if cmd == nil {
		t.Fatal("expected submit command")
	}

	msg, ok := cmd().(SubmitMsg)
	if !ok {
		t.Fatalf("command produced %T, want SubmitMsg", cmd())
	}
	if msg.Email != "ops@example.com" {
		t.Errorf("email = %q", msg.Email)
	}
	if msg.Password != "hunter2" {
		t.Errorf("password = %q", msg.Password)
	}
	if !f.Submitting() {
		t.Error("form should be in submitting state after submit")
	}
}

func TestLoginForm_EmptyFieldsDoNotSubmit(t *testing.T) {
	f := newTestForm()
	f, _ = pressKey(f, "tab") // to password, both empty

	f, cmd := pressKey(f, "enter")
	if cmd != nil {
		t.Error("empty form should not submit")
	}
	if f.errMsg == "" {
		t.Error("expected a validation message")
	}
}

func TestLoginForm_InputIgnoredWhileSubmitting(t *testing.T) {
	f := newTestForm()
	f = typeString(f, "ops@example.com")
	f, _ = pressKey(f, "tab")
	f = typeString(f, "hunter2")
	f, _ = pressKey(f, "enter")

	before := f.Email()
	f = typeString(f, "junk")
	if f.Email() != before {
		t.Error("input should be ignored while submitting")
	}
}

func TestLoginForm_SetErrorReenablesInput(t *testing.T) {
	f := newTestForm()
	f = typeString(f, "ops@example.com")
	f, _ = pressKey(f, "tab")
	f = typeString(f, "wrong")
	f, _ = pressKey(f, "enter")

	f.SetError("Invalid email or password.")
	if f.Submitting() {
		t.Error("SetError should clear the submitting state")
	}
	if !strings.Contains(f.View(), "Invalid email or password.") {
		t.Error("error message should render")
	}
}

// =============================================================================
// RENDERING AND RESET
// =============================================================================

func TestLoginForm_PasswordNotEchoed(t *testing.T) {
	f := newTestForm()
	f, _ = pressKey(f, "tab")
	f = typeString(f, "topsecret")

	if strings.Contains(f.View(), "topsecret") {
		t.Error("password must not appear in the rendered view")
	}
}

func TestLoginForm_ResetClearsEverything(t *testing.T) {
	f := newTestForm()
	f = typeString(f, "ops@example.com")
	f, _ = pressKey(f, "tab")
	f = typeString(f, "hunter2")
	f.SetError("boom")

	f.Reset()

	if f.Email() != "" {
		t.Error("email not cleared")
	}
	if f.password.Value() != "" {
		t.Error("password not cleared")
	}
	if f.errMsg != "" {
		t.Error("error not cleared")
	}
	if f.focus != fieldEmail {
		t.Error("focus should return to email")
	}
}

func TestLoginForm_EmailTrimsWhitespace(t *testing.T) {
	f := newTestForm()
	f = typeString(f, "  ops@example.com  ")
	if f.Email() != "ops@example.com" {
		t.Errorf("Email() = %q, want trimmed", f.Email())
	}
}
