// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fleetdeck/internal/ui/styles"
)

// =============================================================================
// LOGIN FORM COMPONENT
// =============================================================================

// loginField identifies which part of the form has focus.
type loginField int

const (
	fieldEmail loginField = iota
	fieldPassword
	fieldSubmit
)

// LoginForm is the sign-in form: email and password inputs plus a submit
// control. Tab and shift+tab cycle focus; enter on the submit control (or
// on the password field) submits.
type LoginForm struct {
	email    textinput.Model
	password textinput.Model

	focus      loginField
	errMsg     string
	submitting bool
	width      int
	theme      *styles.Theme
}

// SubmitMsg is emitted when the user submits the form.
type SubmitMsg struct {
	Email    string
	Password string
}

// NewLoginForm creates a login form with the email field focused.
func NewLoginForm(theme *styles.Theme) *LoginForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 40
	email.Prompt = "> "

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 256
	password.Width = 40
	password.Prompt = "> "
	// SECURITY: never echo the password.
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	email.Focus()

	return &LoginForm{
		email:    email,
		password: password,
		focus:    fieldEmail,
		width:    60,
		theme:    theme,
	}
}

// SetWidth sets the render width.
func (f *LoginForm) SetWidth(width int) {
	f.width = width
	inputWidth := width - 16
	if inputWidth < 20 {
		inputWidth = 20
	}
	f.email.Width = inputWidth
	f.password.Width = inputWidth
}

// SetError displays a failure message under the form and re-enables input.
func (f *LoginForm) SetError(msg string) {
	f.errMsg = msg
	f.submitting = false
}

// SetSubmitting marks the form as waiting on the server. Input is ignored
// until SetError or Reset is called.
func (f *LoginForm) SetSubmitting(submitting bool) {
	f.submitting = submitting
	if submitting {
		f.errMsg = ""
	}
}

// Submitting reports whether a sign-in round trip is in flight.
func (f *LoginForm) Submitting() bool {
	return f.submitting
}

// Reset clears both fields, the error message, and returns focus to email.
func (f *LoginForm) Reset() {
	f.email.Reset()
	f.password.Reset()
	f.errMsg = ""
	f.submitting = false
	f.setFocus(fieldEmail)
}

// Email returns the current email value.
func (f *LoginForm) Email() string {
	return strings.TrimSpace(f.email.Value())
}

// =============================================================================
// FOCUS MANAGEMENT
// =============================================================================

func (f *LoginForm) setFocus(field loginField) {
	f.focus = field
	f.email.Blur()
	f.password.Blur()

	switch field {
	case fieldEmail:
		f.email.Focus()
	case fieldPassword:
		f.password.Focus()
	}
}

func (f *LoginForm) cycleFocus(backward bool) {
	next := f.focus + 1
	if backward {
		next = f.focus - 1
	}
	if next > fieldSubmit {
		next = fieldEmail
	}
	if next < fieldEmail {
		next = fieldSubmit
	}
	f.setFocus(next)
}

// canSubmit reports whether both fields are non-empty.
func (f *LoginForm) canSubmit() bool {
	return f.Email() != "" && f.password.Value() != ""
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Update handles key input for the form.
func (f *LoginForm) Update(msg tea.Msg) (*LoginForm, tea.Cmd) {
	if f.submitting {
		return f, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.cycleFocus(false)
			return f, nil
		case "shift+tab", "up":
			f.cycleFocus(true)
			return f, nil
		case "enter":
			if f.focus == fieldEmail {
				f.cycleFocus(false)
				return f, nil
			}
			if f.canSubmit() {
				return f, f.submit()
			}
			f.errMsg = "Email and password are required."
			return f, nil
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldEmail:
		f.email, cmd = f.email.Update(msg)
	case fieldPassword:
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}

func (f *LoginForm) submit() tea.Cmd {
	f.submitting = true
	f.errMsg = ""
	email := f.Email()
	password := f.password.Value()
	return func() tea.Msg {
		return SubmitMsg{Email: email, Password: password}
	}
}

// View renders the login form.
func (f *LoginForm) View() string {
	var b strings.Builder

	b.WriteString(f.theme.FormTitle.Render("Sign in to fleetdeck"))
	b.WriteString("\n\n")

	b.WriteString(f.theme.FormLabel.Render("Email"))
	b.WriteString("\n")
	b.WriteString(f.inputView(fieldEmail, f.email.View()))
	b.WriteString("\n\n")

	b.WriteString(f.theme.FormLabel.Render("Password"))
	b.WriteString("\n")
	b.WriteString(f.inputView(fieldPassword, f.password.View()))
	b.WriteString("\n\n")

	submit := "[ Sign in ]"
	if f.submitting {
		submit = "[ Signing in... ]"
	}
	if f.focus == fieldSubmit && !f.submitting {
		b.WriteString(f.theme.SubmitActive.Render(submit))
	} else {
		b.WriteString(f.theme.SubmitInactive.Render(submit))
	}

	if f.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(f.theme.FormError.Render(f.errMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(f.theme.FormHint.Render("tab: next field  enter: submit"))

	return f.theme.FormBox.Render(b.String())
}

func (f *LoginForm) inputView(field loginField, view string) string {
	if f.focus == field {
		return f.theme.InputFocused.Render(view)
	}
	return f.theme.InputBlurred.Render(view)
}
