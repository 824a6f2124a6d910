// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompt.go - Interactive input for the login command.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ErrPromptAborted is returned when the user cancels a prompt.
var ErrPromptAborted = errors.New("prompt aborted")

// promptEmail reads an email address with line editing.
func promptEmail() (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	input, err := line.Prompt("Email: ")
	if err != nil {
		if err == liner.ErrPromptAborted {
			return "", ErrPromptAborted
		}
		return "", err
	}

	email := strings.TrimSpace(input)
	if email == "" {
		return "", errors.New("email is required")
	}
	return email, nil
}

// promptPassword reads a password without echoing it.
// SECURITY: term.ReadPassword keeps the password off the screen and out of
// shell history.
func promptPassword() (string, error) {
	fmt.Print("Password: ")
	passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(passBytes) == 0 {
		return "", errors.New("password is required")
	}
	return string(passBytes), nil
}
