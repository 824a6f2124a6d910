// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// login.go - Sign-in and sign-out commands.
//
// Command: login
// Short:   Sign in and store the session
//
// Examples:
//   fleetdeck login                    Prompt for email and password
//   fleetdeck login --email a@b.com    Skip the email prompt
//
// Command: logout
// Short:   Sign out and clear the stored session
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/fleetdeck/internal/auth"
)

const loginTimeout = 60 * time.Second

// RunLogin handles the login command. Returns an exit code.
func RunLogin(rt *Runtime, args Args) int {
	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	rt.Manager.CheckAuth(ctx)
	if snap := rt.Manager.Snapshot(); snap.IsAuthenticated && snap.User != nil {
		fmt.Printf("Already signed in as %s. Run 'fleetdeck logout' first to switch accounts.\n",
			snap.User.Username)
		return 0
	}

	if !IsTTY() && args.Email == "" {
		fmt.Println(errStyle.Render("login requires a terminal (or --email with piped password input)"))
		return 1
	}

	email := args.Email
	if email == "" {
		e, err := promptEmail()
		if err != nil {
			if errors.Is(err, ErrPromptAborted) {
				return 130
			}
			fmt.Println(errStyle.Render(err.Error()))
			return 1
		}
		email = e
	}

	password, err := promptPassword()
	if err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		return 1
	}

	res := rt.Manager.Login(ctx, auth.Credentials{Email: email, Password: password})
	if !res.OK {
		fmt.Println(errStyle.Render(res.Message))
		return 1
	}

	fmt.Println(okStyle.Render("Signed in as " + res.Profile.Username))
	return 0
}

// RunLogout handles the logout command. Returns an exit code.
func RunLogout(rt *Runtime, args Args) int {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rt.Manager.CheckAuth(ctx)
	wasAuthed := rt.Manager.Snapshot().IsAuthenticated

	rt.Manager.Logout(ctx)

	// Stored inventory belongs to the signed-out account.
	if rt.Cache != nil {
		if err := rt.Cache.Clear(ctx); err != nil {
			fmt.Println(warnStyle.Render("cache clear failed: " + err.Error()))
		}
	}

	if wasAuthed {
		fmt.Println(okStyle.Render("Signed out."))
	} else {
		fmt.Println("No active session.")
	}
	return 0
}
