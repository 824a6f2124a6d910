// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"
)

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

func TestParseArgs_DefaultIsTUI(t *testing.T) {
	cmd, _ := ParseArgs(nil)
	if cmd != CmdTUI {
		t.Errorf("ParseArgs(nil) = %v, want CmdTUI", cmd)
	}
}

func TestParseArgs_Commands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{[]string{"login"}, CmdLogin},
		{[]string{"logout"}, CmdLogout},
		{[]string{"status"}, CmdStatus},
		{[]string{"s"}, CmdStatus},
		{[]string{"info"}, CmdStatus},
		{[]string{"sites"}, CmdSites},
		{[]string{"devices", "site-1"}, CmdDevices},
		{[]string{"config", "show"}, CmdConfig},
		{[]string{"version"}, CmdVersion},
		{[]string{"-V"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
		{[]string{"--help"}, CmdHelp},
		{[]string{"bogus"}, CmdHelp},
	}

	for _, tt := range tests {
		cmd, _ := ParseArgs(tt.argv)
		if cmd != tt.want {
			t.Errorf("ParseArgs(%v) = %v, want %v", tt.argv, cmd, tt.want)
		}
	}
}

func TestParseArgs_DevicesCapturesSiteID(t *testing.T) {
	cmd, args := ParseArgs([]string{"devices", "site-42", "--json"})
	if cmd != CmdDevices {
		t.Fatalf("cmd = %v", cmd)
	}
	if args.SiteID != "site-42" {
		t.Errorf("SiteID = %q, want site-42", args.SiteID)
	}
	if !args.JSON {
		t.Error("JSON flag not parsed")
	}
}

func TestParseArgs_DeviceActionFlags(t *testing.T) {
	_, args := ParseArgs([]string{"devices", "site-42", "--device", "d-7", "--action=restart"})
	if args.DeviceID != "d-7" {
		t.Errorf("DeviceID = %q", args.DeviceID)
	}
	if args.Action != "restart" {
		t.Errorf("Action = %q", args.Action)
	}
}

func TestParseArgs_ConfigSetJoinsValue(t *testing.T) {
	_, args := ParseArgs([]string{"config", "set", "server.base_url", "https://fleet.internal"})
	if args.Subcommand != "set" {
		t.Errorf("Subcommand = %q", args.Subcommand)
	}
	if args.ConfigKey != "server.base_url" {
		t.Errorf("ConfigKey = %q", args.ConfigKey)
	}
	if args.ConfigVal != "https://fleet.internal" {
		t.Errorf("ConfigVal = %q", args.ConfigVal)
	}
}

func TestParseArgs_LoginEmailFormats(t *testing.T) {
	_, args := ParseArgs([]string{"login", "--email", "a@b.com"})
	if args.Email != "a@b.com" {
		t.Errorf("Email = %q (space form)", args.Email)
	}

	_, args = ParseArgs([]string{"login", "--email=c@d.com"})
	if args.Email != "c@d.com" {
		t.Errorf("Email = %q (equals form)", args.Email)
	}
}

// =============================================================================
// CELL PADDING
// =============================================================================

func TestPadCell_PadsAndTruncates(t *testing.T) {
	if got := padCell("ab", 5); got != "ab   " {
		t.Errorf("padCell(ab, 5) = %q", got)
	}
	if got := padCell("abcdefgh", 5); got != "ab..." {
		t.Errorf("padCell(abcdefgh, 5) = %q", got)
	}
}

func TestPadCell_WideRunes(t *testing.T) {
	// Two double-width runes occupy four cells.
	got := padCell("日本", 6)
	if got != "日本  " {
		t.Errorf("padCell(日本, 6) = %q", got)
	}
}
