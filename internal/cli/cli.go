// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for fleetdeck.
package cli

import (
	"fmt"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota // Default: launch the dashboard
	CmdLogin
	CmdLogout
	CmdStatus
	CmdSites
	CmdDevices
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON    bool // Output in JSON format
	Verbose bool

	// Command-specific
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	SiteID     string
	DeviceID   string
	Action     string
	Email      string

	// Raw args remaining after flag parsing
	Raw []string
}

const usageText = `fleetdeck - terminal dashboard for your device fleet

Fleetdeck signs in to your fleet server, remembers the session across
restarts, and shows sites and devices in a terminal UI. The same binary
doubles as a scriptable CLI.

Usage:
  fleetdeck                        Start the dashboard (default)
  fleetdeck login                  Sign in and store the session
    --email ADDR                   Skip the email prompt
  fleetdeck logout                 Sign out and clear the session
  fleetdeck status, s              Show session and server status
    --json                         Output in JSON format
  fleetdeck sites                  List sites
    --json                         Output in JSON format
  fleetdeck devices <site-id>      List devices at a site
    --json                         Output in JSON format
    --device ID --action ACTION    Send an action to a device
  fleetdeck config [show|get|set]  Configuration
    fleetdeck config show          Show the full configuration
    fleetdeck config get KEY       Get one value (dot notation)
    fleetdeck config set KEY VAL   Set one value and save
  fleetdeck version                Show version information
  fleetdeck help                   Show this help

Environment:
  FLEETDECK_SERVER_URL             Override server.base_url
  FLEETDECK_AUTH_MODE              Override auth.mode (bearer|session)
  FLEETDECK_THEME                  Override ui.theme (dark|light|auto)
  NO_COLOR                         Disable colored output

Configuration file:
  ~/.fleetdeck/config.toml         (config.json also accepted)
`

// ParseArgs parses os.Args[1:] into a command and its arguments.
func ParseArgs(argv []string) (Command, Args) {
	args := Args{}

	var positional []string
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--json":
			args.JSON = true
		case arg == "--verbose" || arg == "-v":
			args.Verbose = true
		case arg == "--email" && i+1 < len(argv):
			i++
			args.Email = argv[i]
		case strings.HasPrefix(arg, "--email="):
			args.Email = strings.TrimPrefix(arg, "--email=")
		case arg == "--device" && i+1 < len(argv):
			i++
			args.DeviceID = argv[i]
		case strings.HasPrefix(arg, "--device="):
			args.DeviceID = strings.TrimPrefix(arg, "--device=")
		case arg == "--action" && i+1 < len(argv):
			i++
			args.Action = argv[i]
		case strings.HasPrefix(arg, "--action="):
			args.Action = strings.TrimPrefix(arg, "--action=")
		default:
			positional = append(positional, arg)
		}
	}
	args.Raw = positional

	if len(positional) == 0 {
		return CmdTUI, args
	}

	cmd := positional[0]
	rest := positional[1:]

	switch cmd {
	case "login":
		return CmdLogin, args
	case "logout":
		return CmdLogout, args
	case "status", "s", "info":
		return CmdStatus, args
	case "sites":
		return CmdSites, args
	case "devices":
		if len(rest) > 0 {
			args.SiteID = rest[0]
		}
		return CmdDevices, args
	case "config":
		if len(rest) > 0 {
			args.Subcommand = rest[0]
		}
		if len(rest) > 1 {
			args.ConfigKey = rest[1]
		}
		if len(rest) > 2 {
			args.ConfigVal = strings.Join(rest[2:], " ")
		}
		return CmdConfig, args
	case "version", "--version", "-V":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		fmt.Printf("Unknown command: %s\n\n", cmd)
		return CmdHelp, args
	}
}

// PrintUsage prints the top-level usage text.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion prints version and build information.
func PrintVersion() {
	fmt.Printf("fleetdeck %s\n", Version)
	fmt.Printf("  commit:  %s\n", GitCommit)
	fmt.Printf("  built:   %s\n", BuildDate)
	fmt.Printf("  runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
