// fleetdeck - a terminal dashboard for your device fleet.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fleetdeck/internal/auth"
	"github.com/jeranaias/fleetdeck/internal/cli"
	"github.com/jeranaias/fleetdeck/internal/config"
	"github.com/jeranaias/fleetdeck/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.ParseArgs(os.Args[1:])

	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion()
		return
	case cli.CmdHelp:
		cli.PrintUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
		cfg = config.Default()
	}
	config.SetGlobal(cfg)

	switch cmd {
	case cli.CmdTUI:
		os.Exit(runTUI(cfg))
	case cli.CmdLogin:
		os.Exit(runCommand(cfg, args, cli.RunLogin))
	case cli.CmdLogout:
		os.Exit(runCommand(cfg, args, cli.RunLogout))
	case cli.CmdStatus:
		os.Exit(runCommand(cfg, args, cli.RunStatus))
	case cli.CmdSites:
		os.Exit(runCommand(cfg, args, cli.RunSites))
	case cli.CmdDevices:
		os.Exit(runCommand(cfg, args, cli.RunDevices))
	case cli.CmdConfig:
		os.Exit(runCommand(cfg, args, cli.RunConfig))
	default:
		cli.PrintUsage()
		os.Exit(2)
	}
}

// runCommand builds the runtime, runs one handler, and tears down.
func runCommand(cfg *config.Config, args cli.Args, handler func(*cli.Runtime, cli.Args) int) int {
	rt, err := cli.NewRuntime(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer rt.Close()
	return handler(rt, args)
}

// runTUI wires the session manager into a Bubble Tea program and runs the
// dashboard until exit.
func runTUI(cfg *config.Config) int {
	// TUI output owns the terminal; route logs to a file under the
	// config directory instead of stderr.
	if dir, err := config.ConfigDir(); err == nil {
		if f, err := os.OpenFile(dir+"/fleetdeck.log",
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
			log.SetOutput(f)
			defer f.Close()
		}
	}

	bridge := ui.NewBridge()
	rt, err := cli.NewRuntime(cfg, auth.WithNavigate(func(reason auth.NavReason) {
		bridge.Send(ui.NavMsg{Reason: reason})
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer rt.Close()

	unsubscribe := rt.Manager.Subscribe(func(snap auth.Snapshot) {
		bridge.Send(ui.SnapshotMsg{Snapshot: snap})
	})
	defer unsubscribe()

	app := ui.NewApp(rt.Manager, rt.Client, rt.Cache, cfg)
	program := tea.NewProgram(app, tea.WithAltScreen())
	bridge.Attach(program)

	// Live-reload the config file while the dashboard runs.
	watcher, err := config.Watch(func(updated *config.Config) {
		log.Printf("config: reloaded")
	})
	if err != nil {
		log.Printf("config: watch unavailable: %v", err)
	} else {
		defer watcher.Close()
	}

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
