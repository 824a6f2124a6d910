// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command for fleetdeck.
//
// Command: config
// Short:   Show, get, or set configuration values
//
// Examples:
//   fleetdeck config show                       Full configuration
//   fleetdeck config get server.base_url        One value
//   fleetdeck config set ui.theme light         Set and persist
//   fleetdeck config keys                       List all known keys
//
// Set writes the TOML config file under ~/.fleetdeck/ after validation;
// invalid values are rejected before anything is persisted.
package cli

import (
	"fmt"

	"github.com/jeranaias/fleetdeck/internal/config"
)

// RunConfig handles the config command. Returns an exit code.
func RunConfig(rt *Runtime, args Args) int {
	switch args.Subcommand {
	case "", "show":
		return runConfigShow(rt, args)
	case "get":
		return runConfigGet(rt, args)
	case "set":
		return runConfigSet(rt, args)
	case "keys":
		return runConfigKeys(args)
	default:
		fmt.Println(errStyle.Render("unknown config subcommand: " + args.Subcommand))
		fmt.Println("usage: fleetdeck config [show|get|set|keys]")
		return 2
	}
}

func runConfigShow(rt *Runtime, args Args) int {
	if args.JSON {
		NewJSONResponse("config", rt.Cfg).Print()
		return 0
	}
	fmt.Println(titleStyle.Render("fleetdeck configuration"))
	fmt.Println()
	fmt.Print(rt.Cfg.String())
	return 0
}

func runConfigGet(rt *Runtime, args Args) int {
	if args.ConfigKey == "" {
		fmt.Println(errStyle.Render("usage: fleetdeck config get KEY"))
		return 2
	}

	val, err := rt.Cfg.Get(args.ConfigKey)
	if err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		return 1
	}

	if args.JSON {
		NewJSONResponse("config.get", map[string]interface{}{
			"key":   args.ConfigKey,
			"value": val,
		}).Print()
		return 0
	}
	fmt.Printf("%v\n", val)
	return 0
}

func runConfigSet(rt *Runtime, args Args) int {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		fmt.Println(errStyle.Render("usage: fleetdeck config set KEY VALUE"))
		return 2
	}

	if err := rt.Cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		return 1
	}
	if err := rt.Cfg.Validate(); err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		return 1
	}

	path, err := config.ConfigPathTOML()
	if err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		return 1
	}
	if err := config.SaveTOML(rt.Cfg, path); err != nil {
		fmt.Println(errStyle.Render("save failed: " + err.Error()))
		return 1
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Set %s = %s", args.ConfigKey, args.ConfigVal)))
	return 0
}

func runConfigKeys(args Args) int {
	keys := config.GetAllKeys()
	if args.JSON {
		NewJSONResponse("config.keys", keys).Print()
		return 0
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return 0
}
