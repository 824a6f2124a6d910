// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// inventory.go - Sites and devices commands.
//
// Command: sites
// Short:   List sites
//
// Command: devices
// Short:   List devices at a site, or send a device an action
//
// Examples:
//   fleetdeck sites                          List all sites
//   fleetdeck sites --json                   Sites in JSON format
//   fleetdeck devices site-42                List devices at site-42
//   fleetdeck devices site-42 --device d-7 --action restart
//                                            Restart device d-7
//
// When the server is unreachable, both listings fall back to the local
// cache and mark the output as cached.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/fleetdeck/internal/model"
)

const inventoryTimeout = 30 * time.Second

// RunSites handles the sites command. Returns an exit code.
func RunSites(rt *Runtime, args Args) int {
	ctx, cancel := context.WithTimeout(context.Background(), inventoryTimeout)
	defer cancel()

	rt.Manager.CheckAuth(ctx)
	if !requireSession(rt) {
		return 1
	}

	sites, fromCache, err := fetchSites(ctx, rt)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("sites", err).Print()
		} else {
			fmt.Println(errStyle.Render("could not load sites: " + err.Error()))
		}
		return 1
	}

	if args.JSON {
		NewJSONResponse("sites", map[string]interface{}{
			"sites":      sites,
			"from_cache": fromCache,
		}).Print()
		return 0
	}

	printSitesTable(sites, fromCache)
	return 0
}

// RunDevices handles the devices command. Returns an exit code.
func RunDevices(rt *Runtime, args Args) int {
	if args.SiteID == "" {
		fmt.Println(errStyle.Render("usage: fleetdeck devices <site-id>"))
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), inventoryTimeout)
	defer cancel()

	rt.Manager.CheckAuth(ctx)
	if !requireSession(rt) {
		return 1
	}

	// Action dispatch short-circuits the listing.
	if args.Action != "" {
		if args.DeviceID == "" {
			fmt.Println(errStyle.Render("--action requires --device"))
			return 2
		}
		if err := rt.Client.DeviceAction(ctx, args.DeviceID, args.Action); err != nil {
			fmt.Println(errStyle.Render("action failed: " + err.Error()))
			return 1
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("Sent %q to device %s", args.Action, args.DeviceID)))
		return 0
	}

	devices, fromCache, err := fetchDevices(ctx, rt, args.SiteID)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("devices", err).Print()
		} else {
			fmt.Println(errStyle.Render("could not load devices: " + err.Error()))
		}
		return 1
	}

	if args.JSON {
		NewJSONResponse("devices", map[string]interface{}{
			"site_id":    args.SiteID,
			"devices":    devices,
			"from_cache": fromCache,
		}).Print()
		return 0
	}

	printDevicesTable(devices, fromCache)
	return 0
}

// requireSession prints a hint and returns false when no session exists.
func requireSession(rt *Runtime) bool {
	if rt.Manager.Snapshot().IsAuthenticated {
		return true
	}
	fmt.Println(warnStyle.Render("Not signed in. Run 'fleetdeck login' first."))
	return false
}

// =============================================================================
// FETCH WITH CACHE FALLBACK
// =============================================================================

func fetchSites(ctx context.Context, rt *Runtime) ([]model.Site, bool, error) {
	sites, err := rt.Client.ListSites(ctx)
	if err == nil {
		if rt.Cache != nil {
			if saveErr := rt.Cache.SaveSites(ctx, sites); saveErr != nil {
				fmt.Println(warnStyle.Render("cache save failed: " + saveErr.Error()))
			}
		}
		return sites, false, nil
	}

	if rt.Cache != nil {
		cached, _, cacheErr := rt.Cache.Sites(ctx)
		if cacheErr == nil && cached != nil {
			return cached, true, nil
		}
	}
	return nil, false, err
}

func fetchDevices(ctx context.Context, rt *Runtime, siteID string) ([]model.Device, bool, error) {
	devices, err := rt.Client.ListDevices(ctx, siteID)
	if err == nil {
		if rt.Cache != nil {
			if saveErr := rt.Cache.SaveDevices(ctx, siteID, devices); saveErr != nil {
				fmt.Println(warnStyle.Render("cache save failed: " + saveErr.Error()))
			}
		}
		return devices, false, nil
	}

	if rt.Cache != nil {
		cached, _, cacheErr := rt.Cache.Devices(ctx, siteID)
		if cacheErr == nil && cached != nil {
			return cached, true, nil
		}
	}
	return nil, false, err
}

// =============================================================================
// TABLE OUTPUT
// =============================================================================

func printSitesTable(sites []model.Site, fromCache bool) {
	if len(sites) == 0 {
		fmt.Println("No sites.")
		return
	}

	fmt.Println(titleStyle.Render("Sites") + cacheTag(fromCache))
	fmt.Println()
	fmt.Println(headerStyle.Render(padCell("ID", 14)) +
		headerStyle.Render(padCell("Name", 26)) +
		headerStyle.Render(padCell("Region", 14)) +
		headerStyle.Render("Devices"))

	for _, s := range sites {
		fmt.Println(padCell(s.ID, 14) + padCell(s.Name, 26) + padCell(s.Region, 14) +
			fmt.Sprintf("%d", s.DeviceCount))
	}
}

func printDevicesTable(devices []model.Device, fromCache bool) {
	if len(devices) == 0 {
		fmt.Println("No devices at this site.")
		return
	}

	fmt.Println(titleStyle.Render("Devices") + cacheTag(fromCache))
	fmt.Println()
	fmt.Println(headerStyle.Render(padCell("ID", 14)) +
		headerStyle.Render(padCell("Name", 26)) +
		headerStyle.Render(padCell("Kind", 12)) +
		headerStyle.Render(padCell("Status", 10)) +
		headerStyle.Render("Last seen"))

	for _, d := range devices {
		fmt.Println(padCell(d.ID, 14) + padCell(d.Name, 26) + padCell(d.Kind, 12) +
			deviceStatusCell(d.Status, 10) + d.LastSeen.Format("2006-01-02 15:04"))
	}
}

// deviceStatusCell pads before styling so ANSI codes do not skew the
// column width.
func deviceStatusCell(status model.DeviceStatus, width int) string {
	cell := padCell(string(status), width)
	switch status {
	case model.StatusOnline:
		return okStyle.Render(cell)
	case model.StatusDegraded:
		return warnStyle.Render(cell)
	case model.StatusOffline:
		return errStyle.Render(cell)
	default:
		return cell
	}
}

func cacheTag(fromCache bool) string {
	if !fromCache {
		return ""
	}
	return " " + warnStyle.Render("(cached)")
}
