// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fleetdeck/internal/api"
	"github.com/jeranaias/fleetdeck/internal/auth"
	"github.com/jeranaias/fleetdeck/internal/config"
	"github.com/jeranaias/fleetdeck/internal/model"
	"github.com/jeranaias/fleetdeck/internal/storage"
	"github.com/jeranaias/fleetdeck/internal/ui/components"
	"github.com/jeranaias/fleetdeck/internal/ui/styles"
)

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// App is the root Bubble Tea model for the fleetdeck dashboard. It owns the
// screen routing, the inventory tables, and the glue between the session
// manager and the render loop.
type App struct {
	manager *auth.Manager
	client  *api.Client
	cache   *storage.Cache // nil when caching is disabled
	cfg     *config.Config

	theme  *styles.Theme
	keyMap KeyMap

	width  int
	height int

	// Routing: requested is what the user asked for; Route decides what
	// actually renders.
	requested Screen
	snap      auth.Snapshot

	// Components
	loginForm *components.LoginForm
	statusBar *components.StatusBar
	toasts    *components.ToastManager
	spinner   components.Spinner

	// Inventory
	sitesTable   table.Model
	devicesTable table.Model
	sites        []model.Site
	devices      []model.Device
	selectedSite model.Site

	helpCache string
}

// NewApp creates the dashboard model. cache may be nil.
func NewApp(manager *auth.Manager, client *api.Client, cache *storage.Cache, cfg *config.Config) *App {
	theme := styles.NewTheme()

	a := &App{
		manager:   manager,
		client:    client,
		cache:     cache,
		cfg:       cfg,
		theme:     theme,
		keyMap:    DefaultKeyMap(),
		requested: ScreenSites,
		snap:      manager.Snapshot(),
		loginForm: components.NewLoginForm(theme),
		statusBar: components.NewStatusBar(theme),
		toasts:    components.NewToastManager(),
		spinner:   components.NewSpinner(),
		width:     80,
		height:    24,
	}

	a.sitesTable = newSitesTable(theme)
	a.devicesTable = newDevicesTable(theme)
	a.syncStatusBar()

	return a
}

func newSitesTable(theme *styles.Theme) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Site", Width: 28},
			{Title: "Region", Width: 14},
			{Title: "Devices", Width: 8},
			{Title: "Updated", Width: 18},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	applyTableStyles(&t, theme)
	return t
}

func newDevicesTable(theme *styles.Theme) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Device", Width: 26},
			{Title: "Kind", Width: 12},
			{Title: "Status", Width: 14},
			{Title: "Last seen", Width: 18},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	applyTableStyles(&t, theme)
	return t
}

func applyTableStyles(t *table.Model, theme *styles.Theme) {
	s := table.DefaultStyles()
	s.Header = theme.TableHeader
	s.Selected = theme.TableSelected
	s.Cell = theme.TableCell
	t.SetStyles(s)
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the session check and the loading spinner.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.checkAuthCmd(),
		a.spinner.Start(),
	)
}

// Update is the single message pump for the dashboard.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case SnapshotMsg:
		return a, a.applySnapshot(msg.Snapshot)

	case NavMsg:
		return a, a.applyNav(msg.Reason)

	case components.SubmitMsg:
		return a, a.loginCmd(msg.Email, msg.Password)

	case loginResultMsg:
		if !msg.Result.OK && msg.Result.Message != "" {
			a.loginForm.SetError(msg.Result.Message)
		}
		return a, nil

	case sitesLoadedMsg:
		return a, a.applySitesLoaded(msg)

	case devicesLoadedMsg:
		return a, a.applyDevicesLoaded(msg)

	case components.ToastTickMsg:
		if a.toasts.Prune() {
			return a, components.TickToasts()
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.spinner, cmd = a.spinner.Update(msg)
	return a, cmd
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.statusBar.SetWidth(width)
	a.loginForm.SetWidth(min(width-4, 64))

	tableHeight := height - 8
	if tableHeight < 4 {
		tableHeight = 4
	}
	a.sitesTable.SetHeight(tableHeight)
	a.devicesTable.SetHeight(tableHeight)

	// Rendered help is width-sensitive.
	a.helpCache = ""
}

// =============================================================================
// SESSION TRANSITIONS
// =============================================================================

// applySnapshot folds a committed session snapshot into the model.
func (a *App) applySnapshot(snap auth.Snapshot) tea.Cmd {
	wasAuthed := a.snap.IsAuthenticated
	a.snap = snap
	a.syncStatusBar()

	switch {
	case snap.IsAuthenticated && !wasAuthed:
		// Fresh session: land on the site list and fetch inventory.
		a.requested = ScreenSites
		a.loginForm.Reset()
		return tea.Batch(a.loadSitesCmd(), a.spinner.Start())

	case !snap.IsAuthenticated && wasAuthed:
		// Session ended: drop inventory so nothing leaks across users.
		a.sites = nil
		a.devices = nil
		a.sitesTable.SetRows(nil)
		a.devicesTable.SetRows(nil)
		a.requested = ScreenSites
		a.spinner.Stop()
	}
	return nil
}

// applyNav handles a session-end navigation event. The snapshot transition
// arrives separately; this only surfaces the reason to the user and clears
// the on-disk cache.
func (a *App) applyNav(reason auth.NavReason) tea.Cmd {
	switch reason {
	case auth.NavSessionExpired:
		a.toasts.AddError("Your session has expired. Please sign in again.")
	case auth.NavSessionRevoked:
		a.toasts.AddError("Your session was ended by the server. Please sign in again.")
	default:
		a.toasts.AddStatus("Signed out.")
	}

	return tea.Batch(components.TickToasts(), a.clearCacheCmd())
}

func (a *App) syncStatusBar() {
	if a.snap.IsAuthenticated && a.snap.User != nil {
		a.statusBar.SetIdentity(a.snap.User.Username, string(a.snap.User.Role))
	} else {
		a.statusBar.SetIdentity("", "")
	}
	a.statusBar.SetHints([]components.Hint{
		{Key: "r", Desc: "refresh"},
		{Key: "?", Desc: "help"},
		{Key: "q", Desc: "quit"},
	})
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit works everywhere. The session itself survives a quit; only an
	// explicit sign-out ends it.
	if key.Matches(msg, a.keyMap.Quit) && Route(a.snap, a.requested) != ScreenLogin {
		return a, tea.Quit
	}
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}

	switch Route(a.snap, a.requested) {
	case ScreenLogin:
		var cmd tea.Cmd
		a.loginForm, cmd = a.loginForm.Update(msg)
		return a, cmd

	case ScreenSites:
		return a.handleSitesKey(msg)

	case ScreenDevices:
		return a.handleDevicesKey(msg)

	case ScreenHelp:
		if key.Matches(msg, a.keyMap.Back) || key.Matches(msg, a.keyMap.Help) {
			a.requested = ScreenSites
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleSitesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keyMap.Select):
		if i := a.sitesTable.Cursor(); i >= 0 && i < len(a.sites) {
			a.selectedSite = a.sites[i]
			a.requested = ScreenDevices
			return a, tea.Batch(a.loadDevicesCmd(a.selectedSite.ID), a.spinner.Start())
		}
		return a, nil

	case key.Matches(msg, a.keyMap.Refresh):
		return a, tea.Batch(a.loadSitesCmd(), a.spinner.Start())

	case key.Matches(msg, a.keyMap.Help):
		a.requested = ScreenHelp
		return a, nil

	case key.Matches(msg, a.keyMap.SignOut):
		return a, a.logoutCmd()
	}

	var cmd tea.Cmd
	a.sitesTable, cmd = a.sitesTable.Update(msg)
	return a, cmd
}

func (a *App) handleDevicesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keyMap.Back):
		a.requested = ScreenSites
		return a, nil

	case key.Matches(msg, a.keyMap.Refresh):
		return a, tea.Batch(a.loadDevicesCmd(a.selectedSite.ID), a.spinner.Start())

	case key.Matches(msg, a.keyMap.Help):
		a.requested = ScreenHelp
		return a, nil

	case key.Matches(msg, a.keyMap.SignOut):
		return a, a.logoutCmd()
	}

	var cmd tea.Cmd
	a.devicesTable, cmd = a.devicesTable.Update(msg)
	return a, cmd
}

// =============================================================================
// COMMANDS
// =============================================================================

const fetchTimeout = 30 * time.Second

func (a *App) checkAuthCmd() tea.Cmd {
	mgr := a.manager
	return func() tea.Msg {
		mgr.CheckAuth(context.Background())
		return nil
	}
}

func (a *App) loginCmd(email, password string) tea.Cmd {
	mgr := a.manager
	return func() tea.Msg {
		res := mgr.Login(context.Background(), auth.Credentials{
			Email:    email,
			Password: password,
		})
		return loginResultMsg{Result: res}
	}
}

func (a *App) logoutCmd() tea.Cmd {
	mgr := a.manager
	return func() tea.Msg {
		mgr.Logout(context.Background())
		return nil
	}
}

// loadSitesCmd fetches the site list, falling back to the cache when the
// server is unreachable.
func (a *App) loadSitesCmd() tea.Cmd {
	client, cache := a.client, a.cache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		sites, err := client.ListSites(ctx)
		if err == nil {
			if cache != nil {
				if saveErr := cache.SaveSites(ctx, sites); saveErr != nil {
					log.Printf("cache: save sites: %v", saveErr)
				}
			}
			return sitesLoadedMsg{Sites: sites}
		}

		if cache != nil {
			cached, _, cacheErr := cache.Sites(ctx)
			if cacheErr == nil && cached != nil {
				return sitesLoadedMsg{Sites: cached, FromCache: true}
			}
		}
		return sitesLoadedMsg{Err: err}
	}
}

func (a *App) loadDevicesCmd(siteID string) tea.Cmd {
	client, cache := a.client, a.cache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		devices, err := client.ListDevices(ctx, siteID)
		if err == nil {
			if cache != nil {
				if saveErr := cache.SaveDevices(ctx, siteID, devices); saveErr != nil {
					log.Printf("cache: save devices: %v", saveErr)
				}
			}
			return devicesLoadedMsg{SiteID: siteID, Devices: devices}
		}

		if cache != nil {
			cached, _, cacheErr := cache.Devices(ctx, siteID)
			if cacheErr == nil && cached != nil {
				return devicesLoadedMsg{SiteID: siteID, Devices: cached, FromCache: true}
			}
		}
		return devicesLoadedMsg{SiteID: siteID, Err: err}
	}
}

func (a *App) clearCacheCmd() tea.Cmd {
	cache := a.cache
	if cache == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cache.Clear(ctx); err != nil {
			log.Printf("cache: clear: %v", err)
		}
		return nil
	}
}

// =============================================================================
// FETCH RESULTS
// =============================================================================

func (a *App) applySitesLoaded(msg sitesLoadedMsg) tea.Cmd {
	a.spinner.Stop()

	// A fetch finishing after sign-out must not repopulate the view.
	if !a.snap.IsAuthenticated {
		return nil
	}

	if msg.Err != nil {
		a.statusBar.SetConnection(components.ConnOffline)
		a.toasts.AddError("Could not load sites: " + msg.Err.Error())
		return components.TickToasts()
	}

	a.sites = msg.Sites
	rows := make([]table.Row, 0, len(msg.Sites))
	for _, s := range msg.Sites {
		rows = append(rows, table.Row{
			s.Name,
			s.Region,
			strconv.Itoa(s.DeviceCount),
			s.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	a.sitesTable.SetRows(rows)

	if msg.FromCache {
		a.statusBar.SetConnection(components.ConnCached)
	} else {
		a.statusBar.SetConnection(components.ConnLive)
	}
	return nil
}

func (a *App) applyDevicesLoaded(msg devicesLoadedMsg) tea.Cmd {
	a.spinner.Stop()

	if !a.snap.IsAuthenticated {
		return nil
	}
	// Ignore results for a site the user already navigated away from.
	if msg.SiteID != a.selectedSite.ID {
		return nil
	}

	if msg.Err != nil {
		a.statusBar.SetConnection(components.ConnOffline)
		a.toasts.AddError("Could not load devices: " + msg.Err.Error())
		return components.TickToasts()
	}

	a.devices = msg.Devices
	rows := make([]table.Row, 0, len(msg.Devices))
	for _, d := range msg.Devices {
		rows = append(rows, table.Row{
			d.Name,
			d.Kind,
			a.theme.DeviceStatusIcon(d.Status) + " " + string(d.Status),
			d.LastSeen.Format("2006-01-02 15:04"),
		})
	}
	a.devicesTable.SetRows(rows)

	if msg.FromCache {
		a.statusBar.SetConnection(components.ConnCached)
	} else {
		a.statusBar.SetConnection(components.ConnLive)
	}
	return nil
}
