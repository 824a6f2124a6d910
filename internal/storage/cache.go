// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local inventory cache for fleetdeck.
//
// The cache keeps the last fetched sites and devices in a SQLite database
// so the dashboard can render instantly on startup and stay usable during
// brief server outages. Entries carry a fetch timestamp; reads report
// whether the data is still within its freshness window.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/fleetdeck/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed = errors.New("cache closed")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS sites (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	region       TEXT NOT NULL DEFAULT '',
	device_count INTEGER NOT NULL DEFAULT 0,
	updated_at   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS devices (
	id        TEXT PRIMARY KEY,
	site_id   TEXT NOT NULL,
	name      TEXT NOT NULL,
	kind      TEXT NOT NULL DEFAULT '',
	status    TEXT NOT NULL DEFAULT 'unknown',
	last_seen INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_devices_site ON devices(site_id);

CREATE TABLE IF NOT EXISTS sync_times (
	scope      TEXT PRIMARY KEY,
	fetched_at INTEGER NOT NULL
);
`

// =============================================================================
// INVENTORY CACHE
// =============================================================================

// Cache is a SQLite-backed snapshot of the fleet inventory.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// DefaultCachePath returns the default cache database location.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".fleetdeck", "cache.db"), nil
}

// Open opens (creating if necessary) the inventory cache at path. Entries
// older than ttl are reported as stale but still returned.
func Open(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// =============================================================================
// SITES
// =============================================================================

// SaveSites replaces the cached site listing in one transaction.
func (c *Cache) SaveSites(ctx context.Context, sites []model.Site) error {
	if c.db == nil {
		return ErrClosed
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sites"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO sites (id, name, region, device_count, updated_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range sites {
		if _, err := stmt.ExecContext(ctx, s.ID, s.Name, s.Region, s.DeviceCount, s.UpdatedAt.UnixMilli()); err != nil {
			return err
		}
	}

	if err := recordSync(ctx, tx, "sites"); err != nil {
		return err
	}
	return tx.Commit()
}

// Sites returns the cached site listing and whether it is still fresh.
// An empty cache returns (nil, false, nil).
func (c *Cache) Sites(ctx context.Context) ([]model.Site, bool, error) {
	if c.db == nil {
		return nil, false, ErrClosed
	}

	rows, err := c.db.QueryContext(ctx,
		"SELECT id, name, region, device_count, updated_at FROM sites ORDER BY name")
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var s model.Site
		var updatedMillis int64
		if err := rows.Scan(&s.ID, &s.Name, &s.Region, &s.DeviceCount, &updatedMillis); err != nil {
			return nil, false, err
		}
		s.UpdatedAt = time.UnixMilli(updatedMillis)
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if sites == nil {
		return nil, false, nil
	}

	fresh, err := c.isFresh(ctx, "sites")
	if err != nil {
		return nil, false, err
	}
	return sites, fresh, nil
}

// =============================================================================
// DEVICES
// =============================================================================

// SaveDevices replaces the cached devices for one site.
func (c *Cache) SaveDevices(ctx context.Context, siteID string, devices []model.Device) error {
	if c.db == nil {
		return ErrClosed
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM devices WHERE site_id = ?", siteID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO devices (id, site_id, name, kind, status, last_seen) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range devices {
		if _, err := stmt.ExecContext(ctx, d.ID, d.SiteID, d.Name, d.Kind, string(d.Status), d.LastSeen.UnixMilli()); err != nil {
			return err
		}
	}

	if err := recordSync(ctx, tx, "devices:"+siteID); err != nil {
		return err
	}
	return tx.Commit()
}

// Devices returns the cached devices for a site and whether they are fresh.
// A site with no cached devices returns (nil, false, nil).
func (c *Cache) Devices(ctx context.Context, siteID string) ([]model.Device, bool, error) {
	if c.db == nil {
		return nil, false, ErrClosed
	}

	rows, err := c.db.QueryContext(ctx,
		"SELECT id, site_id, name, kind, status, last_seen FROM devices WHERE site_id = ? ORDER BY name", siteID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		var status string
		var seenMillis int64
		if err := rows.Scan(&d.ID, &d.SiteID, &d.Name, &d.Kind, &status, &seenMillis); err != nil {
			return nil, false, err
		}
		d.Status = model.DeviceStatus(status)
		d.LastSeen = time.UnixMilli(seenMillis)
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if devices == nil {
		return nil, false, nil
	}

	fresh, err := c.isFresh(ctx, "devices:"+siteID)
	if err != nil {
		return nil, false, err
	}
	return devices, fresh, nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Clear wipes all cached inventory. Called on sign-out so the next user
// does not see the previous user's fleet.
func (c *Cache) Clear(ctx context.Context) error {
	if c.db == nil {
		return ErrClosed
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM sites", "DELETE FROM devices", "DELETE FROM sync_times"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// recordSync stamps a scope with the current time inside tx.
func recordSync(ctx context.Context, tx *sql.Tx, scope string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO sync_times (scope, fetched_at) VALUES (?, ?) ON CONFLICT(scope) DO UPDATE SET fetched_at = excluded.fetched_at",
		scope, time.Now().UnixMilli())
	return err
}

// isFresh reports whether the scope was fetched within the TTL.
func (c *Cache) isFresh(ctx context.Context, scope string) (bool, error) {
	var fetchedMillis int64
	err := c.db.QueryRowContext(ctx,
		"SELECT fetched_at FROM sync_times WHERE scope = ?", scope).Scan(&fetchedMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if c.ttl <= 0 {
		return true, nil
	}
	return time.Since(time.UnixMilli(fetchedMillis)) < c.ttl, nil
}
