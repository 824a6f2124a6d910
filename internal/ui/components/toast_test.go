// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/fleetdeck/internal/ui/styles"
)

// =============================================================================
// STACK BEHAVIOR
// =============================================================================

func TestToastManager_AddAndCount(t *testing.T) {
	m := NewToastManager()

	m.AddError("session expired")
	m.AddStatus("refreshed")

	if got := m.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestToastManager_DismissByID(t *testing.T) {
	m := NewToastManager()

	id := m.AddError("session expired")
	m.AddStatus("refreshed")

	m.Dismiss(id)
	if got := m.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1 after dismiss", got)
	}

	// Unknown ID is a no-op.
	m.Dismiss(9999)
	if got := m.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1 after bogus dismiss", got)
	}
}

func TestToastManager_StackCapped(t *testing.T) {
	m := NewToastManager()

	for i := 0; i < 10; i++ {
		m.AddStatus("toast")
	}
	if got := m.Count(); got != 5 {
		t.Errorf("Count() = %d, want cap of 5", got)
	}

	// Oldest fell off: remaining IDs are the last five issued.
	toasts := m.Toasts()
	if toasts[0].ID != 6 {
		t.Errorf("oldest surviving ID = %d, want 6", toasts[0].ID)
	}
}

func TestToastManager_PruneDropsExpired(t *testing.T) {
	m := NewToastManager()
	m.AddStatus("old news")

	// Force expiry instead of sleeping through the real duration.
	m.mu.Lock()
	m.toasts[0].CreatedAt = time.Now().Add(-time.Minute)
	m.mu.Unlock()

	if m.Prune() {
		t.Error("Prune() = true, want false with nothing left")
	}
	if got := m.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestToastManager_ConcurrentAdds(t *testing.T) {
	m := NewToastManager()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.AddError("racing")
			m.Toasts()
		}()
	}
	wg.Wait()

	if got := m.Count(); got != 5 {
		t.Errorf("Count() = %d, want cap of 5", got)
	}
}

// =============================================================================
// RENDERING
// =============================================================================

func TestToastManager_ViewRendersMessages(t *testing.T) {
	theme := styles.NewTheme()
	m := NewToastManager()

	if m.View(theme) != "" {
		t.Error("empty manager should render nothing")
	}

	m.AddError("session expired")
	m.AddSuccess("signed in")

	view := m.View(theme)
	if !strings.Contains(view, "session expired") {
		t.Error("error toast missing from view")
	}
	if !strings.Contains(view, "signed in") {
		t.Error("success toast missing from view")
	}
}
