// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/fleetdeck/internal/model"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeTransport struct {
	mu sync.Mutex

	grant   *Grant
	authErr error

	profile  *model.Profile
	probeErr error

	invalidateErr   error
	invalidateCalls int

	// block, when non-nil, stalls Authenticate until closed.
	block chan struct{}

	notice func(Endpoint)
}

func (f *fakeTransport) Authenticate(ctx context.Context, creds Credentials) (*Grant, error) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.grant, nil
}

func (f *fakeTransport) ProbeIdentity(ctx context.Context) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.profile, nil
}

func (f *fakeTransport) InvalidateSession(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidateCalls++
	return f.invalidateErr
}

func (f *fakeTransport) OnUnauthorized(fn func(Endpoint)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notice = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.notice = nil
	}
}

func (f *fakeTransport) sendNotice(e Endpoint) {
	f.mu.Lock()
	fn := f.notice
	f.mu.Unlock()
	if fn != nil {
		fn(e)
	}
}

// navRecorder collects navigation side effects from any goroutine.
type navRecorder struct {
	mu      sync.Mutex
	reasons []NavReason
}

func (n *navRecorder) record(r NavReason) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, r)
}

func (n *navRecorder) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reasons)
}

func (n *navRecorder) last() (NavReason, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.reasons) == 0 {
		return 0, false
	}
	return n.reasons[len(n.reasons)-1], true
}

func testProfile() model.Profile {
	return model.Profile{Username: "ops", Email: "a@b.com", Role: model.RoleOperator}
}

func newTestManager(t *testing.T, tr *fakeTransport, opts ...Option) (*Manager, *FileStore, *navRecorder) {
	t.Helper()
	store := NewFileStore(t.TempDir())
	nav := &navRecorder{}
	opts = append(opts, WithNavigate(nav.record))
	m := NewManager(tr, store, opts...)
	t.Cleanup(m.Close)
	return m, store, nav
}

// =============================================================================
// CHECK AUTH - BEARER MODE
// =============================================================================

func TestCheckAuth_NoStoredCredential(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeTransport{})

	if snap := m.Snapshot(); !snap.Loading || snap.IsAuthenticated {
		t.Fatalf("initial snapshot = %+v, want loading and unauthenticated", snap)
	}

	m.CheckAuth(context.Background())

	snap := m.Snapshot()
	if snap.Loading {
		t.Error("Loading should drop after CheckAuth")
	}
	if snap.IsAuthenticated || snap.User != nil {
		t.Errorf("snapshot = %+v, want unauthenticated with no user", snap)
	}
}

func TestCheckAuth_ExpiredCredential(t *testing.T) {
	m, store, _ := newTestManager(t, &fakeTransport{})

	cred := &StoredCredential{
		Token:     "abc",
		ExpiresAt: time.Now().Add(-time.Second),
		Profile:   testProfile(),
	}
	if err := store.Save(cred); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	m.CheckAuth(context.Background())

	snap := m.Snapshot()
	if snap.IsAuthenticated || snap.User != nil || snap.Loading {
		t.Errorf("snapshot = %+v, want {false, nil, false}", snap)
	}

	// The store must be emptied.
	if got, _ := store.Load(); got != nil {
		t.Errorf("store should be empty after expired credential, got %+v", got)
	}
}

func TestCheckAuth_ValidCredentialRestoresSession(t *testing.T) {
	m, store, _ := newTestManager(t, &fakeTransport{})

	cred := &StoredCredential{
		Token:     "tok-1",
		ExpiresAt: time.Now().Add(time.Hour),
		Profile:   testProfile(),
	}
	if err := store.Save(cred); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	m.CheckAuth(context.Background())

	snap := m.Snapshot()
	if !snap.IsAuthenticated || snap.Loading {
		t.Fatalf("snapshot = %+v, want authenticated", snap)
	}
	if snap.User == nil || snap.User.Username != "ops" {
		t.Errorf("restored user = %+v, want cached profile", snap.User)
	}
}

func TestCheckAuth_RunsOnlyOnce(t *testing.T) {
	m, store, _ := newTestManager(t, &fakeTransport{})
	m.CheckAuth(context.Background())

	// A credential stored after the startup check must not be adopted by a
	// second call.
	store.Save(&StoredCredential{Token: "t", ExpiresAt: time.Now().Add(time.Hour), Profile: testProfile()})
	m.CheckAuth(context.Background())

	if snap := m.Snapshot(); snap.IsAuthenticated {
		t.Error("second CheckAuth should be a no-op")
	}
}

// =============================================================================
// CHECK AUTH - SERVER-SESSION MODE
// =============================================================================

func TestCheckAuth_ServerSessionProbeSuccess(t *testing.T) {
	profile := testProfile()
	tr := &fakeTransport{profile: &profile}
	m, _, _ := newTestManager(t, tr, WithMode(ModeSession))

	m.CheckAuth(context.Background())

	snap := m.Snapshot()
	if !snap.IsAuthenticated || snap.User == nil || snap.User.Email != "a@b.com" {
		t.Errorf("snapshot = %+v, want authenticated with probed profile", snap)
	}
}

func TestCheckAuth_ServerSessionProbeFailure(t *testing.T) {
	tr := &fakeTransport{probeErr: errors.New("connection refused")}
	m, _, _ := newTestManager(t, tr, WithMode(ModeSession))

	m.CheckAuth(context.Background())

	snap := m.Snapshot()
	if snap.IsAuthenticated || snap.Loading {
		t.Errorf("snapshot = %+v, want unauthenticated after probe failure", snap)
	}
}

// =============================================================================
// LOGIN
// =============================================================================

func TestLogin_Success(t *testing.T) {
	profile := testProfile()
	tr := &fakeTransport{grant: &Grant{Token: "tok-9", ExpiresIn: time.Hour, Profile: profile}}
	m, store, _ := newTestManager(t, tr)
	m.CheckAuth(context.Background())

	before := time.Now()
	res := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"})

	if !res.OK || res.Profile == nil {
		t.Fatalf("result = %+v, want OK with profile", res)
	}

	snap := m.Snapshot()
	if !snap.IsAuthenticated || snap.User == nil {
		t.Fatalf("snapshot = %+v, want authenticated", snap)
	}

	cred, err := store.Load()
	if err != nil || cred == nil {
		t.Fatalf("stored credential missing: %v", err)
	}
	if cred.Token != "tok-9" {
		t.Errorf("stored token = %q, want tok-9", cred.Token)
	}
	wantExpiry := before.Add(time.Hour)
	if cred.ExpiresAt.Before(wantExpiry.Add(-5*time.Second)) || cred.ExpiresAt.After(wantExpiry.Add(5*time.Second)) {
		t.Errorf("stored expiry = %v, want ~%v", cred.ExpiresAt, wantExpiry)
	}
}

func TestLogin_DefaultValidityWindow(t *testing.T) {
	tr := &fakeTransport{grant: &Grant{Token: "t", Profile: testProfile()}}
	m, store, _ := newTestManager(t, tr, WithValidity(30*time.Minute))
	m.CheckAuth(context.Background())

	before := time.Now()
	if res := m.Login(context.Background(), Credentials{}); !res.OK {
		t.Fatalf("login failed: %+v", res)
	}

	cred, _ := store.Load()
	if cred == nil {
		t.Fatal("credential not persisted")
	}
	want := before.Add(30 * time.Minute)
	if cred.ExpiresAt.Before(want.Add(-5*time.Second)) || cred.ExpiresAt.After(want.Add(5*time.Second)) {
		t.Errorf("expiry = %v, want fallback window ~%v", cred.ExpiresAt, want)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	tr := &fakeTransport{authErr: ErrInvalidCredentials}
	m, store, _ := newTestManager(t, tr)
	m.CheckAuth(context.Background())

	res := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "bad"})

	if res.OK {
		t.Fatal("login should fail")
	}
	if res.Message == "" {
		t.Error("failure must carry a message for the form")
	}
	if snap := m.Snapshot(); snap.IsAuthenticated {
		t.Errorf("state should be unchanged, got %+v", snap)
	}
	if cred, _ := store.Load(); cred != nil {
		t.Error("failed login must not persist anything")
	}
}

func TestLogin_ServerSessionModeDoesNotPersist(t *testing.T) {
	tr := &fakeTransport{grant: &Grant{Profile: testProfile()}}
	m, store, _ := newTestManager(t, tr, WithMode(ModeSession))
	m.CheckAuth(context.Background())

	if res := m.Login(context.Background(), Credentials{}); !res.OK {
		t.Fatalf("login failed: %+v", res)
	}
	if cred, _ := store.Load(); cred != nil {
		t.Error("server-session mode must not write the credential store")
	}
	if !m.Snapshot().IsAuthenticated {
		t.Error("profile should be adopted")
	}
}

func TestLogin_LateResponseAfterLogoutIsDiscarded(t *testing.T) {
	block := make(chan struct{})
	tr := &fakeTransport{
		grant: &Grant{Token: "late", ExpiresIn: time.Hour, Profile: testProfile()},
		block: block,
	}
	m, store, _ := newTestManager(t, tr)
	m.CheckAuth(context.Background())

	results := make(chan LoginResult, 1)
	go func() {
		results <- m.Login(context.Background(), Credentials{})
	}()

	// End the session while the login is still suspended on the network.
	m.Logout(context.Background())
	close(block)

	res := <-results
	if res.OK {
		t.Fatal("late login completion must not win")
	}
	if snap := m.Snapshot(); snap.IsAuthenticated {
		t.Errorf("snapshot = %+v, late response resurrected the session", snap)
	}
	if cred, _ := store.Load(); cred != nil {
		t.Error("late completion must not persist a credential")
	}
}

// =============================================================================
// LOGOUT
// =============================================================================

func TestLogout(t *testing.T) {
	tr := &fakeTransport{grant: &Grant{Token: "t", ExpiresIn: time.Hour, Profile: testProfile()}}
	m, store, nav := newTestManager(t, tr)
	m.CheckAuth(context.Background())
	m.Login(context.Background(), Credentials{})

	m.Logout(context.Background())

	snap := m.Snapshot()
	if snap.IsAuthenticated || snap.User != nil {
		t.Errorf("snapshot = %+v, want cleared", snap)
	}
	if cred, _ := store.Load(); cred != nil {
		t.Error("store should be empty after logout")
	}
	if tr.invalidateCalls == 0 {
		t.Error("server-side invalidation should be attempted")
	}
	if r, ok := nav.last(); !ok || r != NavSignedOut {
		t.Errorf("navigation = %v, want NavSignedOut", r)
	}
}

func TestLogout_IdempotentWhileUnauthenticated(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeTransport{})
	m.CheckAuth(context.Background())

	// Must not panic or corrupt state.
	m.Logout(context.Background())
	m.Logout(context.Background())

	if snap := m.Snapshot(); snap.IsAuthenticated {
		t.Errorf("snapshot = %+v, want unauthenticated", snap)
	}
}

func TestLogout_InvalidationFailureStillClears(t *testing.T) {
	tr := &fakeTransport{
		grant:         &Grant{Token: "t", ExpiresIn: time.Hour, Profile: testProfile()},
		invalidateErr: errors.New("network down"),
	}
	m, store, _ := newTestManager(t, tr)
	m.CheckAuth(context.Background())
	m.Login(context.Background(), Credentials{})

	m.Logout(context.Background())

	if m.Snapshot().IsAuthenticated {
		t.Error("local state must clear even when the server call fails")
	}
	if cred, _ := store.Load(); cred != nil {
		t.Error("store must clear even when the server call fails")
	}
}

// =============================================================================
// EXPIRY AND REVOCATION
// =============================================================================

func TestExpiry_ForcesLogoutOnce(t *testing.T) {
	tr := &fakeTransport{grant: &Grant{Token: "t", ExpiresIn: 50 * time.Millisecond, Profile: testProfile()}}
	m, store, nav := newTestManager(t, tr)
	m.CheckAuth(context.Background())

	if res := m.Login(context.Background(), Credentials{}); !res.OK {
		t.Fatalf("login failed: %+v", res)
	}

	// Wait for the scheduled expiry to fire.
	deadline := time.Now().Add(2 * time.Second)
	for m.Snapshot().IsAuthenticated && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	snap := m.Snapshot()
	if snap.IsAuthenticated || snap.User != nil {
		t.Fatalf("snapshot = %+v, want forced logout after expiry", snap)
	}
	if cred, _ := store.Load(); cred != nil {
		t.Error("store should be cleared by expiry")
	}
	if nav.count() != 1 {
		t.Errorf("navigations = %d, want exactly 1", nav.count())
	}
	if r, _ := nav.last(); r != NavSessionExpired {
		t.Errorf("reason = %v, want NavSessionExpired", r)
	}
}

func TestUnauthorizedNotice_ForcesLogout(t *testing.T) {
	tr := &fakeTransport{grant: &Grant{Token: "t", ExpiresIn: time.Hour, Profile: testProfile()}}
	m, _, nav := newTestManager(t, tr)
	m.CheckAuth(context.Background())
	m.Login(context.Background(), Credentials{})

	tr.sendNotice(EndpointResource)

	if m.Snapshot().IsAuthenticated {
		t.Fatal("revocation notice should end the session")
	}
	if r, _ := nav.last(); r != NavSessionRevoked {
		t.Errorf("reason = %v, want NavSessionRevoked", r)
	}
}

func TestUnauthorizedNotice_AuthEndpointsIgnored(t *testing.T) {
	tr := &fakeTransport{grant: &Grant{Token: "t", ExpiresIn: time.Hour, Profile: testProfile()}}
	m, _, nav := newTestManager(t, tr)
	m.CheckAuth(context.Background())
	m.Login(context.Background(), Credentials{})

	tr.sendNotice(EndpointLogin)
	tr.sendNotice(EndpointIdentity)
	tr.sendNotice(EndpointLogout)

	if !m.Snapshot().IsAuthenticated {
		t.Error("rejections on auth endpoints must not force a logout")
	}
	if nav.count() != 0 {
		t.Errorf("navigations = %d, want 0", nav.count())
	}
}

func TestUnauthorizedNotice_WhileUnauthenticatedIsNoOp(t *testing.T) {
	tr := &fakeTransport{}
	m, _, nav := newTestManager(t, tr)
	m.CheckAuth(context.Background())

	tr.sendNotice(EndpointResource)

	if nav.count() != 0 {
		t.Errorf("navigations = %d, want 0 (no duplicate redirect)", nav.count())
	}
}

func TestUnauthorizedNotice_BackToBackProducesOneTransition(t *testing.T) {
	tr := &fakeTransport{grant: &Grant{Token: "t", ExpiresIn: time.Hour, Profile: testProfile()}}
	m, _, nav := newTestManager(t, tr)
	m.CheckAuth(context.Background())
	m.Login(context.Background(), Credentials{})

	tr.sendNotice(EndpointResource)
	tr.sendNotice(EndpointResource)

	if nav.count() != 1 {
		t.Errorf("navigations = %d, want exactly 1", nav.count())
	}
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

func TestSubscribe_ReceivesCommittedSnapshots(t *testing.T) {
	tr := &fakeTransport{grant: &Grant{Token: "t", ExpiresIn: time.Hour, Profile: testProfile()}}
	m, _, _ := newTestManager(t, tr)

	var mu sync.Mutex
	var seen []Snapshot
	cancel := m.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	m.CheckAuth(context.Background())
	m.Login(context.Background(), Credentials{})
	cancel()
	m.Logout(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("snapshots seen = %d, want 2 (checkAuth, login)", len(seen))
	}
	if seen[0].IsAuthenticated {
		t.Error("first committed snapshot should be unauthenticated")
	}
	if !seen[1].IsAuthenticated {
		t.Error("second committed snapshot should be authenticated")
	}
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	tr := &fakeTransport{grant: &Grant{Token: "t", ExpiresIn: time.Hour, Profile: testProfile()}}
	m, _, _ := newTestManager(t, tr)
	m.CheckAuth(context.Background())
	m.Login(context.Background(), Credentials{})

	snap := m.Snapshot()
	snap.User.Username = "tampered"

	if m.Snapshot().User.Username == "tampered" {
		t.Error("mutating a returned snapshot must not affect the manager")
	}
}
