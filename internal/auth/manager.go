// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/fleetdeck/internal/model"
)

// =============================================================================
// TRANSPORT CONTRACT
// =============================================================================

// Endpoint tags the origin of an unauthorized notice so the Manager can
// exclude the auth endpoints themselves: a 401 from login is a normal
// failure result, not a revoked session, and must not redirect.
type Endpoint string

const (
	// EndpointLogin is the credential verification endpoint.
	EndpointLogin Endpoint = "login"

	// EndpointIdentity is the identity probe endpoint.
	EndpointIdentity Endpoint = "identity"

	// EndpointLogout is the server-side session invalidation endpoint.
	EndpointLogout Endpoint = "logout"

	// EndpointResource is any other authenticated endpoint.
	EndpointResource Endpoint = "resource"
)

// authEndpoint reports whether e is one of the endpoints whose rejections
// are returned to the caller instead of forcing a logout.
func authEndpoint(e Endpoint) bool {
	return e == EndpointLogin || e == EndpointIdentity || e == EndpointLogout
}

// Grant is the artifact returned by a successful credential verification.
// ExpiresIn is zero when the server did not supply a validity window.
type Grant struct {
	Token     string
	ExpiresIn time.Duration
	Profile   model.Profile
}

// Transport is the HTTP collaborator the Manager delegates to. Errors
// cross this boundary as plain errors; the Manager converts them into
// snapshot transitions and typed results.
type Transport interface {
	Authenticate(ctx context.Context, creds Credentials) (*Grant, error)
	ProbeIdentity(ctx context.Context) (*model.Profile, error)
	InvalidateSession(ctx context.Context) error
}

// UnauthorizedSource is implemented by transports that can report
// unauthorized responses observed on any request. The Manager subscribes
// at construction and unregisters at Close.
type UnauthorizedSource interface {
	OnUnauthorized(fn func(Endpoint)) (cancel func())
}

// ErrInvalidCredentials is returned by transports when the server rejects
// the supplied credentials.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials are the values collected by the login form.
type Credentials struct {
	Email    string
	Password string
}

// LoginResult is the outcome of a Login call. Exactly one of Profile or
// Message is meaningful: OK carries the profile, failure carries a
// human-readable message for the form to render.
type LoginResult struct {
	OK      bool
	Profile *model.Profile
	Message string
}

// =============================================================================
// NAVIGATION
// =============================================================================

// NavReason explains why the Manager is sending the UI to the entry point.
type NavReason int

const (
	// NavSignedOut follows an explicit logout.
	NavSignedOut NavReason = iota

	// NavSessionExpired follows the session clock firing.
	NavSessionExpired

	// NavSessionRevoked follows an unauthorized notice on a live session.
	NavSessionRevoked
)

// String returns a user-facing notice for the reason.
func (r NavReason) String() string {
	switch r {
	case NavSessionExpired:
		return "Session expired. Please sign in again."
	case NavSessionRevoked:
		return "Session is no longer valid. Please sign in again."
	default:
		return "Signed out."
	}
}

// =============================================================================
// MODE
// =============================================================================

// Mode selects the credential strategy for a deployment. Exactly one mode
// is active per running instance.
type Mode string

const (
	// ModeBearer holds an opaque token client-side; the Manager owns
	// validity decisions by comparing the stored expiry against the clock.
	ModeBearer Mode = "bearer"

	// ModeSession trusts a server-held artifact; the identity probe and
	// unauthorized notices are the only sources of truth.
	ModeSession Mode = "session"
)

// DefaultValidity is the fallback session window applied when the server
// does not supply one.
const DefaultValidity = 24 * time.Hour

// =============================================================================
// MANAGER
// =============================================================================

// Manager is the session state machine. It is the sole writer of the
// Snapshot and of the credential store.
type Manager struct {
	mu sync.Mutex

	transport Transport
	store     CredentialStore
	clock     *Clock
	mode      Mode
	validity  time.Duration

	state    State
	snapshot Snapshot

	// gen increments whenever a session ends for any reason. In-flight
	// network completions compare against it so a late response cannot
	// resurrect a dead session.
	gen uint64

	checked bool

	navigate    func(NavReason)
	listeners   map[int]func(Snapshot)
	nextListen  int
	unsubNotice func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithMode selects the deployment's credential strategy.
func WithMode(mode Mode) Option {
	return func(m *Manager) {
		if mode == ModeBearer || mode == ModeSession {
			m.mode = mode
		}
	}
}

// WithValidity sets the fallback session window for bearer mode.
func WithValidity(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.validity = d
		}
	}
}

// WithNavigate sets the side effect invoked whenever the Manager sends the
// user to the entry point.
func WithNavigate(fn func(NavReason)) Option {
	return func(m *Manager) {
		m.navigate = fn
	}
}

// NewManager creates a Manager in the Verifying state. If the transport
// also implements UnauthorizedSource, the Manager subscribes to its
// unauthorized notices until Close.
func NewManager(transport Transport, store CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		transport: transport,
		store:     store,
		clock:     NewClock(),
		mode:      ModeBearer,
		validity:  DefaultValidity,
		state:     StateVerifying,
		snapshot:  Snapshot{Loading: true},
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}

	if src, ok := transport.(UnauthorizedSource); ok {
		m.unsubNotice = src.OnUnauthorized(m.handleUnauthorized)
	}

	return m
}

// Close cancels the session clock and detaches from the transport's
// unauthorized notices. It does not end the session.
func (m *Manager) Close() {
	m.clock.Cancel()
	if m.unsubNotice != nil {
		m.unsubNotice()
		m.unsubNotice = nil
	}
}

// Snapshot returns a copy of the last fully committed session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot.clone()
}

// State returns the Manager's current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Mode returns the active credential strategy.
func (m *Manager) Mode() Mode {
	return m.mode
}

// Subscribe registers fn to receive every committed snapshot. The returned
// function removes the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextListen
	m.nextListen++
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// =============================================================================
// CHECK AUTH
// =============================================================================

// CheckAuth runs the startup validity check. Loading drops exactly once, at
// the end of this call, regardless of outcome. Calling it a second time is
// a no-op.
func (m *Manager) CheckAuth(ctx context.Context) {
	m.mu.Lock()
	if m.checked {
		m.mu.Unlock()
		return
	}
	m.checked = true
	mode := m.mode
	m.mu.Unlock()

	switch mode {
	case ModeSession:
		m.checkServerSession(ctx)
	default:
		m.checkBearer()
	}
}

// checkBearer restores a stored credential whose expiry is strictly in the
// future, otherwise clears the store.
func (m *Manager) checkBearer() {
	cred, err := m.store.Load()
	if err != nil {
		log.Printf("auth: credential load failed: %v", err)
		cred = nil
	}

	if cred == nil || !cred.ExpiresAt.After(time.Now()) {
		if err := m.store.Clear(); err != nil {
			log.Printf("auth: credential clear failed: %v", err)
		}
		m.commitUnauthenticated()
		return
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	profile := cred.Profile
	m.snapshot = Snapshot{User: &profile, IsAuthenticated: true}
	m.mu.Unlock()

	m.clock.Schedule(cred.ExpiresAt, m.expire)
	m.notify()
}

// checkServerSession probes the server for the current identity. Any
// failure, including a network failure, resolves to Unauthenticated.
func (m *Manager) checkServerSession(ctx context.Context) {
	profile, err := m.transport.ProbeIdentity(ctx)
	if err != nil || profile == nil {
		if err != nil {
			log.Printf("auth: identity probe failed: %v", err)
		}
		m.commitUnauthenticated()
		return
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.snapshot = Snapshot{User: profile, IsAuthenticated: true}
	m.mu.Unlock()

	m.notify()
}

// commitUnauthenticated moves to Unauthenticated without navigation; used
// by the startup check, which renders the entry point through the guard.
func (m *Manager) commitUnauthenticated() {
	m.mu.Lock()
	m.state = StateUnauthenticated
	m.snapshot = Snapshot{}
	m.mu.Unlock()
	m.notify()
}

// =============================================================================
// LOGIN
// =============================================================================

// Login delegates credential verification to the transport. It never
// returns an error: failures come back as a LoginResult carrying a message
// for the form. Concurrent calls are not coalesced; the last call to
// complete wins. A completion that lands after the session ended for any
// other reason is discarded.
func (m *Manager) Login(ctx context.Context, creds Credentials) LoginResult {
	m.mu.Lock()
	startGen := m.gen
	m.mu.Unlock()

	grant, err := m.transport.Authenticate(ctx, creds)
	if err != nil {
		return LoginResult{OK: false, Message: loginMessage(err)}
	}
	if grant == nil {
		return LoginResult{OK: false, Message: "sign-in failed: empty response"}
	}

	window := grant.ExpiresIn
	if window <= 0 {
		window = m.validity
	}
	expiresAt := time.Now().Add(window)

	m.mu.Lock()
	if m.gen != startGen {
		// The session ended while this call was in flight; adopting the
		// result now would resurrect a dead session.
		m.mu.Unlock()
		return LoginResult{OK: false, Message: "sign-in was superseded, please try again"}
	}

	profile := grant.Profile
	m.state = StateAuthenticated
	m.snapshot = Snapshot{User: &profile, IsAuthenticated: true}

	// Persist and arm the expiry while still holding the lock so a racing
	// forced logout cannot interleave between adoption and scheduling.
	if m.mode == ModeBearer {
		cred := &StoredCredential{Token: grant.Token, ExpiresAt: expiresAt, Profile: profile}
		if err := m.store.Save(cred); err != nil {
			log.Printf("auth: credential save failed: %v", err)
		}
		m.clock.Schedule(expiresAt, m.expire)
	}
	m.mu.Unlock()

	m.notify()
	return LoginResult{OK: true, Profile: &profile}
}

// loginMessage maps a transport error to the message the form renders.
func loginMessage(err error) string {
	if errors.Is(err, ErrInvalidCredentials) {
		return "Invalid email or password."
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Sign-in timed out. Check your connection and try again."
	}
	return "Sign-in failed: " + err.Error()
}

// =============================================================================
// LOGOUT
// =============================================================================

// Logout ends the session unconditionally: it cancels the scheduled
// expiry, clears the store, notifies the server best-effort, and navigates
// to the entry point. Safe to call while already unauthenticated.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.clock.Cancel()
	m.endSessionLocked()
	if err := m.store.Clear(); err != nil {
		log.Printf("auth: credential clear failed: %v", err)
	}
	m.mu.Unlock()

	// Best-effort server invalidation; failure never blocks local clearing.
	if err := m.transport.InvalidateSession(ctx); err != nil {
		log.Printf("auth: server-side invalidation failed: %v", err)
	}

	m.nav(NavSignedOut)
	m.notify()
}

// expire is the session clock callback.
func (m *Manager) expire() {
	m.forceLogout(NavSessionExpired)
}

// handleUnauthorized receives unauthorized notices from the transport.
// Rejections from the auth endpoints themselves are normal failure results
// and are ignored here to avoid a redirect loop with the entry point.
func (m *Manager) handleUnauthorized(endpoint Endpoint) {
	if authEndpoint(endpoint) {
		return
	}
	m.forceLogout(NavSessionRevoked)
}

// forceLogout handles expiry and external revocation. Idempotent: a signal
// arriving after the session already ended is a no-op, so racing expiry
// and revocation produce exactly one transition and one navigation.
func (m *Manager) forceLogout(reason NavReason) {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	m.clock.Cancel()
	m.endSessionLocked()
	if err := m.store.Clear(); err != nil {
		log.Printf("auth: credential clear failed: %v", err)
	}
	m.mu.Unlock()

	m.nav(reason)
	m.notify()
}

// endSessionLocked transitions to Unauthenticated and invalidates all
// in-flight completions. Caller holds m.mu.
func (m *Manager) endSessionLocked() {
	m.state = StateUnauthenticated
	m.snapshot = Snapshot{}
	m.gen++
}

// =============================================================================
// NOTIFICATION
// =============================================================================

// notify delivers the committed snapshot to all subscribers. Listeners are
// invoked outside the lock.
func (m *Manager) notify() {
	m.mu.Lock()
	snap := m.snapshot.clone()
	fns := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (m *Manager) nav(reason NavReason) {
	if m.navigate != nil {
		m.navigate(reason)
	}
}
