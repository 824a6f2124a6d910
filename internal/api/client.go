// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/fleetdeck/internal/auth"
	"github.com/jeranaias/fleetdeck/internal/model"
)

// Configuration constants for the fleet API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for
	// transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// requestsPerSecond bounds the client-side request rate so a tight
	// refresh loop cannot hammer the control plane.
	requestsPerSecond = 10
	burstSize         = 20
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client with connection pooling for all fleet API requests.
// SECURITY: TLS verification required for production.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: false,
		},
	},
	Timeout: DefaultTimeout,
}

// Error variables for common fleet API errors.
var (
	// ErrUnauthorized indicates the server rejected the request's
	// credentials or session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated user lacks permission.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")
)

// APIError represents a structured error response from the fleet API.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("fleet API error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("fleet API error (HTTP %d): %s", e.Status, e.Message)
}

// apiErrorResponse represents an error response body from the API.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// TokenSource supplies the current bearer token, or "" when no token is
// held. In server-session mode the cookie jar carries the session instead.
type TokenSource func() string

// Client is the HTTP client for the fleet control plane. It implements the
// transport contract the session manager depends on, plus the inventory
// endpoints the dashboard renders.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	maxRetries int
	limiter    *rate.Limiter
	userAgent  string

	subMu   sync.Mutex
	subs    map[int]func(auth.Endpoint)
	nextSub int
}

// NewClient creates a fleet API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: sharedHTTPClient,
		token:      func() string { return "" },
		maxRetries: DefaultMaxRetries,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
		userAgent:  "fleetdeck/0.3.0",
		subs:       make(map[int]func(auth.Endpoint)),
	}
}

// WithTokenSource sets the callback that supplies the bearer token.
func (c *Client) WithTokenSource(src TokenSource) *Client {
	if src != nil {
		c.token = src
	}
	return c
}

// WithTimeout sets the request timeout. The shared pooled transport is
// kept; only the timeout differs.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient = &http.Client{
		Transport: sharedHTTPClient.Transport,
		Timeout:   timeout,
	}
	return c
}

// WithMaxRetries sets the maximum number of retry attempts.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	c.maxRetries = maxRetries
	return c
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests and by
// server-session deployments that need a cookie jar.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// UNAUTHORIZED NOTICES
// =============================================================================

// OnUnauthorized registers fn to be called whenever the server rejects a
// request with HTTP 401. The notice carries the endpoint that was rejected
// so subscribers can tell a revoked session apart from a failed sign-in.
// The returned function removes the subscription.
func (c *Client) OnUnauthorized(fn func(auth.Endpoint)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// fireUnauthorized delivers a rejection notice to all subscribers.
// Callbacks run outside the lock.
func (c *Client) fireUnauthorized(endpoint auth.Endpoint) {
	c.subMu.Lock()
	fns := make([]func(auth.Endpoint), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(endpoint)
	}
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// loginRequest is the wire form of a sign-in attempt.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the wire form of a successful sign-in.
type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expires_in"` // seconds; 0 means server default
	Profile   model.Profile `json:"profile"`
}

// Authenticate exchanges credentials for a session grant. A 401 response
// maps to auth.ErrInvalidCredentials so the sign-in form can render the
// failure without inspecting transport details.
func (c *Client) Authenticate(ctx context.Context, creds auth.Credentials) (*auth.Grant, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", auth.EndpointLogin, loginRequest{
		Email:    creds.Email,
		Password: creds.Password,
	}, &resp)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	return &auth.Grant{
		Token:     resp.Token,
		ExpiresIn: time.Duration(resp.ExpiresIn) * time.Second,
		Profile:   resp.Profile,
	}, nil
}

// ProbeIdentity asks the server who the current session belongs to.
func (c *Client) ProbeIdentity(ctx context.Context) (*model.Profile, error) {
	var profile model.Profile
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", auth.EndpointIdentity, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// InvalidateSession tells the server to revoke the current session.
func (c *Client) InvalidateSession(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", auth.EndpointLogout, nil, nil)
}

// =============================================================================
// INVENTORY ENDPOINTS
// =============================================================================

// sitesResponse is the wire form of the site listing.
type sitesResponse struct {
	Sites []model.Site `json:"sites"`
}

// devicesResponse is the wire form of the device listing.
type devicesResponse struct {
	Devices []model.Device `json:"devices"`
}

// deviceActionRequest is the wire form of a device action.
type deviceActionRequest struct {
	Action string `json:"action"`
}

// ListSites fetches all sites visible to the current user.
func (c *Client) ListSites(ctx context.Context) ([]model.Site, error) {
	var resp sitesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/sites", auth.EndpointResource, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sites, nil
}

// ListDevices fetches the devices belonging to a site.
func (c *Client) ListDevices(ctx context.Context, siteID string) ([]model.Device, error) {
	var resp devicesResponse
	path := "/api/v1/sites/" + siteID + "/devices"
	if err := c.do(ctx, http.MethodGet, path, auth.EndpointResource, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// DeviceAction dispatches a named action (restart, ping, sync) to a device.
func (c *Client) DeviceAction(ctx context.Context, deviceID, action string) error {
	path := "/api/v1/devices/" + deviceID + "/actions"
	return c.do(ctx, http.MethodPost, path, auth.EndpointResource, deviceActionRequest{Action: action}, nil)
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do runs one logical API call: rate limit, build, send with retries, decode.
// reqBody and out may be nil. A 401 at any attempt fires an unauthorized
// notice tagged with endpoint before the error is returned.
func (c *Client) do(ctx context.Context, method, path string, endpoint auth.Endpoint, reqBody, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}

		err := c.doOnce(ctx, method, path, endpoint, bodyBytes, out)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doOnce performs a single HTTP round trip.
// SECURITY: Clears Authorization header after the request to keep the
// token out of any downstream request logging.
func (c *Client) doOnce(ctx context.Context, method, path string, endpoint auth.Endpoint, bodyBytes []byte, out any) error {
	var body io.Reader
	if bodyBytes != nil {
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("API %s %s: %d (%v)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	respBody, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.fireUnauthorized(endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// setHeaders sets the headers common to every fleet API request.
func (c *Client) setHeaders(req *http.Request) {
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
}

// readResponse reads the response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// decodeError converts an HTTP error response to a typed Go error.
func decodeError(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		structured := &APIError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}
		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, structured.Message)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrForbidden, structured.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, structured.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, structured.Message)
		default:
			return structured
		}
	}

	// Fallback for unparseable error bodies.
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{Message: strings.TrimSpace(string(body)), Status: statusCode}
	}
}

// isRetryable determines if an error should trigger a retry.
func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}
	return false
}

// backoffDelay returns the delay to wait before the given retry attempt.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
