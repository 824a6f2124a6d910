// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the fleet control plane.
//
// The client wraps every request with the same plumbing: a shared pooled
// transport with TLS 1.2 minimum, a token-bucket rate limiter, a per-request
// X-Request-ID for server-side correlation, retry with exponential backoff
// on transient failures, and a response size cap.
//
// HTTP 401 responses do double duty: they surface as ErrUnauthorized to the
// caller and are broadcast to subscribers registered via OnUnauthorized,
// tagged with the endpoint that was rejected. The session layer uses those
// notices to detect server-side revocation.
package api
