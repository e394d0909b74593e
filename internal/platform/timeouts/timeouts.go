// Package timeouts defines shared timeout constants used across the app.
// Centralizing these values prevents drift between surfaces and makes the
// durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// CatalogRequest caps the time allowed for a single call to the upstream
// metadata-catalog API.
const CatalogRequest = 10 * time.Second

// TokenVerify caps the time allowed for a tokeninfo verification call.
const TokenVerify = 5 * time.Second

// SessionCleanupInterval is how often expired session rows are swept.
const SessionCleanupInterval = 15 * time.Minute
