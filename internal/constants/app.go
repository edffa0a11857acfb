package constants

import (
	"time"
)

// Remote service defaults
const (
	// DefaultAPIBaseURL - local development address of the allocation service
	DefaultAPIBaseURL = "http://127.0.0.1:8000"

	// DefaultAPIVersion - route convention used when none is configured ("/runs/...")
	DefaultAPIVersion = "v2"

	// DefaultRequestTimeout - per remote call timeout (2 minutes)
	// Upload with auto-allocation runs the whole allocation server-side before answering,
	// so this is deliberately generous. 0 in config disables it.
	DefaultRequestTimeout = 120 * time.Second

	// HealthCheckTimeout - timeout for the startup liveness probe (10 seconds)
	HealthCheckTimeout = 10 * time.Second

	// MaxErrorBodyBytes - cap on how much of a failed response body is read for the detail message
	MaxErrorBodyBytes = 64 * 1024
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// ProxyWarmupTimeout - timeout for the optional proxy warmup request (15 seconds)
	ProxyWarmupTimeout = 15 * time.Second
)

// Retry settings (only used when max_retries > 0)
const (
	RetryWaitMin = 1 * time.Second
	RetryWaitMax = 15 * time.Second
)

// Event Bus Configuration
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size for event channels
	EventBusMaxBuffer = 4096
)

// Log file rotation (lumberjack)
const (
	LogFileMaxSizeMB  = 10
	LogFileMaxBackups = 3
	LogFileMaxAgeDays = 14
)

// Display
const (
	// ScoreDecimals - final scores are always shown with 4 decimal places
	ScoreDecimals = 4

	// ProgressRefreshRate - refresh rate for export download bars
	ProgressRefreshRate = 300 * time.Millisecond
)
