// Package apierr defines the closed error taxonomy for the Perplexity API
// client. Every terminal failure surfaced by the client is exactly one of
// these types, so callers can branch with errors.As and decide their own
// remediation.
package apierr

import (
	"fmt"
	"time"
)

// ConfigError reports invalid client or limiter configuration. It is
// raised before any network activity.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Message
}

// ValidationError reports a request the server rejected as malformed (400)
// or a request that failed local validation before being sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Message
}

// AuthError reports an authentication or authorization failure (401, 403).
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return "authentication error: " + e.Message
}

// RateLimitError reports a server-side 429. RetryAfter is zero when the
// server did not provide a hint.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded: %s (retry after %s)", e.Message, e.RetryAfter)
	}
	return "rate limit exceeded: " + e.Message
}

// ServerError reports a retryable server-side failure (500, 502, 503, 504).
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s (status %d)", e.Message, e.StatusCode)
}

// NetworkError reports a transport-level failure or an unclassified non-2xx
// status. StatusCode is 0 when the exchange failed before a response arrived.
type NetworkError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("network error: %s (status %d)", e.Message, e.StatusCode)
	}
	return "network error: " + e.Message
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// TimeoutError reports that an exchange exceeded its deadline.
type TimeoutError struct {
	Message string
	Cause   error
}

func (e *TimeoutError) Error() string {
	return "timeout error: " + e.Message
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// ParseError reports a response payload that could not be decoded. It is
// never retried: the exchange itself succeeded, only the payload is bad.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Message
}

func (e *ParseError) Unwrap() error { return e.Cause }
