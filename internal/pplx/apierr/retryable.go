package apierr

import "errors"

// Retryable reports whether the error represents a transient condition
// worth re-attempting with the same payload. Server, network, and timeout
// failures qualify; validation, auth, rate-limit, config, and parse
// failures are terminal on first occurrence.
func Retryable(err error) bool {
	var (
		serverErr  *ServerError
		networkErr *NetworkError
		timeoutErr *TimeoutError
	)
	return errors.As(err, &serverErr) ||
		errors.As(err, &networkErr) ||
		errors.As(err, &timeoutErr)
}

// StatusCode returns the HTTP status carried by the error, or 0 when the
// error has none (config, parse, transport-level failures).
func StatusCode(err error) int {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode
	}
	var networkErr *NetworkError
	if errors.As(err, &networkErr) {
		return networkErr.StatusCode
	}
	return 0
}
