package apierr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryable(t *testing.T) {
	retryable := []error{
		&ServerError{StatusCode: 503, Message: "unavailable"},
		&NetworkError{Message: "connection refused"},
		&TimeoutError{Message: "deadline exceeded"},
	}
	for _, err := range retryable {
		require.True(t, Retryable(err), "expected %T to be retryable", err)
	}

	terminal := []error{
		&ConfigError{Message: "bad capacity"},
		&ValidationError{Message: "missing model"},
		&AuthError{StatusCode: 401, Message: "bad key"},
		&RateLimitError{Message: "slow down"},
		&ParseError{Message: "bad json"},
	}
	for _, err := range terminal {
		require.False(t, Retryable(err), "expected %T to be terminal", err)
	}
}

func TestRetryableWrapped(t *testing.T) {
	err := fmt.Errorf("chat: %w", &ServerError{StatusCode: 500, Message: "boom"})
	require.True(t, Retryable(err))
}

func TestStatusCode(t *testing.T) {
	require.Equal(t, 401, StatusCode(&AuthError{StatusCode: 401}))
	require.Equal(t, 502, StatusCode(&ServerError{StatusCode: 502}))
	require.Equal(t, 418, StatusCode(&NetworkError{StatusCode: 418}))
	require.Equal(t, 0, StatusCode(&NetworkError{Message: "no response"}))
	require.Equal(t, 0, StatusCode(errors.New("plain")))
}

func TestRateLimitErrorMessage(t *testing.T) {
	err := &RateLimitError{Message: "too many requests", RetryAfter: 5 * time.Second}
	require.Contains(t, err.Error(), "retry after 5s")

	bare := &RateLimitError{Message: "too many requests"}
	require.NotContains(t, bare.Error(), "retry after")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &NetworkError{Message: "request failed", Cause: cause}
	require.ErrorIs(t, err, cause)
}
