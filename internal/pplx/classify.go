package pplx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sonarlens/sonarlens/internal/pplx/apierr"
	"github.com/sonarlens/sonarlens/internal/pplx/transport"
)

// maxInlineErrorBody caps how much of an unparseable response body is used
// verbatim as an error message.
const maxInlineErrorBody = 200

// classify maps one transport outcome onto the closed error taxonomy.
// On success it returns the response body and a nil error; the retry loop
// branches on the returned error instead of the raw outcome.
func classify(res *transport.Result, err error) ([]byte, error) {
	if err != nil {
		if isTimeout(err) {
			return nil, &apierr.TimeoutError{Message: "request timed out", Cause: err}
		}
		return nil, &apierr.NetworkError{Message: "request failed: " + err.Error(), Cause: err}
	}

	status := res.StatusCode
	if status >= 200 && status < 300 {
		return res.Body, nil
	}

	message := errorMessage(res.Body, status)
	switch status {
	case 400:
		return nil, &apierr.ValidationError{Message: message}
	case 401, 403:
		return nil, &apierr.AuthError{StatusCode: status, Message: message}
	case 429:
		return nil, &apierr.RateLimitError{Message: message, RetryAfter: retryAfterHint(res.Body)}
	case 500, 502, 503, 504:
		return nil, &apierr.ServerError{StatusCode: status, Message: message}
	default:
		return nil, &apierr.NetworkError{StatusCode: status, Message: message}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// errorMessage extracts a human-readable message from an error response
// body: a JSON `error` string, an `error.message` object field, the raw
// body when it is short and not JSON, or a generic "HTTP <code>" fallback.
func errorMessage(body []byte, status int) string {
	fallback := fmt.Sprintf("HTTP %d", status)
	if len(body) == 0 {
		return fallback
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		if trimmed := strings.TrimSpace(string(body)); trimmed != "" && len(body) < maxInlineErrorBody {
			return trimmed
		}
		return fallback
	}

	raw, ok := envelope["error"]
	if !ok {
		return fallback
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil && strings.TrimSpace(asString) != "" {
		return asString
	}

	var asObject struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil && strings.TrimSpace(asObject.Message) != "" {
		return asObject.Message
	}

	return fallback
}

// retryAfterHint parses the optional retry_after field (seconds) from a
// 429 response body. Zero means the server gave no hint.
func retryAfterHint(body []byte) time.Duration {
	var hint struct {
		RetryAfter int `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &hint); err != nil || hint.RetryAfter <= 0 {
		return 0
	}
	return time.Duration(hint.RetryAfter) * time.Second
}
