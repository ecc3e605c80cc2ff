package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sonarlens/sonarlens/internal/pplx/ratelimit"
)

// RateLimitHandler exposes the client's admission window.
type RateLimitHandler struct {
	limiter *ratelimit.Limiter
}

// NewRateLimitHandler builds a rate-limit handler.
func NewRateLimitHandler(limiter *ratelimit.Limiter) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter}
}

// RateLimitStatus is the response body for GET /v1/ratelimit.
type RateLimitStatus struct {
	Enabled       bool `json:"enabled"`
	Limit         int  `json:"limit"`
	Used          int  `json:"used"`
	Remaining     int  `json:"remaining"`
	WindowSeconds int  `json:"window_seconds"`
}

// Status handles GET /v1/ratelimit.
func (h *RateLimitHandler) Status(w http.ResponseWriter, r *http.Request) {
	used := h.limiter.Count()
	limit := h.limiter.Limit()

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	response := RateLimitStatus{
		Enabled:       h.limiter.Enabled(),
		Limit:         limit,
		Used:          used,
		Remaining:     remaining,
		WindowSeconds: int(ratelimit.Window.Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// Reset handles POST /v1/ratelimit/reset.
func (h *RateLimitHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.limiter.Reset()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"reset"}`))
}
