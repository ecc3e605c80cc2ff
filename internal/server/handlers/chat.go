package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/sonarlens/sonarlens/internal/errors"
	"github.com/sonarlens/sonarlens/internal/history"
	"github.com/sonarlens/sonarlens/internal/observability"
	"github.com/sonarlens/sonarlens/internal/pplx"
	"github.com/sonarlens/sonarlens/internal/pplx/schema"
	"github.com/sonarlens/sonarlens/internal/prompt"
	"github.com/sonarlens/sonarlens/internal/server/middleware"
)

// ChatHandler serves chat-completion requests over HTTP.
type ChatHandler struct {
	client  *pplx.Client
	history *history.Store
	presets prompt.Registry
}

// NewChatHandler builds a chat handler. history and presets may be nil.
func NewChatHandler(client *pplx.Client, store *history.Store, presets prompt.Registry) *ChatHandler {
	return &ChatHandler{client: client, history: store, presets: presets}
}

// ChatAPIRequest is the request body for POST /v1/chat. It is a chat request
// optionally seeded by a named preset.
type ChatAPIRequest struct {
	Preset string `json:"preset,omitempty"`
	schema.ChatRequest
}

func (h *ChatHandler) buildRequest(r *http.Request) (schema.ChatRequest, error) {
	var body ChatAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return schema.ChatRequest{}, apperrors.NewInvalidInputError("invalid request body: " + err.Error())
	}

	req := body.ChatRequest
	if body.Preset != "" {
		if h.presets == nil {
			return schema.ChatRequest{}, apperrors.NewInvalidInputError("presets are not configured")
		}
		preset, err := h.presets.Get(body.Preset)
		if err != nil {
			return schema.ChatRequest{}, apperrors.NewInvalidInputError(err.Error())
		}
		req = preset.Apply(req)
	}
	return req, nil
}

// Complete handles POST /v1/chat.
func (h *ChatHandler) Complete(w http.ResponseWriter, r *http.Request) {
	req, err := h.buildRequest(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	resp, err := h.client.Chat(r.Context(), req)
	if err != nil {
		respondWithError(w, r, apperrors.FromAPIError(r.Context(), err))
		return
	}

	h.recordExchange(r, req, resp)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// Stream handles POST /v1/chat/stream, relaying chunks as server-sent events.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	req, err := h.buildRequest(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, r, apperrors.NewInternalError("streaming unsupported by connection"))
		return
	}

	wroteHeader := false
	err = h.client.ChatStream(r.Context(), req, func(chunk schema.StreamChunk) error {
		if !wroteHeader {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			wroteHeader = true
		}

		data, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		// Errors before the first chunk still get a proper status; after
		// that the stream just ends early.
		if !wroteHeader {
			respondWithError(w, r, apperrors.FromAPIError(r.Context(), err))
			return
		}
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("stream aborted",
				zap.Error(err),
				zap.String("request_id", middleware.GetRequestID(r.Context())))
		}
		return
	}

	if wroteHeader {
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

func (h *ChatHandler) recordExchange(r *http.Request, req schema.ChatRequest, resp *schema.ChatResponse) {
	if h.history == nil {
		return
	}

	ex := history.NewExchange(middleware.GetRequestID(r.Context()), req, resp)
	if _, err := h.history.Save(r.Context(), ex); err != nil && observability.ServerLogger != nil {
		observability.ServerLogger.Warn("failed to record exchange", zap.Error(err))
	}
}
