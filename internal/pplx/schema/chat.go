package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sonarlens/sonarlens/internal/pplx/apierr"
)

// ChatRequest is a chat-completion request. It is a value type: the With
// helpers return modified copies, so a request can be built up through a
// sequence of pure transformations and validated once before serialization.
type ChatRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      *float64  `json:"temperature,omitempty"`
	MaxTokens        *int      `json:"max_tokens,omitempty"`
	TopP             *float64  `json:"top_p,omitempty"`
	TopK             *int      `json:"top_k,omitempty"`
	PresencePenalty  *float64  `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty"`
	Stream           bool      `json:"stream,omitempty"`
	ReturnCitations  bool      `json:"return_citations,omitempty"`
	ReturnImages     bool      `json:"return_images,omitempty"`

	SearchDomainFilter  []string `json:"search_domain_filter,omitempty"`
	SearchRecencyFilter string   `json:"search_recency_filter,omitempty"`
}

// NewChatRequest returns a request for the given model with citations
// enabled, matching the API default a caller usually wants.
func NewChatRequest(model string) ChatRequest {
	return ChatRequest{Model: model, ReturnCitations: true}
}

// WithMessage appends a message.
func (r ChatRequest) WithMessage(msg Message) ChatRequest {
	msgs := make([]Message, 0, len(r.Messages)+1)
	msgs = append(msgs, r.Messages...)
	r.Messages = append(msgs, msg)
	return r
}

// WithMessages replaces the message list.
func (r ChatRequest) WithMessages(msgs ...Message) ChatRequest {
	r.Messages = append([]Message(nil), msgs...)
	return r
}

// WithTemperature sets the sampling temperature.
func (r ChatRequest) WithTemperature(v float64) ChatRequest {
	r.Temperature = &v
	return r
}

// WithMaxTokens caps the completion length.
func (r ChatRequest) WithMaxTokens(n int) ChatRequest {
	r.MaxTokens = &n
	return r
}

// WithTopP sets nucleus-sampling probability mass.
func (r ChatRequest) WithTopP(v float64) ChatRequest {
	r.TopP = &v
	return r
}

// WithTopK sets top-k filtering.
func (r ChatRequest) WithTopK(n int) ChatRequest {
	r.TopK = &n
	return r
}

// WithPresencePenalty sets the presence penalty.
func (r ChatRequest) WithPresencePenalty(v float64) ChatRequest {
	r.PresencePenalty = &v
	return r
}

// WithFrequencyPenalty sets the frequency penalty.
func (r ChatRequest) WithFrequencyPenalty(v float64) ChatRequest {
	r.FrequencyPenalty = &v
	return r
}

// WithStream toggles server-sent-event streaming.
func (r ChatRequest) WithStream(on bool) ChatRequest {
	r.Stream = on
	return r
}

// WithSearchDomainFilter restricts web search to the given domains.
func (r ChatRequest) WithSearchDomainFilter(domains ...string) ChatRequest {
	r.SearchDomainFilter = append([]string(nil), domains...)
	return r
}

// WithSearchRecencyFilter restricts search results by age ("day", "week", ...).
func (r ChatRequest) WithSearchRecencyFilter(filter string) ChatRequest {
	r.SearchRecencyFilter = filter
	return r
}

// Validate checks the request before serialization. All failures are
// ValidationErrors so they are terminal and never retried.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return &apierr.ValidationError{Message: "model is required"}
	}
	if len(r.Messages) == 0 {
		return &apierr.ValidationError{Message: "at least one message is required"}
	}
	for i, msg := range r.Messages {
		if !msg.Role.Valid() {
			return &apierr.ValidationError{Message: fmt.Sprintf("message %d: unknown role %q", i, msg.Role)}
		}
		if strings.TrimSpace(msg.Content) == "" {
			return &apierr.ValidationError{Message: fmt.Sprintf("message %d: content is required", i)}
		}
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return &apierr.ValidationError{Message: "temperature must be between 0.0 and 2.0"}
	}
	if r.TopP != nil && (*r.TopP < 0 || *r.TopP > 1) {
		return &apierr.ValidationError{Message: "top_p must be between 0.0 and 1.0"}
	}
	if r.TopK != nil && *r.TopK < 0 {
		return &apierr.ValidationError{Message: "top_k cannot be negative"}
	}
	if r.MaxTokens != nil && *r.MaxTokens <= 0 {
		return &apierr.ValidationError{Message: "max_tokens must be positive"}
	}
	if r.PresencePenalty != nil && (*r.PresencePenalty < -2 || *r.PresencePenalty > 2) {
		return &apierr.ValidationError{Message: "presence_penalty must be between -2.0 and 2.0"}
	}
	if r.FrequencyPenalty != nil && (*r.FrequencyPenalty < -2 || *r.FrequencyPenalty > 2) {
		return &apierr.ValidationError{Message: "frequency_penalty must be between -2.0 and 2.0"}
	}
	return nil
}

// Choice is one generated completion candidate.
type Choice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
}

// Citation is a source reference returned alongside a completion. The API
// emits citations either as bare URL strings or as objects; both decode into
// this type.
type Citation struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Date    string `json:"date,omitempty"`
}

// UnmarshalJSON accepts both `"https://example.com"` and
// `{"url": "https://example.com", ...}`.
func (c *Citation) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.URL)
	}

	type plain Citation
	return json.Unmarshal(data, (*plain)(c))
}

// SearchResult is a web search hit surfaced by the model.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet,omitempty"`
	Date        string `json:"date,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// ChatResponse is a parsed chat-completion response.
type ChatResponse struct {
	ID            string         `json:"id"`
	Model         string         `json:"model"`
	Created       int64          `json:"created"`
	Choices       []Choice       `json:"choices"`
	Citations     []Citation     `json:"citations,omitempty"`
	SearchResults []SearchResult `json:"search_results,omitempty"`
	Usage         Usage          `json:"usage"`
}

// Content returns the text of the first choice, or "" when there is none.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
