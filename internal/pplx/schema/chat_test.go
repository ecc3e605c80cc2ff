package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonarlens/sonarlens/internal/pplx/apierr"
)

func TestChatRequestBuilderIsPure(t *testing.T) {
	base := NewChatRequest("sonar-pro").WithMessage(User("hello"))

	withTemp := base.WithTemperature(0.7)
	require.Nil(t, base.Temperature, "transforming a request must not mutate the original")
	require.NotNil(t, withTemp.Temperature)

	extended := base.WithMessage(Assistant("hi"))
	require.Len(t, base.Messages, 1)
	require.Len(t, extended.Messages, 2)
}

func TestChatRequestValidate(t *testing.T) {
	valid := NewChatRequest("sonar-pro").
		WithMessage(System("be brief")).
		WithMessage(User("what is Go?")).
		WithTemperature(0.2).
		WithMaxTokens(256).
		WithFrequencyPenalty(-1.5)
	require.NoError(t, valid.Validate())

	cases := []struct {
		name string
		req  ChatRequest
	}{
		{"missing model", NewChatRequest("").WithMessage(User("hi"))},
		{"no messages", NewChatRequest("sonar-pro")},
		{"empty content", NewChatRequest("sonar-pro").WithMessage(User("  "))},
		{"bad role", NewChatRequest("sonar-pro").WithMessage(Message{Role: "robot", Content: "hi"})},
		{"temperature too high", NewChatRequest("sonar-pro").WithMessage(User("hi")).WithTemperature(2.5)},
		{"negative temperature", NewChatRequest("sonar-pro").WithMessage(User("hi")).WithTemperature(-0.1)},
		{"top_p out of range", NewChatRequest("sonar-pro").WithMessage(User("hi")).WithTopP(1.5)},
		{"zero max_tokens", NewChatRequest("sonar-pro").WithMessage(User("hi")).WithMaxTokens(0)},
		{"negative top_k", NewChatRequest("sonar-pro").WithMessage(User("hi")).WithTopK(-1)},
		{"presence_penalty out of range", NewChatRequest("sonar-pro").WithMessage(User("hi")).WithPresencePenalty(2.5)},
		{"frequency_penalty too low", NewChatRequest("sonar-pro").WithMessage(User("hi")).WithFrequencyPenalty(-2.5)},
		{"frequency_penalty too high", NewChatRequest("sonar-pro").WithMessage(User("hi")).WithFrequencyPenalty(10)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			var validationErr *apierr.ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestChatRequestSerialization(t *testing.T) {
	req := NewChatRequest("sonar").
		WithMessage(User("hello")).
		WithTemperature(0.5).
		WithSearchRecencyFilter("week")

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "sonar", decoded["model"])
	require.Equal(t, 0.5, decoded["temperature"])
	require.Equal(t, "week", decoded["search_recency_filter"])
	require.NotContains(t, decoded, "max_tokens", "unset optionals must be omitted")
	require.NotContains(t, decoded, "stream")
}

func TestChatResponseContent(t *testing.T) {
	var nilResp *ChatResponse
	require.Empty(t, nilResp.Content())

	resp := &ChatResponse{Choices: []Choice{{Message: Assistant("answer")}}}
	require.Equal(t, "answer", resp.Content())
}

func TestChatResponseDecode(t *testing.T) {
	payload := `{
		"id": "resp-1",
		"model": "sonar-pro",
		"created": 1717243200,
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Go is a language."}}],
		"citations": [{"url": "https://go.dev", "title": "The Go Programming Language"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30, "cost": {"total_cost": 0.002}}
	}`

	var resp ChatResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))
	require.Equal(t, "Go is a language.", resp.Content())
	require.Equal(t, 30, resp.Usage.TotalTokens)
	require.NotNil(t, resp.Usage.Cost)
	require.Equal(t, 0.002, resp.Usage.Cost.TotalCost)
	require.Len(t, resp.Citations, 1)
}

func TestCitationDecodesBothForms(t *testing.T) {
	var fromString Citation
	require.NoError(t, json.Unmarshal([]byte(`"https://go.dev"`), &fromString))
	require.Equal(t, "https://go.dev", fromString.URL)

	var fromObject Citation
	require.NoError(t, json.Unmarshal([]byte(`{"url":"https://go.dev","title":"Go"}`), &fromObject))
	require.Equal(t, "https://go.dev", fromObject.URL)
	require.Equal(t, "Go", fromObject.Title)
}

func TestStreamChunkContent(t *testing.T) {
	chunk := &StreamChunk{Choices: []StreamChoice{{Delta: Message{Role: RoleAssistant, Content: "par"}}}}
	require.Equal(t, "par", chunk.Content())

	var empty *StreamChunk
	require.Empty(t, empty.Content())
}
