package schema

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens      int    `json:"prompt_tokens"`
	CompletionTokens  int    `json:"completion_tokens"`
	TotalTokens       int    `json:"total_tokens"`
	SearchContextSize string `json:"search_context_size,omitempty"`
	Cost              *Cost  `json:"cost,omitempty"`
}

// Cost breaks down the billed cost of one completion in dollars.
type Cost struct {
	InputTokensCost  float64 `json:"input_tokens_cost"`
	OutputTokensCost float64 `json:"output_tokens_cost"`
	RequestCost      float64 `json:"request_cost"`
	TotalCost        float64 `json:"total_cost"`
}
