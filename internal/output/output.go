// Package output renders chat completions for the CLI in table, JSON, or
// markdown form.
package output

import (
	"fmt"
	"strings"

	"github.com/sonarlens/sonarlens/internal/pplx/schema"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders chat responses.
type Formatter interface {
	FormatResponse(resp *schema.ChatResponse) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// usageSummary renders token counts and, when the API reported it, the
// request cost.
func usageSummary(usage schema.Usage) string {
	summary := fmt.Sprintf("%d prompt + %d completion = %d tokens",
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
	if usage.Cost != nil {
		summary += fmt.Sprintf(" ($%.6f)", usage.Cost.TotalCost)
	}
	return summary
}
