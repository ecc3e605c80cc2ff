package output

import (
	"fmt"
	"strings"

	"github.com/sonarlens/sonarlens/internal/pplx/schema"
)

// MarkdownFormatter renders the answer with citations as a markdown list.
type MarkdownFormatter struct{}

// FormatResponse renders a chat response as Markdown.
func (f *MarkdownFormatter) FormatResponse(resp *schema.ChatResponse) (string, error) {
	if resp == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(resp.Content()))
	sb.WriteString("\n")

	if len(resp.Citations) > 0 {
		sb.WriteString("\n### Citations\n\n")
		for i, citation := range resp.Citations {
			if citation.Title != "" {
				sb.WriteString(fmt.Sprintf("%d. [%s](%s)\n", i+1, citation.Title, citation.URL))
				continue
			}
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, citation.URL))
		}
	}

	if len(resp.SearchResults) > 0 {
		sb.WriteString("\n### Sources\n\n")
		sb.WriteString("| Title | URL | Date |\n")
		sb.WriteString("|-------|-----|------|\n")
		for _, sr := range resp.SearchResults {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				escapeMarkdownCell(sr.Title),
				escapeMarkdownCell(sr.URL),
				escapeMarkdownCell(sr.Date),
			))
		}
	}

	sb.WriteString(fmt.Sprintf("\n*%s*\n", usageSummary(resp.Usage)))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
