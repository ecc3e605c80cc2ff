package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sonarlens/sonarlens/internal/pplx/schema"
)

// TableFormatter renders the answer as prose followed by a citations table
// and a usage footer.
type TableFormatter struct{}

// FormatResponse renders a chat response for terminal display.
func (f *TableFormatter) FormatResponse(resp *schema.ChatResponse) (string, error) {
	if resp == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(resp.Content()))
	sb.WriteString("\n")

	if len(resp.Citations) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"#", "Citation"})
		for i, citation := range resp.Citations {
			t.AppendRow(table.Row{i + 1, citation.URL})
		}
		sb.WriteString("\n")
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}

	if len(resp.SearchResults) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Title", "URL", "Date"})
		for _, sr := range resp.SearchResults {
			t.AppendRow(table.Row{sr.Title, sr.URL, sr.Date})
		}
		sb.WriteString("\n")
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\n%s | model %s", usageSummary(resp.Usage), resp.Model))
	return sb.String(), nil
}
