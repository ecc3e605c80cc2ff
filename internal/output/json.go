package output

import (
	"encoding/json"

	"github.com/sonarlens/sonarlens/internal/pplx/schema"
)

// JSONFormatter renders the raw response as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatResponse renders a chat response as JSON.
func (f *JSONFormatter) FormatResponse(resp *schema.ChatResponse) (string, error) {
	if resp == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(resp, "", "  ")
	} else {
		data, err = json.Marshal(resp)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
