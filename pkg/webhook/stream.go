package webhook

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// StreamItemType marks the lines of the upstream pseudo-stream that carry answer text.
const StreamItemType = "item"

type streamLine struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// StreamResult is the normalized form of a line-delimited webhook body.
type StreamResult struct {
	Text    string
	Items   int
	Dropped int
}

// ParseStream reads one JSON object per line and joins the content of every
// item-typed line. Lines that are not valid JSON objects are counted in
// Dropped and otherwise ignored.
func ParseStream(r io.Reader) (StreamResult, error) {
	var (
		result StreamResult
		sb     strings.Builder
	)

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			var data streamLine
			if jsonErr := json.Unmarshal([]byte(trimmed), &data); jsonErr != nil {
				result.Dropped++
			} else if data.Type == StreamItemType && data.Content != "" {
				sb.WriteString(data.Content)
				result.Items++
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, err
		}
	}

	result.Text = sb.String()
	return result, nil
}
