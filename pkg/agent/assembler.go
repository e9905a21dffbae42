package agent

import (
	"encoding/json"
	"strings"
)

// Assembly is the result of reassembling a streamed model response.
type Assembly struct {
	Text         string
	ValidLines   int
	InvalidLines int
}

// Assemble splits raw on line feeds, decodes each non-blank line as a JSON
// chunk and concatenates the message.content fragments in order.
//
// Lines that fail to decode are counted and dropped. An empty result yields
// ErrEmptyOutput; the counts are still returned so callers can record them.
func Assemble(raw []byte) (Assembly, error) {
	var (
		asm  Assembly
		text strings.Builder
	)

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var chunk any
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			asm.InvalidLines++
			continue
		}
		asm.ValidLines++

		text.WriteString(chunkContent(chunk))
	}

	asm.Text = strings.TrimSpace(text.String())
	if asm.Text == "" {
		return asm, responseError(ErrEmptyOutput, assemblyDetails(asm))
	}
	return asm, nil
}

// chunkContent returns message.content, or "" when the chunk has no string
// content at that path.
func chunkContent(chunk any) string {
	obj, ok := chunk.(map[string]any)
	if !ok {
		return ""
	}
	msg, ok := obj["message"].(map[string]any)
	if !ok {
		return ""
	}
	content, _ := msg["content"].(string)
	return content
}

func assemblyDetails(asm Assembly) string {
	switch {
	case asm.ValidLines == 0 && asm.InvalidLines == 0:
		return "model returned no stream lines"
	case asm.ValidLines == 0:
		return "no stream line was valid JSON"
	default:
		return "stream lines carried no message content"
	}
}
