package llm

import (
	"encoding/json"
	"strings"
)

// DecodeStructured tries to read text as a JSON value. It tolerates
// surrounding whitespace and a single Markdown code fence (```json ... ```).
// It never fails loudly: ok is false and the caller keeps the raw text.
func DecodeStructured(text string) (value any, ok bool) {
	body := stripFence(strings.TrimSpace(text))
	if body == "" {
		return nil, false
	}
	if err := json.Unmarshal([]byte(body), &value); err != nil {
		return nil, false
	}
	return value, true
}

// stripFence removes a wrapping ``` block. Returns the input unchanged if the
// text is not exactly one fenced block.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	inner := text[3 : len(text)-3]
	// drop the info string ("json") on the opening line
	if nl := strings.IndexByte(inner, '\n'); nl != -1 {
		if info := strings.TrimSpace(inner[:nl]); !strings.ContainsAny(info, "{[\"") {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}
