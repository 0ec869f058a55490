package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const extractPreviewLen = 120

// ExtractError reports that no JSON object could be located in a model
// response. Preview carries a short prefix of the offending text for
// diagnostics; it is safe to log but is never echoed to callers verbatim.
type ExtractError struct {
	Reason  string
	Preview string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract plan JSON: %s (text: %q)", e.Reason, e.Preview)
}

// Fenced code block, optionally labeled json. Models wrap structured
// output in markdown fencing inconsistently, so this is tried first.
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Extract locates the plan JSON object inside raw model output. It prefers
// a fenced code block containing an object; failing that it takes the span
// from the first '{' to the last '}'. The selected span must parse as a
// JSON object. Extract is idempotent on already-bare JSON.
func Extract(raw string) ([]byte, error) {
	span := ""
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		span = m[1]
	} else {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return nil, &ExtractError{Reason: "no JSON object found", Preview: preview(raw)}
		}
		span = raw[start : end+1]
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil, &ExtractError{Reason: "invalid JSON: " + err.Error(), Preview: preview(span)}
	}
	return []byte(span), nil
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > extractPreviewLen {
		return s[:extractPreviewLen] + "..."
	}
	return s
}
