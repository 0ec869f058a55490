package plan

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ValidateError names the first field that failed schema validation.
type ValidateError struct {
	Field  string
	Reason string
}

func (e *ValidateError) Error() string {
	return fmt.Sprintf("invalid plan: field %q %s", e.Field, e.Reason)
}

// Parse checks a candidate JSON object against the Plan schema and builds
// the Plan. Checks run in order and stop at the first failure; fields are
// never silently coerced. Unknown resource kinds are accepted as-is.
func Parse(raw []byte) (*Plan, error) {
	var candidate map[string]any
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return nil, &ValidateError{Field: "plan", Reason: "is not a JSON object"}
	}

	title, err := requireString(candidate, "title")
	if err != nil {
		return nil, err
	}
	summary, err := requireString(candidate, "summary")
	if err != nil {
		return nil, err
	}

	rawSteps, ok := candidate["steps"].([]any)
	if !ok || len(rawSteps) == 0 {
		return nil, &ValidateError{Field: "steps", Reason: "must be a non-empty array"}
	}

	p := &Plan{
		Title:   title,
		Summary: summary,
		Steps:   make([]Step, 0, len(rawSteps)),
	}

	if cat, ok := candidate["category"].(string); ok {
		p.Category = cat
	}
	if diff, ok := candidate["difficulty"]; ok && diff != nil {
		n, ok := asInt(diff)
		if !ok || n < 1 || n > 3 {
			return nil, &ValidateError{Field: "difficulty", Reason: "must be an integer between 1 and 3"}
		}
		p.Difficulty = n
	}

	for i, rawStep := range rawSteps {
		step, err := parseStep(rawStep, i)
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

func parseStep(raw any, index int) (Step, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Step{}, &ValidateError{Field: stepField(index, ""), Reason: "must be an object"}
	}

	var step Step
	for _, field := range []string{"id", "title", "description"} {
		s, ok := obj[field].(string)
		if !ok || s == "" {
			return Step{}, &ValidateError{Field: stepField(index, field), Reason: "must be a non-empty string"}
		}
		switch field {
		case "id":
			step.ID = s
		case "title":
			step.Title = s
		case "description":
			step.Description = s
		}
	}

	dur, ok := asInt(obj["durationMinutes"])
	if !ok || dur < 0 {
		return Step{}, &ValidateError{Field: stepField(index, "durationMinutes"), Reason: "must be a non-negative integer"}
	}
	step.DurationMinutes = dur

	rawResources, ok := obj["resources"].([]any)
	if !ok {
		return Step{}, &ValidateError{Field: stepField(index, "resources"), Reason: "must be an array"}
	}
	step.Resources = make([]Resource, 0, len(rawResources))
	for _, rawRes := range rawResources {
		res, ok := parseResource(rawRes)
		if !ok {
			continue // malformed resource entries are droppable, not fatal
		}
		step.Resources = append(step.Resources, res)
	}
	return step, nil
}

func parseResource(raw any) (Resource, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Resource{}, false
	}
	title, ok := obj["title"].(string)
	if !ok || title == "" {
		return Resource{}, false
	}
	res := Resource{Title: title}
	if kind, ok := obj["type"].(string); ok {
		res.Kind = ResourceKind(strings.ToLower(kind))
	}
	if u, ok := obj["url"].(string); ok {
		res.URL = u
	}
	if src, ok := obj["source"].(string); ok {
		res.Source = src
	}
	if paid, ok := obj["isPaid"].(bool); ok {
		res.IsPaid = paid
	}
	return res, true
}

func requireString(obj map[string]any, field string) (string, error) {
	s, ok := obj[field].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", &ValidateError{Field: field, Reason: "must be a non-empty string"}
	}
	return s, nil
}

// asInt accepts JSON numbers that are whole-valued. Strings and fractional
// numbers are rejected.
func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func stepField(index int, field string) string {
	if field == "" {
		return fmt.Sprintf("steps[%d]", index)
	}
	return fmt.Sprintf("steps[%d].%s", index, field)
}
