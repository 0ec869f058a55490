package plan

import (
	"errors"
	"testing"
)

func validCandidate() string {
	return `{
		"title": "Python Basics",
		"summary": "A gentle introduction.",
		"category": "programming",
		"difficulty": 1,
		"steps": [
			{
				"id": "s1",
				"title": "Syntax",
				"description": "Learn the syntax.",
				"durationMinutes": 30,
				"resources": [
					{"type": "article", "title": "Docs", "url": "https://docs.python.org"},
					{"type": "BOOK", "title": "A Python book"}
				]
			}
		]
	}`
}

func TestParseValidPlan(t *testing.T) {
	p, err := Parse([]byte(validCandidate()))
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Python Basics" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Difficulty != 1 {
		t.Errorf("Difficulty = %d, want 1", p.Difficulty)
	}
	if len(p.Steps) != 1 {
		t.Fatalf("len(Steps) = %d, want 1", len(p.Steps))
	}
	step := p.Steps[0]
	if step.DurationMinutes != 30 {
		t.Errorf("DurationMinutes = %d, want 30", step.DurationMinutes)
	}
	if len(step.Resources) != 2 {
		t.Fatalf("len(Resources) = %d, want 2", len(step.Resources))
	}
	if step.Resources[1].Kind != KindBook {
		t.Errorf("Kind = %q, want book (normalized)", step.Resources[1].Kind)
	}
}

func TestParseFieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		wantField string
	}{
		{"missing title", `{"summary":"s","steps":[]}`, "title"},
		{"blank title", `{"title":"  ","summary":"s","steps":[{}]}`, "title"},
		{"title not a string", `{"title":42,"summary":"s","steps":[{}]}`, "title"},
		{"missing summary", `{"title":"t","steps":[{}]}`, "summary"},
		{"missing steps", `{"title":"t","summary":"s"}`, "steps"},
		{"empty steps", `{"title":"t","summary":"s","steps":[]}`, "steps"},
		{"steps not an array", `{"title":"t","summary":"s","steps":"nope"}`, "steps"},
		{"step not an object", `{"title":"t","summary":"s","steps":["x"]}`, "steps[0]"},
		{"step missing id", `{"title":"t","summary":"s","steps":[{"title":"a","description":"d","durationMinutes":1,"resources":[]}]}`, "steps[0].id"},
		{"negative duration", `{"title":"t","summary":"s","steps":[{"id":"1","title":"a","description":"d","durationMinutes":-5,"resources":[]}]}`, "steps[0].durationMinutes"},
		{"string duration", `{"title":"t","summary":"s","steps":[{"id":"1","title":"a","description":"d","durationMinutes":"30","resources":[]}]}`, "steps[0].durationMinutes"},
		{"fractional duration", `{"title":"t","summary":"s","steps":[{"id":"1","title":"a","description":"d","durationMinutes":30.5,"resources":[]}]}`, "steps[0].durationMinutes"},
		{"missing resources", `{"title":"t","summary":"s","steps":[{"id":"1","title":"a","description":"d","durationMinutes":30}]}`, "steps[0].resources"},
		{"difficulty out of range", `{"title":"t","summary":"s","difficulty":4,"steps":[{"id":"1","title":"a","description":"d","durationMinutes":1,"resources":[]}]}`, "difficulty"},
		{"difficulty not integer", `{"title":"t","summary":"s","difficulty":1.5,"steps":[{"id":"1","title":"a","description":"d","durationMinutes":1,"resources":[]}]}`, "difficulty"},
		{"not an object", `[1,2,3]`, "plan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.candidate))
			var ve *ValidateError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidateError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestParseEmptyResourcesAllowed(t *testing.T) {
	candidate := `{"title":"t","summary":"s","steps":[{"id":"1","title":"a","description":"d","durationMinutes":0,"resources":[]}]}`
	p, err := Parse([]byte(candidate))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Steps[0].Resources) != 0 {
		t.Errorf("len(Resources) = %d, want 0", len(p.Steps[0].Resources))
	}
}

func TestParseDropsMalformedResources(t *testing.T) {
	candidate := `{"title":"t","summary":"s","steps":[{"id":"1","title":"a","description":"d","durationMinutes":5,"resources":["junk",{"type":"article"},{"type":"article","title":"ok"}]}]}`
	p, err := Parse([]byte(candidate))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Steps[0].Resources) != 1 {
		t.Fatalf("len(Resources) = %d, want 1", len(p.Steps[0].Resources))
	}
	if p.Steps[0].Resources[0].Title != "ok" {
		t.Errorf("surviving resource = %q, want ok", p.Steps[0].Resources[0].Title)
	}
}
