package plan

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const barePlanJSON = `{"title":"Python Basics","summary":"intro","steps":[]}`

func TestExtractFencedJSON(t *testing.T) {
	raw := "Here is your plan:\n```json\n" + barePlanJSON + "\n```\nEnjoy!"
	got, err := Extract(raw)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != barePlanJSON {
		t.Errorf("Extract = %q, want %q", got, barePlanJSON)
	}
}

func TestExtractUnlabeledFence(t *testing.T) {
	raw := "```\n" + barePlanJSON + "\n```"
	got, err := Extract(raw)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != barePlanJSON {
		t.Errorf("Extract = %q, want %q", got, barePlanJSON)
	}
}

func TestExtractBareJSONIsIdempotent(t *testing.T) {
	first, err := Extract(barePlanJSON)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Extract(string(first))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("second pass = %q, want %q", second, first)
	}
}

func TestExtractProseWrappedJSON(t *testing.T) {
	raw := "Sure! The plan is {\"title\":\"Go\",\"summary\":\"s\",\"steps\":[]} — good luck."
	got, err := Extract(raw)
	if err != nil {
		t.Fatal(err)
	}
	var obj map[string]any
	if err := json.Unmarshal(got, &obj); err != nil {
		t.Fatalf("extracted span is not valid JSON: %v", err)
	}
	if obj["title"] != "Go" {
		t.Errorf("title = %v, want Go", obj["title"])
	}
}

func TestExtractRoundTripMatchesParse(t *testing.T) {
	fenced := "```json\n" + barePlanJSON + "\n```"
	got, err := Extract(fenced)
	if err != nil {
		t.Fatal(err)
	}
	var fromFence, fromBare map[string]any
	if err := json.Unmarshal(got, &fromFence); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(barePlanJSON), &fromBare); err != nil {
		t.Fatal(err)
	}
	if len(fromFence) != len(fromBare) || fromFence["title"] != fromBare["title"] {
		t.Errorf("fenced extraction diverges from bare parse: %v vs %v", fromFence, fromBare)
	}
}

func TestExtractNoObject(t *testing.T) {
	_, err := Extract("I'm sorry, I can't produce a plan for that.")
	var ee *ExtractError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *ExtractError", err)
	}
	if ee.Preview == "" {
		t.Error("expected a preview of the offending text")
	}
}

func TestExtractMalformedJSON(t *testing.T) {
	_, err := Extract("{\"title\": oops}")
	var ee *ExtractError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *ExtractError", err)
	}
	if !strings.Contains(ee.Reason, "invalid JSON") {
		t.Errorf("Reason = %q, want invalid JSON", ee.Reason)
	}
}

func TestExtractPreviewTruncated(t *testing.T) {
	_, err := Extract(strings.Repeat("no json here ", 50))
	var ee *ExtractError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *ExtractError", err)
	}
	if len(ee.Preview) > extractPreviewLen+3 {
		t.Errorf("preview length = %d, want <= %d", len(ee.Preview), extractPreviewLen+3)
	}
}
