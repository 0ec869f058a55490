package selector

import (
	"errors"
	"testing"

	"github.com/pathwise/pathwise/internal/provider"
)

func catalog() []provider.ModelInfo {
	return []provider.ModelInfo{
		{Name: "models/embedding-001", SupportedActions: []string{"embedContent"}},
		{Name: "models/gemini-2.5-pro", SupportedActions: []string{"generateContent", "countTokens"}},
		{Name: "models/gemini-2.0-flash", SupportedActions: []string{"generateContent"}},
		{Name: "models/gemini-2.0-flash-lite", SupportedActions: []string{"generateContent"}},
	}
}

func TestSelectPrefersRankedSubstring(t *testing.T) {
	m, err := Select(catalog(), DefaultPreferences)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "models/gemini-2.0-flash-lite" {
		t.Errorf("selected %q, want flash-lite", m.Name)
	}
}

func TestSelectSecondPreference(t *testing.T) {
	m, err := Select(catalog(), []string{"does-not-exist", "gemini-2.5"})
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "models/gemini-2.5-pro" {
		t.Errorf("selected %q, want gemini-2.5-pro", m.Name)
	}
}

func TestSelectFallsBackToCatalogOrder(t *testing.T) {
	m, err := Select(catalog(), []string{"claude"})
	if err != nil {
		t.Fatal(err)
	}
	// First capable model in the API's own listing order.
	if m.Name != "models/gemini-2.5-pro" {
		t.Errorf("selected %q, want first capable model", m.Name)
	}
}

func TestSelectSkipsIncapableModels(t *testing.T) {
	m, err := Select(catalog(), []string{"embedding"})
	if err != nil {
		t.Fatal(err)
	}
	if m.Name == "models/embedding-001" {
		t.Error("selected a model without generateContent")
	}
}

func TestSelectNoCapableModels(t *testing.T) {
	models := []provider.ModelInfo{
		{Name: "models/embedding-001", SupportedActions: []string{"embedContent"}},
	}
	_, err := Select(models, DefaultPreferences)
	if !errors.Is(err, ErrNoUsableModel) {
		t.Fatalf("err = %v, want ErrNoUsableModel", err)
	}
}

func TestSelectDeterministic(t *testing.T) {
	first, err := Select(catalog(), DefaultPreferences)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		m, err := Select(catalog(), DefaultPreferences)
		if err != nil {
			t.Fatal(err)
		}
		if m.Name != first.Name {
			t.Fatalf("run %d selected %q, first run selected %q", i, m.Name, first.Name)
		}
	}
}
