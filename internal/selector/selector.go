// Package selector picks which backend model a generation request should
// use: it filters the live catalog to content-generation-capable models
// and ranks them against an operator-configured preference list.
package selector

import (
	"errors"
	"strings"

	"github.com/pathwise/pathwise/internal/provider"
)

// ErrNoUsableModel means the catalog contains zero models capable of
// content generation. This is a configuration/availability problem, not a
// transient failure, and is never retried.
var ErrNoUsableModel = errors.New("no model with content-generation capability available")

// DefaultPreferences ranks lighter, cheaper models first to reduce
// contention. Substring matching keeps it resilient to upstream version
// suffix churn; operators override the list in config.
var DefaultPreferences = []string{
	"gemini-2.0-flash-lite",
	"gemini-2.0-flash",
	"flash",
	"gemini",
}

// Select returns the preferred content-generation-capable model.
// Preferences are ordered name substrings; the first preference matching a
// capable model wins. When no preference matches, the first capable model
// in catalog order is returned, preserving the API's own listing order.
// Given a fixed catalog and preference list the result is deterministic.
func Select(models []provider.ModelInfo, preferences []string) (provider.ModelInfo, error) {
	capable := make([]provider.ModelInfo, 0, len(models))
	for _, m := range models {
		if m.SupportsAction(provider.GenerateAction) {
			capable = append(capable, m)
		}
	}
	if len(capable) == 0 {
		return provider.ModelInfo{}, ErrNoUsableModel
	}

	for _, pref := range preferences {
		for _, m := range capable {
			if strings.Contains(m.Name, pref) {
				return m, nil
			}
		}
	}
	return capable[0], nil
}
