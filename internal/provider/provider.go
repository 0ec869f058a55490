// Package provider talks to the upstream generative-language backend: a
// model-catalog endpoint and a content-generation endpoint, both keyed by a
// service credential held outside the domain model.
package provider

import "context"

// GenerateAction is the catalog capability a model must advertise before
// it can be used for plan generation.
const GenerateAction = "generateContent"

// ModelInfo describes one entry of the upstream model catalog.
type ModelInfo struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"displayName,omitempty"`
	Description      string   `json:"description,omitempty"`
	SupportedActions []string `json:"supportedGenerationMethods,omitempty"`
}

// SupportsAction reports whether the model advertises the given capability.
func (m ModelInfo) SupportsAction(action string) bool {
	for _, a := range m.SupportedActions {
		if a == action {
			return true
		}
	}
	return false
}

// GenerateRequest is a single content-generation call.
type GenerateRequest struct {
	Model           string
	SystemPrompt    string
	UserPrompt      string
	Temperature     float64
	MaxOutputTokens int
}

// GenerateResponse carries the raw model text plus token accounting.
type GenerateResponse struct {
	Text         string
	FinishReason string
	InputTokens  int
	OutputTokens int
}

// Backend is the narrow surface the pipeline needs from the upstream
// service. Implementations must be safe for concurrent use.
type Backend interface {
	// ListModels fetches the live model catalog.
	ListModels(ctx context.Context) ([]ModelInfo, error)
	// Generate runs one content-generation call. Failures carry a
	// *BackendError when the upstream answered with an error status.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}
