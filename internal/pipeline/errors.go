package pipeline

import "fmt"

// FailureKind classifies terminal orchestrator failures for the HTTP
// layer: discovery failures map to 502, extract/schema to 500, upstream
// failures to whatever status the backend signaled.
type FailureKind string

const (
	// FailureDiscovery: no usable backend model exists. A configuration
	// or availability problem, never retried.
	FailureDiscovery FailureKind = "discovery"
	// FailureExtract: no JSON object could be pulled out of the model
	// response. Surfaced rather than masked so genuinely broken model
	// output stays visible.
	FailureExtract FailureKind = "extract"
	// FailureSchema: extracted JSON does not match the plan schema.
	FailureSchema FailureKind = "schema"
	// FailureUpstream: generation attempts exhausted and the fallback
	// plan is disabled by configuration.
	FailureUpstream FailureKind = "upstream"
)

// Error is a classified terminal pipeline failure.
type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("plan generation failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func failed(kind FailureKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
