// Package plan holds the study-plan domain model and the logic that turns
// raw generative-model output into a validated Plan.
package plan

// ResourceKind classifies a learning resource. The set is open: unknown
// kinds coming back from the model are carried through as-is so new kinds
// don't break older clients.
type ResourceKind string

const (
	KindVideo    ResourceKind = "video"
	KindArticle  ResourceKind = "article"
	KindCourse   ResourceKind = "course"
	KindBook     ResourceKind = "book"
	KindExercise ResourceKind = "exercise"
)

// GoalRequest is the caller's input: a free-text learning goal.
type GoalRequest struct {
	Title       string `json:"goalTitle"`
	Description string `json:"goalDescription,omitempty"`
}

// Resource is one learning material reference with an optional URL.
type Resource struct {
	Kind   ResourceKind `json:"type"`
	Title  string       `json:"title"`
	URL    string       `json:"url,omitempty"`
	Source string       `json:"source,omitempty"`
	IsPaid bool         `json:"isPaid,omitempty"`
}

// Step is one ordered unit of a Plan.
type Step struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"durationMinutes"`
	Resources       []Resource `json:"resources"`
}

// Plan is the structured, validated learning curriculum returned to the
// caller. Plans are request-scoped: each orchestrator run builds and owns
// its own Plan, nothing is shared across requests.
type Plan struct {
	Title      string `json:"title"`
	Category   string `json:"category,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
	Summary    string `json:"summary"`
	Steps      []Step `json:"steps"`
}
