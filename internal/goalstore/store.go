// Package goalstore persists generated plans as goals with per-lesson
// completion tracking. The pipeline itself only ever calls CreateGoal;
// the read and progress operations back the dashboard endpoints.
package goalstore

import (
	"context"
	"errors"
	"time"

	"github.com/pathwise/pathwise/internal/plan"
)

// ErrNotFound is returned when a goal or lesson does not exist (or belongs
// to a different user).
var ErrNotFound = errors.New("goalstore: not found")

// Goal is a stored learning goal with its generated plan.
type Goal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Difficulty  int        `json:"difficulty,omitempty"`
	Progress    float64    `json:"progress"`
	Plan        *plan.Plan `json:"plan"`
	Lessons     []Lesson   `json:"lessons,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Lesson is one plan step's completion record.
type Lesson struct {
	ID        string `json:"id"`
	GoalID    string `json:"goalId"`
	StepID    string `json:"stepId"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Store is the narrow persistence surface the service depends on.
type Store interface {
	CreateGoal(ctx context.Context, userID, title, description string, p *plan.Plan) (*Goal, error)
	ListGoals(ctx context.Context, userID string) ([]*Goal, error)
	GetGoal(ctx context.Context, id, userID string) (*Goal, error)
	SetLessonCompletion(ctx context.Context, lessonID string, completed bool) error
	RecalculateProgress(ctx context.Context, goalID string) (float64, error)
}
