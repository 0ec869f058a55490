package goalstore

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/pathwise/pathwise/internal/plan"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLStore(db)
}

func testPlan() *plan.Plan {
	return &plan.Plan{
		Title:      "Go Basics",
		Category:   "programming",
		Difficulty: 1,
		Summary:    "A short plan.",
		Steps: []plan.Step{
			{ID: "s1", Title: "Syntax", Description: "d", DurationMinutes: 30, Resources: []plan.Resource{{Kind: plan.KindArticle, Title: "Tour"}}},
			{ID: "s2", Title: "Types", Description: "d", DurationMinutes: 45, Resources: []plan.Resource{{Kind: plan.KindArticle, Title: "Reference"}}},
		},
	}
}

func TestCreateAndGetGoal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateGoal(ctx, "user-1", "Learn Go", "for work", testPlan())
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("expected generated goal id")
	}
	if len(created.Lessons) != 2 {
		t.Fatalf("lessons = %d, want one per step", len(created.Lessons))
	}

	got, err := store.GetGoal(ctx, created.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Learn Go" || got.Category != "programming" || got.Difficulty != 1 {
		t.Errorf("goal = %+v", got)
	}
	if got.Plan == nil || len(got.Plan.Steps) != 2 {
		t.Fatal("stored plan did not round-trip")
	}
	if len(got.Lessons) != 2 {
		t.Errorf("lessons = %d, want 2", len(got.Lessons))
	}
}

func TestGetGoalWrongUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateGoal(ctx, "user-1", "Learn Go", "", testPlan())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetGoal(ctx, created.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for another user", err)
	}
}

func TestListGoals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"Goal A", "Goal B"} {
		if _, err := store.CreateGoal(ctx, "user-1", title, "", testPlan()); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.CreateGoal(ctx, "user-2", "Other", "", testPlan()); err != nil {
		t.Fatal(err)
	}

	goals, err := store.ListGoals(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 2 {
		t.Fatalf("len(goals) = %d, want 2", len(goals))
	}
}

func TestLessonCompletionAndProgress(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateGoal(ctx, "user-1", "Learn Go", "", testPlan())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SetLessonCompletion(ctx, created.Lessons[0].ID, true); err != nil {
		t.Fatal(err)
	}
	progress, err := store.RecalculateProgress(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(progress-50) > 0.01 {
		t.Errorf("progress = %v, want 50", progress)
	}

	got, err := store.GetGoal(ctx, created.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.Progress-50) > 0.01 {
		t.Errorf("stored progress = %v, want 50", got.Progress)
	}

	// Untoggle returns progress to zero.
	if err := store.SetLessonCompletion(ctx, created.Lessons[0].ID, false); err != nil {
		t.Fatal(err)
	}
	progress, err = store.RecalculateProgress(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if progress != 0 {
		t.Errorf("progress = %v, want 0", progress)
	}
}

func TestSetLessonCompletionUnknownLesson(t *testing.T) {
	store := newTestStore(t)
	err := store.SetLessonCompletion(context.Background(), "nope", true)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecalculateProgressUnknownGoal(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.RecalculateProgress(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateGoalRequiresPlan(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.CreateGoal(context.Background(), "u", "t", "", nil); err == nil {
		t.Fatal("expected error for nil plan")
	}
}
