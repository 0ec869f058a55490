package goalstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/pathwise/internal/plan"
)

// SQLStore implements Store on a DB. One lesson row is created per plan
// step; progress is the completed fraction in percent.
type SQLStore struct {
	db *DB
}

func NewSQLStore(db *DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) CreateGoal(ctx context.Context, userID, title, description string, p *plan.Plan) (*Goal, error) {
	if p == nil || len(p.Steps) == 0 {
		return nil, fmt.Errorf("goalstore: plan with at least one step is required")
	}
	planJSON, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("goalstore: marshal plan: %w", err)
	}

	goal := &Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Category:    p.Category,
		Difficulty:  p.Difficulty,
		Plan:        p,
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("goalstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.db.rebind(
		`INSERT INTO goals (id, user_id, title, description, category, difficulty, progress, plan, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`),
		goal.ID, userID, title, description, goal.Category, goal.Difficulty,
		string(planJSON), goal.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("goalstore: insert goal: %w", err)
	}

	for _, step := range p.Steps {
		lesson := Lesson{
			ID:     uuid.NewString(),
			GoalID: goal.ID,
			StepID: step.ID,
			Title:  step.Title,
		}
		_, err = tx.ExecContext(ctx, s.db.rebind(
			`INSERT INTO lessons (id, goal_id, step_id, title, completed) VALUES (?, ?, ?, ?, 0)`),
			lesson.ID, lesson.GoalID, lesson.StepID, lesson.Title)
		if err != nil {
			return nil, fmt.Errorf("goalstore: insert lesson: %w", err)
		}
		goal.Lessons = append(goal.Lessons, lesson)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("goalstore: commit: %w", err)
	}
	return goal, nil
}

func (s *SQLStore) ListGoals(ctx context.Context, userID string) ([]*Goal, error) {
	rows, err := s.db.db.QueryContext(ctx, s.db.rebind(
		`SELECT id, user_id, title, description, category, difficulty, progress, plan, created_at
		 FROM goals WHERE user_id = ? ORDER BY created_at DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("goalstore: list goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []*Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *SQLStore) GetGoal(ctx context.Context, id, userID string) (*Goal, error) {
	row := s.db.db.QueryRowContext(ctx, s.db.rebind(
		`SELECT id, user_id, title, description, category, difficulty, progress, plan, created_at
		 FROM goals WHERE id = ? AND user_id = ?`), id, userID)
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.db.QueryContext(ctx, s.db.rebind(
		`SELECT id, goal_id, step_id, title, completed FROM lessons WHERE goal_id = ?`), g.ID)
	if err != nil {
		return nil, fmt.Errorf("goalstore: list lessons: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var l Lesson
		var completed int
		if err := rows.Scan(&l.ID, &l.GoalID, &l.StepID, &l.Title, &completed); err != nil {
			return nil, fmt.Errorf("goalstore: scan lesson: %w", err)
		}
		l.Completed = completed != 0
		g.Lessons = append(g.Lessons, l)
	}
	return g, rows.Err()
}

func (s *SQLStore) SetLessonCompletion(ctx context.Context, lessonID string, completed bool) error {
	val := 0
	if completed {
		val = 1
	}
	res, err := s.db.db.ExecContext(ctx, s.db.rebind(
		`UPDATE lessons SET completed = ? WHERE id = ?`), val, lessonID)
	if err != nil {
		return fmt.Errorf("goalstore: set completion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("goalstore: set completion: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) RecalculateProgress(ctx context.Context, goalID string) (float64, error) {
	var total, done int
	err := s.db.db.QueryRowContext(ctx, s.db.rebind(
		`SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM lessons WHERE goal_id = ?`), goalID).
		Scan(&total, &done)
	if err != nil {
		return 0, fmt.Errorf("goalstore: count lessons: %w", err)
	}
	if total == 0 {
		return 0, ErrNotFound
	}
	progress := float64(done) / float64(total) * 100
	_, err = s.db.db.ExecContext(ctx, s.db.rebind(
		`UPDATE goals SET progress = ? WHERE id = ?`), progress, goalID)
	if err != nil {
		return 0, fmt.Errorf("goalstore: update progress: %w", err)
	}
	return progress, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*Goal, error) {
	var g Goal
	var planJSON, createdAt string
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.Category,
		&g.Difficulty, &g.Progress, &planJSON, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("goalstore: scan goal: %w", err)
	}
	var p plan.Plan
	if err := json.Unmarshal([]byte(planJSON), &p); err != nil {
		return nil, fmt.Errorf("goalstore: unmarshal plan: %w", err)
	}
	g.Plan = &p
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &g, nil
}
