package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/ports"
)

const goalColumns = `id, title, type, target, current, unit, deadline, subject_id, completed, created_at`

// goalRepository implements ports.GoalRepository using SQLite.
type goalRepository struct {
	db *sql.DB
}

// newGoalRepository creates a new goal repository.
func newGoalRepository(db *sql.DB) ports.GoalRepository {
	return &goalRepository{db: db}
}

// Save inserts or replaces a goal.
func (r *goalRepository) Save(ctx context.Context, g *domain.StudyGoal) error {
	query := `
		INSERT INTO goals (` + goalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			type = excluded.type,
			target = excluded.target,
			current = excluded.current,
			unit = excluded.unit,
			deadline = excluded.deadline,
			subject_id = excluded.subject_id,
			completed = excluded.completed,
			created_at = excluded.created_at
	`

	var subjectID any
	if g.SubjectID != "" {
		subjectID = g.SubjectID
	}

	_, err := r.db.ExecContext(ctx, query,
		g.ID,
		g.Title,
		string(g.Type),
		g.Target,
		g.Current,
		string(g.Unit),
		utc(g.Deadline),
		subjectID,
		g.Completed,
		utc(g.CreatedAt),
	)
	if err != nil {
		return wrapWrite("save goal", err)
	}

	return nil
}

// FindByID retrieves a goal by its unique identifier.
func (r *goalRepository) FindByID(ctx context.Context, id string) (*domain.StudyGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = ?`

	g, err := scanGoal(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find goal: %w", err)
	}
	return g, nil
}

// FindAll returns every goal ordered by deadline.
func (r *goalRepository) FindAll(ctx context.Context) ([]*domain.StudyGoal, error) {
	return r.query(ctx, "goals", `SELECT `+goalColumns+` FROM goals ORDER BY deadline ASC`)
}

// FindActive returns unfinished goals whose deadline is after now.
func (r *goalRepository) FindActive(ctx context.Context, now time.Time) ([]*domain.StudyGoal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM goals
		WHERE completed = 0 AND deadline > ?
		ORDER BY deadline ASC
	`
	return r.query(ctx, "active goals", query, utc(now))
}

// Delete removes a goal from storage.
func (r *goalRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return wrapWrite("delete goal", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrGoalNotFound
	}

	return nil
}

func (r *goalRepository) query(ctx context.Context, what, query string, args ...any) ([]*domain.StudyGoal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer func() { _ = rows.Close() }()

	var goals []*domain.StudyGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}

	return goals, rows.Err()
}

func scanGoal(row scanner) (*domain.StudyGoal, error) {
	var g domain.StudyGoal
	var goalType, unit string
	var subjectID sql.NullString

	err := row.Scan(
		&g.ID,
		&g.Title,
		&goalType,
		&g.Target,
		&g.Current,
		&unit,
		&g.Deadline,
		&subjectID,
		&g.Completed,
		&g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.Type = domain.GoalType(goalType)
	g.Unit = domain.GoalUnit(unit)
	g.SubjectID = subjectID.String
	g.Deadline = g.Deadline.Local()
	g.CreatedAt = g.CreatedAt.Local()

	return &g, nil
}
