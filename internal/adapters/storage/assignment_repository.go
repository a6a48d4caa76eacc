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

const assignmentColumns = `
	id, title, description, subject_id, subject, due_date, priority, status,
	estimated_hours, actual_seconds, created_at, completed_at
`

// assignmentRepository implements ports.AssignmentRepository using SQLite.
type assignmentRepository struct {
	db *sql.DB
}

// newAssignmentRepository creates a new assignment repository.
func newAssignmentRepository(db *sql.DB) ports.AssignmentRepository {
	return &assignmentRepository{db: db}
}

// Save inserts or replaces an assignment.
func (r *assignmentRepository) Save(ctx context.Context, a *domain.Assignment) error {
	query := `
		INSERT INTO assignments (` + assignmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			subject_id = excluded.subject_id,
			subject = excluded.subject,
			due_date = excluded.due_date,
			priority = excluded.priority,
			status = excluded.status,
			estimated_hours = excluded.estimated_hours,
			actual_seconds = excluded.actual_seconds,
			created_at = excluded.created_at,
			completed_at = excluded.completed_at
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.Title,
		a.Description,
		a.SubjectID,
		a.Subject,
		utc(a.DueDate),
		string(a.Priority),
		string(a.Status),
		a.EstimatedHours,
		a.ActualSeconds,
		utc(a.CreatedAt),
		nullableTime(a.CompletedAt),
	)
	if err != nil {
		return wrapWrite("save assignment", err)
	}

	return nil
}

// FindByID retrieves an assignment by its unique identifier.
func (r *assignmentRepository) FindByID(ctx context.Context, id string) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = ?`

	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAssignmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	return a, nil
}

// FindAll returns every assignment ordered by due date.
func (r *assignmentRepository) FindAll(ctx context.Context) ([]*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments ORDER BY due_date ASC`
	return r.query(ctx, "assignments", query)
}

// FindBySubject returns a subject's assignments ordered by due date.
func (r *assignmentRepository) FindBySubject(ctx context.Context, subjectID string) ([]*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE subject_id = ? ORDER BY due_date ASC`
	return r.query(ctx, "assignments by subject", query, subjectID)
}

// FindOverdue returns unfinished assignments due before now.
func (r *assignmentRepository) FindOverdue(ctx context.Context, now time.Time) ([]*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE status != ? AND due_date < ?
		ORDER BY due_date ASC
	`
	return r.query(ctx, "overdue assignments", query, string(domain.AssignmentCompleted), utc(now))
}

// FindUpcoming returns unfinished assignments due within days of now.
func (r *assignmentRepository) FindUpcoming(ctx context.Context, now time.Time, days int) ([]*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE status != ? AND due_date >= ? AND due_date <= ?
		ORDER BY due_date ASC
	`
	return r.query(ctx, "upcoming assignments", query,
		string(domain.AssignmentCompleted), utc(now), utc(now.AddDate(0, 0, days)))
}

// Delete removes an assignment from storage.
func (r *assignmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return wrapWrite("delete assignment", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrAssignmentNotFound
	}

	return nil
}

// DeleteBySubject removes every assignment for a subject.
func (r *assignmentRepository) DeleteBySubject(ctx context.Context, subjectID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE subject_id = ?`, subjectID); err != nil {
		return wrapWrite("delete assignments for subject", err)
	}
	return nil
}

func (r *assignmentRepository) query(ctx context.Context, what, query string, args ...any) ([]*domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer func() { _ = rows.Close() }()

	var assignments []*domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

func scanAssignment(row scanner) (*domain.Assignment, error) {
	var a domain.Assignment
	var description sql.NullString
	var priority, status string
	var completedAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.Title,
		&description,
		&a.SubjectID,
		&a.Subject,
		&a.DueDate,
		&priority,
		&status,
		&a.EstimatedHours,
		&a.ActualSeconds,
		&a.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Description = description.String
	a.Priority = domain.Priority(priority)
	a.Status = domain.AssignmentStatus(status)
	a.DueDate = a.DueDate.Local()
	a.CreatedAt = a.CreatedAt.Local()
	a.CompletedAt = timePtr(completedAt)

	return &a, nil
}
