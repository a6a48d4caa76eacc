package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sahilm/fuzzy"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/ports"
)

const subjectColumns = `id, name, color, description, total_time_seconds, goal_hours, created_at, active`

// subjectRepository implements ports.SubjectRepository using SQLite.
type subjectRepository struct {
	db *sql.DB
}

// newSubjectRepository creates a new subject repository.
func newSubjectRepository(db *sql.DB) ports.SubjectRepository {
	return &subjectRepository{db: db}
}

// Save inserts or replaces a subject.
func (r *subjectRepository) Save(ctx context.Context, subject *domain.Subject) error {
	query := `
		INSERT INTO subjects (` + subjectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			description = excluded.description,
			total_time_seconds = excluded.total_time_seconds,
			goal_hours = excluded.goal_hours,
			created_at = excluded.created_at,
			active = excluded.active
	`

	_, err := r.db.ExecContext(ctx, query,
		subject.ID,
		subject.Name,
		subject.Color,
		subject.Description,
		subject.TotalTimeSeconds,
		subject.GoalHours,
		utc(subject.CreatedAt),
		subject.Active,
	)
	if err != nil {
		return wrapWrite("save subject", err)
	}

	return nil
}

// FindByID retrieves a subject by its unique identifier.
func (r *subjectRepository) FindByID(ctx context.Context, id string) (*domain.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = ?`

	subject, err := scanSubject(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subject: %w", err)
	}
	return subject, nil
}

// FindAll returns every subject in creation order.
func (r *subjectRepository) FindAll(ctx context.Context) ([]*domain.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subjects []*domain.Subject
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}

	return subjects, rows.Err()
}

// FindByName does a fuzzy search for subjects by name.
func (r *subjectRepository) FindByName(ctx context.Context, query string) ([]*domain.Subject, error) {
	subjects, err := r.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get subjects for fuzzy search: %w", err)
	}

	names := make([]string, len(subjects))
	for i, subject := range subjects {
		names[i] = subject.Name
	}

	matches := fuzzy.Find(query, names)

	result := make([]*domain.Subject, 0, len(matches))
	for _, match := range matches {
		result = append(result, subjects[match.Index])
	}

	return result, nil
}

// Delete removes a subject from storage.
func (r *subjectRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?`, id)
	if err != nil {
		return wrapWrite("delete subject", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrSubjectNotFound
	}

	return nil
}

func scanSubject(row scanner) (*domain.Subject, error) {
	var subject domain.Subject
	var description sql.NullString

	err := row.Scan(
		&subject.ID,
		&subject.Name,
		&subject.Color,
		&description,
		&subject.TotalTimeSeconds,
		&subject.GoalHours,
		&subject.CreatedAt,
		&subject.Active,
	)
	if err != nil {
		return nil, err
	}

	subject.Description = description.String
	subject.CreatedAt = subject.CreatedAt.Local()
	return &subject, nil
}
