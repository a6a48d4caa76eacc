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

const sessionColumns = `
	id, subject_id, subject, duration_seconds, start_time, end_time,
	notes, date, completed, type, git_branch, git_commit
`

// sessionRepository implements ports.SessionRepository using SQLite.
type sessionRepository struct {
	db *sql.DB
}

// newSessionRepository creates a new session repository.
func newSessionRepository(db *sql.DB) ports.SessionRepository {
	return &sessionRepository{db: db}
}

// Save inserts or replaces a session.
func (r *sessionRepository) Save(ctx context.Context, session *domain.StudySession) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject_id = excluded.subject_id,
			subject = excluded.subject,
			duration_seconds = excluded.duration_seconds,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			notes = excluded.notes,
			date = excluded.date,
			completed = excluded.completed,
			type = excluded.type,
			git_branch = excluded.git_branch,
			git_commit = excluded.git_commit
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.SubjectID,
		session.Subject,
		session.DurationSeconds,
		utc(session.StartTime),
		nullableTime(session.EndTime),
		session.Notes,
		session.Date,
		session.Completed,
		string(session.Type),
		session.GitBranch,
		session.GitCommit,
	)
	if err != nil {
		return wrapWrite("save session", err)
	}

	return nil
}

// FindByID retrieves a session by its unique identifier.
func (r *sessionRepository) FindByID(ctx context.Context, id string) (*domain.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// FindAll returns every session, oldest first.
func (r *sessionRepository) FindAll(ctx context.Context) ([]*domain.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY start_time ASC`
	return r.query(ctx, "all sessions", query)
}

// FindBySubject returns the sessions recorded for a subject.
func (r *sessionRepository) FindBySubject(ctx context.Context, subjectID string) ([]*domain.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE subject_id = ? ORDER BY start_time ASC`
	return r.query(ctx, "sessions by subject", query, subjectID)
}

// FindByDateRange returns sessions that started within [start, end].
func (r *sessionRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]*domain.StudySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE start_time >= ? AND start_time <= ?
		ORDER BY start_time ASC
	`
	return r.query(ctx, "sessions by date range", query, utc(start), utc(end))
}

// Delete removes a session from storage.
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return wrapWrite("delete session", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

// DeleteBySubject removes every session for a subject.
func (r *sessionRepository) DeleteBySubject(ctx context.Context, subjectID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE subject_id = ?`, subjectID); err != nil {
		return wrapWrite("delete sessions for subject", err)
	}
	return nil
}

func (r *sessionRepository) query(ctx context.Context, what, query string, args ...any) ([]*domain.StudySession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*domain.StudySession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// scanSession scans a single session row.
func scanSession(row scanner) (*domain.StudySession, error) {
	var session domain.StudySession
	var endTime sql.NullTime
	var notes sql.NullString
	var gitBranch sql.NullString
	var gitCommit sql.NullString
	var sessionType string

	err := row.Scan(
		&session.ID,
		&session.SubjectID,
		&session.Subject,
		&session.DurationSeconds,
		&session.StartTime,
		&endTime,
		&notes,
		&session.Date,
		&session.Completed,
		&sessionType,
		&gitBranch,
		&gitCommit,
	)
	if err != nil {
		return nil, err
	}

	session.StartTime = session.StartTime.Local()
	session.EndTime = timePtr(endTime)
	session.Notes = notes.String
	session.Type = domain.SessionType(sessionType)
	session.GitBranch = gitBranch.String
	session.GitCommit = gitCommit.String

	return &session, nil
}
