// Package storage provides SQLite implementations of the storage ports.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"

	"github.com/xvierd/studyx/internal/ports"
)

// sqliteStorage implements the ports.Storage interface using SQLite.
type sqliteStorage struct {
	db             *sql.DB
	sessionRepo    ports.SessionRepository
	subjectRepo    ports.SubjectRepository
	assignmentRepo ports.AssignmentRepository
	goalRepo       ports.GoalRepository
}

// Ensure sqliteStorage implements ports.Storage.
var _ ports.Storage = (*sqliteStorage)(nil)

// New opens (creating if needed) the database at dbPath and migrates it.
func New(dbPath string) (ports.Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database lives only as long as its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	storage := &sqliteStorage{
		db:             db,
		sessionRepo:    newSessionRepository(db),
		subjectRepo:    newSubjectRepository(db),
		assignmentRepo: newAssignmentRepository(db),
		goalRepo:       newGoalRepository(db),
	}

	if err := storage.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return storage, nil
}

// NewMemory creates a new in-memory SQLite storage instance for testing.
func NewMemory() (ports.Storage, error) {
	return New(":memory:")
}

// Sessions returns the study session repository.
func (s *sqliteStorage) Sessions() ports.SessionRepository {
	return s.sessionRepo
}

// Subjects returns the subject repository.
func (s *sqliteStorage) Subjects() ports.SubjectRepository {
	return s.subjectRepo
}

// Assignments returns the assignment repository.
func (s *sqliteStorage) Assignments() ports.AssignmentRepository {
	return s.assignmentRepo
}

// Goals returns the goal repository.
func (s *sqliteStorage) Goals() ports.GoalRepository {
	return s.goalRepo
}

// Close closes the database connection.
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

// Migrate creates the database schema.
func (s *sqliteStorage) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subjects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		description TEXT,
		total_time_seconds INTEGER NOT NULL DEFAULT 0,
		goal_hours REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		duration_seconds INTEGER NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		notes TEXT,
		date TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		type TEXT NOT NULL,
		git_branch TEXT,
		git_commit TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_subject ON sessions(subject_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_time);
	CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		subject_id TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		due_date DATETIME NOT NULL,
		priority TEXT NOT NULL,
		status TEXT NOT NULL,
		estimated_hours REAL NOT NULL DEFAULT 0,
		actual_seconds INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_subject ON assignments(subject_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_due ON assignments(due_date);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		type TEXT NOT NULL,
		target REAL NOT NULL,
		current REAL NOT NULL DEFAULT 0,
		unit TEXT NOT NULL,
		deadline DATETIME NOT NULL,
		subject_id TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_goals_deadline ON goals(deadline);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// utc normalizes times before they are written so stored values sort and
// compare as text.
func utc(t time.Time) time.Time {
	return t.UTC()
}

// nullableTime converts an optional time to a driver value.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return utc(*t)
}

// timePtr unwraps a scanned nullable time.
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.Local()
	return &v
}

// isBusyError checks if an error is a locked-database condition.
func isBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == 5 || sqliteErr.Code() == 6 // SQLITE_BUSY, SQLITE_LOCKED
}

// wrapWrite wraps a failed write, marking lock contention.
func wrapWrite(op string, err error) error {
	if isBusyError(err) {
		return fmt.Errorf("failed to %s: database is locked by another studyx process: %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
