package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xvierd/studyx/internal/config"
	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/ports"
)

// TimerSettings is the timer part of exported settings.
type TimerSettings struct {
	FocusTime          int  `json:"focusTime"`
	ShortBreak         int  `json:"shortBreak"`
	LongBreak          int  `json:"longBreak"`
	LongBreakInterval  int  `json:"longBreakInterval"`
	AutoStartBreaks    bool `json:"autoStartBreaks"`
	AutoStartPomodoros bool `json:"autoStartPomodoros"`
	Notifications      bool `json:"notifications"`
	SoundEnabled       bool `json:"soundEnabled"`
}

// NotificationSettings is the notification part of exported settings.
type NotificationSettings struct {
	Assignments bool `json:"assignments"`
	Sessions    bool `json:"sessions"`
	Goals       bool `json:"goals"`
	Breaks      bool `json:"breaks"`
}

// Settings are the user preferences carried in a backup.
type Settings struct {
	Theme          string               `json:"theme"`
	Notifications  NotificationSettings `json:"notifications"`
	Timer          TimerSettings        `json:"timer"`
	DefaultSubject string               `json:"defaultSubject"`
	WeekStartsOn   int                  `json:"weekStartsOn"`
}

// SettingsFromConfig extracts the exported preferences from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Theme: cfg.User.Theme,
		Notifications: NotificationSettings{
			Assignments: cfg.Notifications.Assignments,
			Sessions:    cfg.Notifications.Sessions,
			Goals:       cfg.Notifications.Goals,
			Breaks:      cfg.Notifications.Breaks,
		},
		Timer: TimerSettings{
			FocusTime:          cfg.Timer.FocusMinutes,
			ShortBreak:         cfg.Timer.ShortBreakMinutes,
			LongBreak:          cfg.Timer.LongBreakMinutes,
			LongBreakInterval:  cfg.Timer.LongBreakInterval,
			AutoStartBreaks:    cfg.Timer.AutoStartBreaks,
			AutoStartPomodoros: cfg.Timer.AutoStartPomodoros,
			Notifications:      cfg.Notifications.Enabled,
			SoundEnabled:       cfg.Notifications.Sound,
		},
		DefaultSubject: cfg.User.DefaultSubject,
		WeekStartsOn:   cfg.User.WeekStartsOn,
	}
}

// ApplyTo copies the preferences onto cfg.
func (s Settings) ApplyTo(cfg *config.Config) {
	cfg.User.Theme = s.Theme
	cfg.User.DefaultSubject = s.DefaultSubject
	cfg.User.WeekStartsOn = s.WeekStartsOn
	cfg.Notifications.Assignments = s.Notifications.Assignments
	cfg.Notifications.Sessions = s.Notifications.Sessions
	cfg.Notifications.Goals = s.Notifications.Goals
	cfg.Notifications.Breaks = s.Notifications.Breaks
	cfg.Notifications.Enabled = s.Timer.Notifications
	cfg.Notifications.Sound = s.Timer.SoundEnabled
	cfg.Timer.FocusMinutes = s.Timer.FocusTime
	cfg.Timer.ShortBreakMinutes = s.Timer.ShortBreak
	cfg.Timer.LongBreakMinutes = s.Timer.LongBreak
	cfg.Timer.LongBreakInterval = s.Timer.LongBreakInterval
	cfg.Timer.AutoStartBreaks = s.Timer.AutoStartBreaks
	cfg.Timer.AutoStartPomodoros = s.Timer.AutoStartPomodoros
}

// Backup is the JSON document written by Export.
type Backup struct {
	Sessions    []*domain.StudySession `json:"sessions"`
	Subjects    []*domain.Subject      `json:"subjects"`
	Assignments []*domain.Assignment   `json:"assignments"`
	Goals       []*domain.StudyGoal    `json:"goals"`
	Settings    *Settings              `json:"settings,omitempty"`
	ExportDate  time.Time              `json:"exportDate"`
}

// ImportResult says what an import replaced.
type ImportResult struct {
	Sessions    int
	Subjects    int
	Assignments int
	Goals       int
	// Settings is set when the document carried settings; the caller
	// decides where to store them.
	Settings *Settings
}

// BackupService exports and restores the whole study database.
type BackupService struct {
	storage ports.Storage
	log     *zap.Logger
	now     func() time.Time
}

// NewBackupService creates a new backup service.
func NewBackupService(storage ports.Storage, log *zap.Logger) *BackupService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BackupService{storage: storage, log: log, now: time.Now}
}

// SetClock replaces the time source used for the export date.
func (s *BackupService) SetClock(now func() time.Time) {
	s.now = now
}

// Export writes every collection and settings to w as indented JSON.
func (s *BackupService) Export(ctx context.Context, w io.Writer, settings *Settings) error {
	doc := Backup{Settings: settings, ExportDate: s.now().UTC()}

	var err error
	if doc.Sessions, err = s.storage.Sessions().FindAll(ctx); err != nil {
		return fmt.Errorf("failed to export sessions: %w", err)
	}
	if doc.Subjects, err = s.storage.Subjects().FindAll(ctx); err != nil {
		return fmt.Errorf("failed to export subjects: %w", err)
	}
	if doc.Assignments, err = s.storage.Assignments().FindAll(ctx); err != nil {
		return fmt.Errorf("failed to export assignments: %w", err)
	}
	if doc.Goals, err = s.storage.Goals().FindAll(ctx); err != nil {
		return fmt.Errorf("failed to export goals: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// ExportSessionsCSV writes one row per session to w.
func (s *BackupService) ExportSessionsCSV(ctx context.Context, w io.Writer) error {
	sessions, err := s.storage.Sessions().FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to export sessions: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"date", "subject", "duration_min", "start_time", "end_time",
		"type", "completed", "notes", "git_branch", "git_commit",
	}); err != nil {
		return err
	}

	for _, session := range sessions {
		end := ""
		if session.EndTime != nil {
			end = session.EndTime.Format(time.RFC3339)
		}
		if err := cw.Write([]string{
			session.Date,
			session.Subject,
			strconv.FormatFloat(session.Duration().Minutes(), 'f', 0, 64),
			session.StartTime.Format(time.RFC3339),
			end,
			string(session.Type),
			strconv.FormatBool(session.Completed),
			session.Notes,
			session.GitBranch,
			session.GitCommit,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Import replaces each collection present in the JSON document read from r.
// Collections missing from the document are left alone.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}

	var doc Backup
	for key, target := range map[string]any{
		"sessions":    &doc.Sessions,
		"subjects":    &doc.Subjects,
		"assignments": &doc.Assignments,
		"goals":       &doc.Goals,
		"settings":    &doc.Settings,
	} {
		data, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(data, target); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
	}

	result := &ImportResult{Settings: doc.Settings}

	if _, ok := raw["subjects"]; ok {
		if err := s.replaceSubjects(ctx, doc.Subjects); err != nil {
			return nil, err
		}
		result.Subjects = len(doc.Subjects)
	}
	if _, ok := raw["sessions"]; ok {
		if err := s.replaceSessions(ctx, doc.Sessions); err != nil {
			return nil, err
		}
		result.Sessions = len(doc.Sessions)
	}
	if _, ok := raw["assignments"]; ok {
		if err := s.replaceAssignments(ctx, doc.Assignments); err != nil {
			return nil, err
		}
		result.Assignments = len(doc.Assignments)
	}
	if _, ok := raw["goals"]; ok {
		if err := s.replaceGoals(ctx, doc.Goals); err != nil {
			return nil, err
		}
		result.Goals = len(doc.Goals)
	}

	s.log.Info("backup imported",
		zap.Int("sessions", result.Sessions),
		zap.Int("subjects", result.Subjects),
		zap.Int("assignments", result.Assignments),
		zap.Int("goals", result.Goals))
	return result, nil
}

func (s *BackupService) replaceSubjects(ctx context.Context, subjects []*domain.Subject) error {
	repo := s.storage.Subjects()
	existing, err := repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load subjects: %w", err)
	}
	for _, old := range existing {
		if err := repo.Delete(ctx, old.ID); err != nil {
			return fmt.Errorf("failed to clear subjects: %w", err)
		}
	}
	for _, subject := range subjects {
		if err := repo.Save(ctx, subject); err != nil {
			return fmt.Errorf("failed to import subject %s: %w", subject.ID, err)
		}
	}
	return nil
}

func (s *BackupService) replaceSessions(ctx context.Context, sessions []*domain.StudySession) error {
	repo := s.storage.Sessions()
	existing, err := repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	for _, old := range existing {
		if err := repo.Delete(ctx, old.ID); err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
	}
	for _, session := range sessions {
		if err := repo.Save(ctx, session); err != nil {
			return fmt.Errorf("failed to import session %s: %w", session.ID, err)
		}
	}
	return nil
}

func (s *BackupService) replaceAssignments(ctx context.Context, assignments []*domain.Assignment) error {
	repo := s.storage.Assignments()
	existing, err := repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load assignments: %w", err)
	}
	for _, old := range existing {
		if err := repo.Delete(ctx, old.ID); err != nil {
			return fmt.Errorf("failed to clear assignments: %w", err)
		}
	}
	for _, a := range assignments {
		if err := repo.Save(ctx, a); err != nil {
			return fmt.Errorf("failed to import assignment %s: %w", a.ID, err)
		}
	}
	return nil
}

func (s *BackupService) replaceGoals(ctx context.Context, goals []*domain.StudyGoal) error {
	repo := s.storage.Goals()
	existing, err := repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load goals: %w", err)
	}
	for _, old := range existing {
		if err := repo.Delete(ctx, old.ID); err != nil {
			return fmt.Errorf("failed to clear goals: %w", err)
		}
	}
	for _, g := range goals {
		if err := repo.Save(ctx, g); err != nil {
			return fmt.Errorf("failed to import goal %s: %w", g.ID, err)
		}
	}
	return nil
}
