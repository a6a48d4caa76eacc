package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xvierd/studyx/internal/adapters/storage"
	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/ports"
	"github.com/xvierd/studyx/internal/services"
	"github.com/xvierd/studyx/internal/timer/timertest"
)

var monday = time.Date(2024, 9, 2, 9, 0, 0, 0, time.Local)

// setupTestStorage creates a temporary database for integration tests
func setupTestStorage(t *testing.T) ports.Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.New(dbPath)
	require.NoError(t, err, "failed to create storage")
	t.Cleanup(func() { _ = store.Close() })

	return store
}

type harness struct {
	store ports.Storage
	study *services.StudyService
	timer *services.TimerService
	clock *timertest.Clock
}

func newHarness(t *testing.T, cfg domain.TimerConfig) *harness {
	t.Helper()
	store := setupTestStorage(t)
	clock := timertest.NewClock(monday)

	study := services.NewStudyService(store, zap.NewNop())
	study.SetClock(clock.Now)

	svc, err := services.NewTimerService(study, services.TimerOptions{
		Config: cfg,
		Clock:  clock,
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	return &harness{store: store, study: study, timer: svc, clock: clock}
}

func (h *harness) subject(t *testing.T, name string) *domain.Subject {
	t.Helper()
	s, err := h.study.AddSubject(context.Background(), services.AddSubjectRequest{Name: name, GoalHours: 10})
	require.NoError(t, err)
	return s
}

// TestFullPomodoroCycle runs four focus periods through to the long break
// and checks what ended up in the database.
func TestFullPomodoroCycle(t *testing.T) {
	ctx := context.Background()
	cfg := domain.TimerConfig{FocusMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15, LongBreakInterval: 4}
	h := newHarness(t, cfg)
	physics := h.subject(t, "Physics")

	_, err := h.timer.SelectSubject(ctx, "Physics")
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		require.NoError(t, h.timer.Start())
		h.clock.Advance(25 * time.Minute)

		events := h.timer.Poll()
		require.Len(t, events, 1, "focus period %d", i)
		assert.Equal(t, services.EventSessionRecorded, events[0].Kind)

		snap := h.timer.Snapshot()
		assert.True(t, snap.IsIdle())
		assert.Equal(t, i, snap.CompletedFocusCount)
		if i < 4 {
			assert.Equal(t, domain.ModeShortBreak, snap.Mode)
			require.NoError(t, h.timer.Start())
			h.clock.Advance(5 * time.Minute)
			h.timer.Poll()
		} else {
			assert.Equal(t, domain.ModeLongBreak, snap.Mode)
		}
	}

	sessions, err := h.study.SessionsBySubject(ctx, physics.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 4)
	for _, s := range sessions {
		assert.Equal(t, 1500, s.DurationSeconds)
		assert.Equal(t, "Physics", s.Subject)
		assert.Equal(t, "2024-09-02", s.Date)
		assert.True(t, s.Completed)
		assert.Equal(t, domain.SessionTypeFocus, s.Type)
		require.NotNil(t, s.EndTime)
	}

	stored, err := h.study.GetSubject(ctx, physics.ID)
	require.NoError(t, err)
	assert.Equal(t, 4*1500, stored.TotalTimeSeconds)
}

// TestAbandonedFocusIsNotStored checks that stopping mid-period leaves the
// database untouched.
func TestAbandonedFocusIsNotStored(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, domain.DefaultTimerConfig())
	chem := h.subject(t, "Chemistry")
	_, err := h.timer.SelectSubject(ctx, chem.ID)
	require.NoError(t, err)

	require.NoError(t, h.timer.Start())
	h.clock.Advance(10 * time.Minute)
	h.timer.Pause()
	h.clock.Advance(time.Hour)
	h.timer.Stop()

	assert.Empty(t, h.timer.Poll())

	sessions, err := h.study.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	stored, err := h.study.GetSubject(ctx, chem.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.TotalTimeSeconds)
}

// TestSkippedFocusRecordsFullLength checks that skipping a focus period
// records the configured length rather than the elapsed time.
func TestSkippedFocusRecordsFullLength(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, domain.DefaultTimerConfig())
	bio := h.subject(t, "Biology")
	_, err := h.timer.SelectSubject(ctx, bio.ID)
	require.NoError(t, err)

	require.NoError(t, h.timer.Start())
	h.clock.Advance(3 * time.Minute)
	h.timer.Skip()
	h.timer.Poll()

	stored, err := h.study.GetSubject(ctx, bio.ID)
	require.NoError(t, err)
	assert.Equal(t, 1500, stored.TotalTimeSeconds)
}

// TestSessionBookkeeping covers manual sessions, edits and deletes against
// the subject total.
func TestSessionBookkeeping(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, domain.DefaultTimerConfig())
	math := h.subject(t, "Mathematics")

	logged, err := h.study.LogSession(ctx, services.LogSessionRequest{Subject: "Mathematics", Duration: 40 * time.Minute})
	require.NoError(t, err)

	got, err := h.study.GetSubject(ctx, math.ID)
	require.NoError(t, err)
	assert.Equal(t, 2400, got.TotalTimeSeconds)

	logged.DurationSeconds = 1800
	require.NoError(t, h.study.UpdateSession(ctx, logged))
	got, err = h.study.GetSubject(ctx, math.ID)
	require.NoError(t, err)
	assert.Equal(t, 1800, got.TotalTimeSeconds)

	require.NoError(t, h.study.DeleteSession(ctx, logged.ID))
	got, err = h.study.GetSubject(ctx, math.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalTimeSeconds)
}

// TestTimerCompletesGoal checks that a stored focus period counts toward
// an active hours goal.
func TestTimerCompletesGoal(t *testing.T) {
	ctx := context.Background()
	cfg := domain.TimerConfig{FocusMinutes: 30, ShortBreakMinutes: 5, LongBreakMinutes: 15, LongBreakInterval: 4}
	h := newHarness(t, cfg)
	h.subject(t, "History")

	goal, err := h.study.AddGoal(ctx, services.AddGoalRequest{
		Title:    "Half an hour of history",
		Type:     domain.GoalDaily,
		Target:   0.5,
		Unit:     domain.UnitHours,
		Deadline: monday.Add(12 * time.Hour),
		Subject:  "History",
	})
	require.NoError(t, err)

	_, err = h.timer.SelectSubject(ctx, "History")
	require.NoError(t, err)
	require.NoError(t, h.timer.Start())
	h.clock.Advance(30 * time.Minute)

	events := h.timer.Poll()
	require.Len(t, events, 1)
	require.Len(t, events[0].Achieved, 1)
	assert.Equal(t, goal.ID, events[0].Achieved[0].ID)
}

// TestBackupRoundTrip exports one database and restores it into another.
func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newHarness(t, domain.DefaultTimerConfig())
	src.subject(t, "Art")
	_, err := src.study.LogSession(ctx, services.LogSessionRequest{Subject: "Art", Duration: time.Hour})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, services.NewBackupService(src.store, zap.NewNop()).Export(ctx, &buf, nil))

	dst := setupTestStorage(t)
	result, err := services.NewBackupService(dst, zap.NewNop()).Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Subjects)
	assert.Equal(t, 1, result.Sessions)

	subjects, err := dst.Subjects().FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Art", subjects[0].Name)
	assert.Equal(t, 3600, subjects[0].TotalTimeSeconds)
}
