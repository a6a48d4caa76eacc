package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/ports"
	"github.com/xvierd/studyx/internal/timer/timertest"
)

type fakeGit struct {
	info *ports.GitInfo
	err  error
}

func (f *fakeGit) Detect(ctx context.Context, dir string) (*ports.GitInfo, error) {
	return f.info, f.err
}

func (f *fakeGit) IsAvailable(dir string) bool { return f.err == nil }

type fakeNotifier struct {
	mu       sync.Mutex
	sessions []domain.StudySession
	breaks   []domain.TimerMode
	goals    []domain.StudyGoal
}

func (f *fakeNotifier) NotifySessionComplete(s domain.StudySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, s)
	return nil
}

func (f *fakeNotifier) NotifyBreakComplete(m domain.TimerMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breaks = append(f.breaks, m)
	return nil
}

func (f *fakeNotifier) NotifyGoalAchieved(g domain.StudyGoal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.goals = append(f.goals, g)
	return nil
}

// shortCadence is 1 minute focus, 1 minute breaks, long break every 2nd.
var shortCadence = domain.TimerConfig{FocusMinutes: 1, ShortBreakMinutes: 1, LongBreakMinutes: 2, LongBreakInterval: 2}

type timerFixture struct {
	svc      *TimerService
	study    *StudyService
	store    ports.Storage
	clock    *timertest.Clock
	notifier *fakeNotifier
	subject  *domain.Subject
}

func newTimerFixture(t *testing.T, mutate func(*TimerOptions)) *timerFixture {
	t.Helper()
	study, store := newStudyService(t)
	subject := mustSubject(t, study, "Linear Algebra")

	clock := timertest.NewClock(testNow)
	notifier := &fakeNotifier{}
	opts := TimerOptions{
		Config:   shortCadence,
		Git:      &fakeGit{info: &ports.GitInfo{Branch: "week-3", Commit: "abc1234def"}},
		Notifier: notifier,
		Clock:    clock,
		Logger:   zap.NewNop(),
	}
	if mutate != nil {
		mutate(&opts)
	}

	svc, err := NewTimerService(study, opts)
	require.NoError(t, err)

	return &timerFixture{svc: svc, study: study, store: store, clock: clock, notifier: notifier, subject: subject}
}

func TestNewTimerService_InvalidConfig(t *testing.T) {
	study, _ := newStudyService(t)
	_, err := NewTimerService(study, TimerOptions{Config: domain.TimerConfig{}})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
}

func TestTimerService_StartRequiresSubject(t *testing.T) {
	f := newTimerFixture(t, nil)

	err := f.svc.Start()
	assert.ErrorIs(t, err, ErrSubjectRequired)
	assert.True(t, f.svc.Snapshot().IsIdle())

	_, err = f.svc.SelectSubject(context.Background(), "linear")
	require.NoError(t, err)
	require.NoError(t, f.svc.Start())
	assert.True(t, f.svc.Snapshot().IsRunning())
	assert.Equal(t, f.subject.ID, f.svc.Snapshot().ActiveSession.SubjectID)
}

func TestTimerService_RecordsFinishedFocus(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SelectSubject(ctx, f.subject.ID)
	require.NoError(t, err)
	f.svc.SetNotes("eigenvalues")
	require.NoError(t, f.svc.Start())

	f.clock.Tick(60)

	sessions, err := f.store.Sessions().FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	s := sessions[0]
	assert.Equal(t, "Linear Algebra", s.Subject)
	assert.Equal(t, f.subject.ID, s.SubjectID)
	assert.Equal(t, 60, s.DurationSeconds)
	assert.Equal(t, "eigenvalues", s.Notes)
	assert.Equal(t, "week-3", s.GitBranch)
	assert.Equal(t, "abc1234def", s.GitCommit)
	assert.True(t, s.Completed)
	assert.Equal(t, testNow.Format(domain.DateLayout), s.Date)

	subject, err := f.store.Subjects().FindByID(ctx, f.subject.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, subject.TotalTimeSeconds)

	require.Len(t, f.notifier.sessions, 1)

	events := f.svc.Poll()
	require.Len(t, events, 1)
	assert.Equal(t, EventSessionRecorded, events[0].Kind)
	assert.Equal(t, s.ID, events[0].Session.ID)

	snap := f.svc.Snapshot()
	assert.Equal(t, domain.ModeShortBreak, snap.Mode)
	assert.True(t, snap.IsIdle(), "breaks do not start on their own by default")
	assert.Empty(t, f.svc.Poll())
}

func TestTimerService_StopRecordsNothing(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SelectSubject(ctx, f.subject.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Start())
	f.clock.Tick(30)
	f.svc.Stop()
	f.clock.Tick(120)

	sessions, err := f.store.Sessions().FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Empty(t, f.svc.Poll())
	assert.Equal(t, 60, f.svc.Snapshot().RemainingSeconds)
}

func TestTimerService_SkipRecordsFullLength(t *testing.T) {
	f := newTimerFixture(t, func(o *TimerOptions) { o.Git = nil })
	ctx := context.Background()

	_, err := f.svc.SelectSubject(ctx, f.subject.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Start())
	f.clock.Tick(10)
	f.svc.Skip()

	sessions, err := f.store.Sessions().FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 60, sessions[0].DurationSeconds)
	assert.Empty(t, sessions[0].GitCommit)
}

func TestTimerService_GitFailureStillRecords(t *testing.T) {
	f := newTimerFixture(t, func(o *TimerOptions) {
		o.Git = &fakeGit{err: errors.New("no repository")}
	})
	ctx := context.Background()

	_, err := f.svc.SelectSubject(ctx, f.subject.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Start())
	f.clock.Tick(60)

	sessions, err := f.store.Sessions().FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Empty(t, sessions[0].GitBranch)
}

func TestTimerService_AutoStart(t *testing.T) {
	f := newTimerFixture(t, func(o *TimerOptions) {
		o.AutoStartBreaks = true
		o.AutoStartPomodoros = true
	})

	_, err := f.svc.SelectSubject(context.Background(), f.subject.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Start())

	f.clock.Tick(60)
	f.svc.Poll()
	snap := f.svc.Snapshot()
	assert.Equal(t, domain.ModeShortBreak, snap.Mode)
	assert.True(t, snap.IsRunning(), "break should auto-start")

	f.clock.Tick(60)
	events := f.svc.Poll()
	require.Len(t, events, 1)
	assert.Equal(t, EventBreakFinished, events[0].Kind)
	assert.Equal(t, domain.ModeShortBreak, events[0].Break)

	snap = f.svc.Snapshot()
	assert.Equal(t, domain.ModeFocus, snap.Mode)
	assert.True(t, snap.IsRunning(), "focus should auto-start with the selected subject")
	assert.Equal(t, f.subject.ID, snap.ActiveSession.SubjectID)

	f.clock.Tick(60)
	f.svc.Poll()
	snap = f.svc.Snapshot()
	assert.Equal(t, domain.ModeLongBreak, snap.Mode)
	assert.Equal(t, 2, snap.CompletedFocusCount)
	assert.Len(t, f.notifier.breaks, 1)
	assert.Len(t, f.notifier.sessions, 2)
}

func TestTimerService_TogglePause(t *testing.T) {
	f := newTimerFixture(t, nil)

	_, err := f.svc.SelectSubject(context.Background(), f.subject.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Start())
	f.clock.Tick(5)

	f.svc.TogglePause()
	assert.True(t, f.svc.Snapshot().IsPaused())
	f.clock.Tick(100)
	assert.Equal(t, 55, f.svc.Snapshot().RemainingSeconds)

	f.svc.TogglePause()
	assert.True(t, f.svc.Snapshot().IsRunning())
	f.clock.Tick(5)
	assert.Equal(t, 50, f.svc.Snapshot().RemainingSeconds)
}

func TestTimerService_GoalNotification(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	_, err := f.study.AddGoal(ctx, AddGoalRequest{
		Title:    "First session",
		Type:     domain.GoalDaily,
		Target:   1,
		Unit:     domain.UnitSessions,
		Deadline: testNow.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	_, err = f.svc.SelectSubject(ctx, f.subject.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Start())
	f.clock.Tick(60)

	require.Len(t, f.notifier.goals, 1)
	assert.Equal(t, "First session", f.notifier.goals[0].Title)

	events := f.svc.Poll()
	require.Len(t, events, 1)
	assert.Len(t, events[0].Achieved, 1)
}
