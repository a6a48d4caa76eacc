package timer_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/timer"
	"github.com/xvierd/studyx/internal/timer/timertest"
)

type recorder struct {
	mu       sync.Mutex
	sessions []domain.StudySession
	breaks   []domain.TimerMode
}

func (r *recorder) sink(s domain.StudySession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

func (r *recorder) breakDone(m domain.TimerMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breaks = append(r.breaks, m)
}

func (r *recorder) sessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

var epoch = time.Date(2024, 9, 2, 9, 0, 0, 0, time.Local)

func newEngine(t *testing.T) (*timer.Engine, *timertest.Clock, *recorder) {
	t.Helper()
	clock := timertest.NewClock(epoch)
	rec := &recorder{}
	e, err := timer.New(domain.DefaultTimerConfig(),
		timer.WithClock(clock),
		timer.WithSessionSink(rec.sink),
		timer.WithBreakComplete(rec.breakDone),
	)
	require.NoError(t, err)
	return e, clock, rec
}

// completeFocus runs one full focus period from idle.
func completeFocus(t *testing.T, e *timer.Engine, clock *timertest.Clock) {
	t.Helper()
	require.Equal(t, domain.ModeFocus, e.Snapshot().Mode)
	e.Start("math", "")
	clock.Tick(1500)
}

// completeBreak runs one full break period from idle.
func completeBreak(t *testing.T, e *timer.Engine, clock *timertest.Clock) {
	t.Helper()
	snap := e.Snapshot()
	require.True(t, snap.IsBreakMode())
	e.Start("", "")
	clock.Tick(snap.RemainingSeconds)
}

func TestNew_InitialState(t *testing.T) {
	e, clock, _ := newEngine(t)
	snap := e.Snapshot()

	assert.Equal(t, domain.ModeFocus, snap.Mode)
	assert.Equal(t, domain.PhaseIdle, snap.Phase)
	assert.Equal(t, 1500, snap.RemainingSeconds)
	assert.Equal(t, 0, snap.CompletedFocusCount)
	assert.Equal(t, "25:00", snap.FormattedRemaining())
	assert.Equal(t, 0.0, snap.ProgressPercent())
	assert.Equal(t, "Short Break", snap.NextTransitionLabel())
	assert.Nil(t, snap.ActiveSession)
	assert.Equal(t, 0, clock.Pending())
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  domain.TimerConfig
	}{
		{"zero interval", domain.TimerConfig{FocusMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15, LongBreakInterval: 0}},
		{"negative interval", domain.TimerConfig{FocusMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15, LongBreakInterval: -1}},
		{"zero focus", domain.TimerConfig{FocusMinutes: 0, ShortBreakMinutes: 5, LongBreakMinutes: 15, LongBreakInterval: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := timer.New(tt.cfg)
			assert.Nil(t, e)
			assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration), "got %v", err)
		})
	}
}

func TestStart_OpensFocusSession(t *testing.T) {
	e, clock, _ := newEngine(t)

	e.Start("physics", "chapter 4")
	snap := e.Snapshot()

	assert.True(t, snap.IsRunning())
	require.NotNil(t, snap.ActiveSession)
	assert.NotEmpty(t, snap.ActiveSession.ID)
	assert.Equal(t, "physics", snap.ActiveSession.SubjectID)
	assert.Equal(t, "chapter 4", snap.ActiveSession.Notes)
	assert.Equal(t, "2024-09-02", snap.ActiveSession.Date)
	assert.True(t, snap.ActiveSession.StartedAt.Equal(epoch))
	assert.Equal(t, 1, clock.Pending())
}

func TestCountdown_DecrementsOncePerTick(t *testing.T) {
	e, clock, _ := newEngine(t)
	e.Start("math", "")

	prev := e.Snapshot().RemainingSeconds
	for i := 0; i < 1499; i++ {
		clock.Tick(1)
		got := e.Snapshot().RemainingSeconds
		require.Equal(t, prev-1, got, "tick %d", i+1)
		require.GreaterOrEqual(t, got, 0)
		require.Equal(t, 1, clock.Pending(), "exactly one tick scheduled while running")
		prev = got
	}
	assert.Equal(t, 1, prev)
	assert.InDelta(t, 100*1499.0/1500.0, e.Snapshot().ProgressPercent(), 0.0001)
}

func TestIdleAlwaysHasFullDuration(t *testing.T) {
	e, clock, _ := newEngine(t)
	check := func(step string) {
		snap := e.Snapshot()
		if snap.IsIdle() {
			assert.Equal(t, domain.DefaultTimerConfig().DurationFor(snap.Mode), snap.RemainingSeconds, step)
		}
	}

	check("initial")
	e.Start("math", "")
	clock.Tick(600)
	e.Stop()
	check("after stop")
	completeFocus(t, e, clock)
	check("after focus completion")
	e.Start("", "")
	clock.Tick(100)
	e.Skip()
	check("after skipped break")
	e.Start("math", "")
	clock.Tick(30)
	e.Pause()
	e.ResetProgress()
	check("after reset")
}

func TestScenario_FocusCompletesIntoShortBreak(t *testing.T) {
	e, clock, rec := newEngine(t)

	e.Start("math", "derivatives")
	clock.Tick(1500)

	snap := e.Snapshot()
	assert.Equal(t, domain.ModeShortBreak, snap.Mode)
	assert.Equal(t, domain.PhaseIdle, snap.Phase)
	assert.Equal(t, 300, snap.RemainingSeconds)
	assert.Equal(t, 1, snap.CompletedFocusCount)
	assert.Nil(t, snap.ActiveSession)
	assert.Equal(t, 0, clock.Pending())

	require.Len(t, rec.sessions, 1)
	s := rec.sessions[0]
	assert.Equal(t, 1500, s.DurationSeconds)
	assert.Equal(t, "math", s.SubjectID)
	assert.Equal(t, "derivatives", s.Notes)
	assert.Equal(t, "2024-09-02", s.Date)
	assert.True(t, s.Completed)
	assert.Equal(t, domain.SessionTypeFocus, s.Type)
	assert.True(t, s.StartTime.Equal(epoch))
	require.NotNil(t, s.EndTime)
	assert.True(t, s.EndTime.Equal(epoch.Add(1500*time.Second)))
	assert.Empty(t, s.Subject, "engine does not resolve subject names")
}

func TestScenario_FourthFocusGetsLongBreak(t *testing.T) {
	e, clock, rec := newEngine(t)

	for i := 1; i <= 4; i++ {
		completeFocus(t, e, clock)
		snap := e.Snapshot()
		assert.Equal(t, i, snap.CompletedFocusCount)
		if i < 4 {
			assert.Equal(t, domain.ModeShortBreak, snap.Mode, "after focus %d", i)
			completeBreak(t, e, clock)
		}
	}

	snap := e.Snapshot()
	assert.Equal(t, domain.ModeLongBreak, snap.Mode)
	assert.Equal(t, 900, snap.RemainingSeconds)
	assert.Len(t, rec.sessions, 4)
	assert.Equal(t, []domain.TimerMode{domain.ModeShortBreak, domain.ModeShortBreak, domain.ModeShortBreak}, rec.breaks)

	completeBreak(t, e, clock)
	assert.Equal(t, domain.ModeFocus, e.Snapshot().Mode)
	assert.Equal(t, domain.ModeLongBreak, rec.breaks[len(rec.breaks)-1])
}

func TestLongBreakCadence(t *testing.T) {
	for _, interval := range []int{1, 2, 3, 5} {
		cfg := domain.DefaultTimerConfig()
		cfg.LongBreakInterval = interval
		clock := timertest.NewClock(epoch)
		e, err := timer.New(cfg, timer.WithClock(clock))
		require.NoError(t, err)

		for k := 1; k <= 2*interval+1; k++ {
			e.Start("s", "")
			e.Skip()
			want := domain.ModeShortBreak
			if k%interval == 0 {
				want = domain.ModeLongBreak
			}
			assert.Equal(t, want, e.Snapshot().Mode, "interval %d, completion %d", interval, k)
			e.Start("", "")
			e.Skip()
		}
	}
}

func TestNextTransitionLabelMatchesActualTransition(t *testing.T) {
	e, clock, _ := newEngine(t)

	for k := 1; k <= 8; k++ {
		preview := e.Snapshot().NextMode
		completeFocus(t, e, clock)
		assert.Equal(t, preview, e.Snapshot().Mode, "completion %d", k)

		assert.Equal(t, domain.ModeFocus, e.Snapshot().NextMode)
		assert.Equal(t, "Focus Time", e.Snapshot().NextTransitionLabel())
		completeBreak(t, e, clock)
	}
}

func TestScenario_PauseDoesNotAffectRecordedDuration(t *testing.T) {
	e, clock, rec := newEngine(t)

	e.Start("math", "")
	clock.Tick(10)
	e.Pause()
	assert.Equal(t, 1490, e.Snapshot().RemainingSeconds)
	assert.Equal(t, 0, clock.Pending())

	clock.Tick(500)
	snap := e.Snapshot()
	assert.True(t, snap.IsPaused())
	assert.Equal(t, 1490, snap.RemainingSeconds)

	e.Resume()
	clock.Tick(1490)

	require.Len(t, rec.sessions, 1)
	assert.Equal(t, 1500, rec.sessions[0].DurationSeconds)
	assert.Equal(t, domain.ModeShortBreak, e.Snapshot().Mode)
}

func TestDurationFidelityAcrossManyPauses(t *testing.T) {
	e, clock, rec := newEngine(t)

	e.Start("math", "")
	for i := 0; i < 50; i++ {
		clock.Tick(20)
		e.Pause()
		clock.Tick(37)
		e.Resume()
	}
	clock.Tick(500)

	require.Len(t, rec.sessions, 1)
	assert.Equal(t, 1500, rec.sessions[0].DurationSeconds)
}

func TestScenario_SkipCompletesImmediately(t *testing.T) {
	e, clock, rec := newEngine(t)

	e.Start("math", "")
	clock.Tick(3)
	e.Skip()

	require.Len(t, rec.sessions, 1)
	assert.Equal(t, 1500, rec.sessions[0].DurationSeconds)
	snap := e.Snapshot()
	assert.Equal(t, domain.ModeShortBreak, snap.Mode)
	assert.Equal(t, 1, snap.CompletedFocusCount)
	assert.True(t, snap.IsIdle())
	assert.Equal(t, 0, clock.Pending())
}

func TestSkipWhilePaused(t *testing.T) {
	e, clock, rec := newEngine(t)

	e.Start("math", "")
	clock.Tick(60)
	e.Pause()
	e.Skip()

	assert.Len(t, rec.sessions, 1)
	assert.Equal(t, domain.ModeShortBreak, e.Snapshot().Mode)
}

func TestSkipBreakFiresBreakHook(t *testing.T) {
	e, _, rec := newEngine(t)

	e.Start("math", "")
	e.Skip()
	e.Start("", "")
	e.Skip()

	assert.Len(t, rec.sessions, 1)
	assert.Equal(t, []domain.TimerMode{domain.ModeShortBreak}, rec.breaks)
	snap := e.Snapshot()
	assert.Equal(t, domain.ModeFocus, snap.Mode)
	assert.Equal(t, 1, snap.CompletedFocusCount)
}

func TestScenario_StopResetsWithoutRecording(t *testing.T) {
	e, clock, rec := newEngine(t)

	e.Start("math", "")
	clock.Tick(600)
	require.Equal(t, 900, e.Snapshot().RemainingSeconds)

	e.Stop()

	snap := e.Snapshot()
	assert.Equal(t, domain.PhaseIdle, snap.Phase)
	assert.Equal(t, domain.ModeFocus, snap.Mode)
	assert.Equal(t, 1500, snap.RemainingSeconds)
	assert.Nil(t, snap.ActiveSession)
	assert.Empty(t, rec.sessions)
	assert.Equal(t, 0, clock.Pending())
}

func TestStopDuringBreakKeepsBreakMode(t *testing.T) {
	e, clock, rec := newEngine(t)
	completeFocus(t, e, clock)

	e.Start("", "")
	clock.Tick(120)
	e.Stop()

	snap := e.Snapshot()
	assert.Equal(t, domain.ModeShortBreak, snap.Mode)
	assert.Equal(t, 300, snap.RemainingSeconds)
	assert.Empty(t, rec.breaks)
}

func TestScenario_ResetProgress(t *testing.T) {
	e, clock, _ := newEngine(t)
	for i := 0; i < 3; i++ {
		completeFocus(t, e, clock)
		completeBreak(t, e, clock)
	}
	require.Equal(t, 3, e.Snapshot().CompletedFocusCount)

	e.Start("math", "")
	clock.Tick(5)
	e.ResetProgress()

	snap := e.Snapshot()
	assert.Equal(t, 0, snap.CompletedFocusCount)
	assert.Equal(t, domain.ModeFocus, snap.Mode)
	assert.Equal(t, domain.PhaseIdle, snap.Phase)
	assert.Equal(t, 1500, snap.RemainingSeconds)
	assert.Nil(t, snap.ActiveSession)
	assert.Equal(t, 0, clock.Pending())
}

func TestResetProgressFromBreak(t *testing.T) {
	e, clock, _ := newEngine(t)
	completeFocus(t, e, clock)
	require.Equal(t, domain.ModeShortBreak, e.Snapshot().Mode)

	e.ResetProgress()

	snap := e.Snapshot()
	assert.Equal(t, domain.ModeFocus, snap.Mode)
	assert.Equal(t, 1500, snap.RemainingSeconds)
}

func TestInvalidCommandsAreNoOps(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *timer.Engine, c *timertest.Clock)
		cmd   func(e *timer.Engine)
	}{
		{"pause while idle", func(*timer.Engine, *timertest.Clock) {}, func(e *timer.Engine) { e.Pause() }},
		{"resume while idle", func(*timer.Engine, *timertest.Clock) {}, func(e *timer.Engine) { e.Resume() }},
		{"stop while idle", func(*timer.Engine, *timertest.Clock) {}, func(e *timer.Engine) { e.Stop() }},
		{"skip while idle", func(*timer.Engine, *timertest.Clock) {}, func(e *timer.Engine) { e.Skip() }},
		{"start while running", func(e *timer.Engine, c *timertest.Clock) {
			e.Start("math", "")
			c.Tick(42)
		}, func(e *timer.Engine) { e.Start("other", "other notes") }},
		{"resume while running", func(e *timer.Engine, c *timertest.Clock) {
			e.Start("math", "")
			c.Tick(7)
		}, func(e *timer.Engine) { e.Resume() }},
		{"start while paused", func(e *timer.Engine, c *timertest.Clock) {
			e.Start("math", "")
			c.Tick(7)
			e.Pause()
		}, func(e *timer.Engine) { e.Start("other", "") }},
		{"pause while paused", func(e *timer.Engine, c *timertest.Clock) {
			e.Start("math", "")
			e.Pause()
		}, func(e *timer.Engine) { e.Pause() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, clock, rec := newEngine(t)
			tt.setup(e, clock)
			before := e.Snapshot()
			pending := clock.Pending()

			tt.cmd(e)

			assert.Equal(t, before, e.Snapshot())
			assert.Equal(t, pending, clock.Pending())
			assert.Empty(t, rec.sessions)
		})
	}
}

func TestStaleTickAfterStopIsIgnored(t *testing.T) {
	e, clock, rec := newEngine(t)

	e.Start("math", "")
	clock.Tick(1)
	e.Stop()
	after := e.Snapshot()

	fired := clock.FireStopped()
	require.Equal(t, 1, fired)
	assert.Equal(t, after, e.Snapshot())
	assert.Empty(t, rec.sessions)

	// A fresh start must count down exactly once per second.
	e.Start("math", "")
	clock.Tick(1)
	assert.Equal(t, 1499, e.Snapshot().RemainingSeconds)
}

func TestStaleTickAfterPauseResumeIsIgnored(t *testing.T) {
	e, clock, _ := newEngine(t)

	e.Start("math", "")
	clock.Tick(10)
	e.Pause()
	e.Resume()

	require.Equal(t, 1, clock.FireStopped())
	assert.Equal(t, 1490, e.Snapshot().RemainingSeconds)

	clock.Tick(1)
	assert.Equal(t, 1489, e.Snapshot().RemainingSeconds)
}

func TestStaleTickAfterCompletionIsIgnored(t *testing.T) {
	e, clock, rec := newEngine(t)

	e.Start("math", "")
	e.Skip()
	after := e.Snapshot()

	clock.FireStopped()
	assert.Equal(t, after, e.Snapshot())
	assert.Len(t, rec.sessions, 1)
}

func TestReconfigure(t *testing.T) {
	t.Run("applies immediately when idle", func(t *testing.T) {
		e, _, _ := newEngine(t)
		cfg := domain.TimerConfig{FocusMinutes: 50, ShortBreakMinutes: 10, LongBreakMinutes: 30, LongBreakInterval: 2}

		require.NoError(t, e.Reconfigure(cfg))

		assert.Equal(t, 3000, e.Snapshot().RemainingSeconds)
		assert.Equal(t, cfg, e.Config())
	})

	t.Run("invalid config keeps previous", func(t *testing.T) {
		e, _, _ := newEngine(t)
		before := e.Snapshot()

		err := e.Reconfigure(domain.TimerConfig{FocusMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15})

		var cfgErr *domain.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, domain.DefaultTimerConfig(), e.Config())
		assert.Equal(t, before, e.Snapshot())
	})

	t.Run("deferred while running", func(t *testing.T) {
		e, clock, rec := newEngine(t)
		e.Start("math", "")
		clock.Tick(100)

		cfg := domain.TimerConfig{FocusMinutes: 50, ShortBreakMinutes: 10, LongBreakMinutes: 30, LongBreakInterval: 1}
		require.NoError(t, e.Reconfigure(cfg))

		snap := e.Snapshot()
		assert.Equal(t, 1400, snap.RemainingSeconds, "running countdown is untouched")
		assert.Equal(t, 1500, snap.DurationSeconds)
		assert.Equal(t, domain.ModeLongBreak, snap.NextMode, "preview uses the pending cadence")

		clock.Tick(1400)

		require.Len(t, rec.sessions, 1)
		assert.Equal(t, 1500, rec.sessions[0].DurationSeconds, "recorded with the config it ran under")
		after := e.Snapshot()
		assert.Equal(t, domain.ModeLongBreak, after.Mode)
		assert.Equal(t, 1800, after.RemainingSeconds)
		assert.Equal(t, cfg, e.Config())
	})

	t.Run("deferred while paused then applied on stop", func(t *testing.T) {
		e, clock, _ := newEngine(t)
		e.Start("math", "")
		clock.Tick(100)
		e.Pause()

		require.NoError(t, e.Reconfigure(domain.TimerConfig{FocusMinutes: 45, ShortBreakMinutes: 5, LongBreakMinutes: 15, LongBreakInterval: 4}))
		assert.Equal(t, 1400, e.Snapshot().RemainingSeconds)

		e.Stop()
		assert.Equal(t, 2700, e.Snapshot().RemainingSeconds)
	})
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name string
		snap timer.Snapshot
		want float64
	}{
		{"untouched", timer.Snapshot{DurationSeconds: 1500, RemainingSeconds: 1500}, 0},
		{"halfway", timer.Snapshot{DurationSeconds: 1500, RemainingSeconds: 750}, 50},
		{"done", timer.Snapshot{DurationSeconds: 300, RemainingSeconds: 0}, 100},
		{"zero duration", timer.Snapshot{DurationSeconds: 0, RemainingSeconds: 0}, 100},
		{"clamped high", timer.Snapshot{DurationSeconds: 60, RemainingSeconds: -10}, 100},
		{"clamped low", timer.Snapshot{DurationSeconds: 60, RemainingSeconds: 90}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.snap.ProgressPercent(), 0.0001)
		})
	}
}

func TestSnapshotPredicates(t *testing.T) {
	e, clock, _ := newEngine(t)

	snap := e.Snapshot()
	assert.True(t, snap.IsIdle())
	assert.True(t, snap.IsFocusMode())
	assert.False(t, snap.IsBreakMode())

	e.Start("math", "")
	assert.True(t, e.Snapshot().IsRunning())
	e.Pause()
	assert.True(t, e.Snapshot().IsPaused())
	e.Resume()
	clock.Tick(1500)

	snap = e.Snapshot()
	assert.True(t, snap.IsBreakMode())
	assert.False(t, snap.IsFocusMode())
	assert.Equal(t, "05:00", snap.FormattedRemaining())
}

func TestBreakStartHasNoSession(t *testing.T) {
	e, clock, _ := newEngine(t)
	completeFocus(t, e, clock)

	e.Start("ignored", "ignored")

	snap := e.Snapshot()
	assert.True(t, snap.IsRunning())
	assert.Nil(t, snap.ActiveSession)
}

func TestConcurrentCommandsAreSerialized(t *testing.T) {
	e, clock, rec := newEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				switch (i + j) % 6 {
				case 0:
					e.Start("math", "")
				case 1:
					e.Pause()
				case 2:
					e.Resume()
				case 3:
					clock.Tick(1)
				case 4:
					_ = e.Snapshot()
				case 5:
					if j%50 == 0 {
						e.Stop()
					}
				}
			}
		}(i)
	}
	wg.Wait()

	snap := e.Snapshot()
	assert.GreaterOrEqual(t, snap.RemainingSeconds, 0)
	assert.LessOrEqual(t, snap.RemainingSeconds, snap.DurationSeconds)
	if snap.ActiveSession != nil {
		assert.True(t, snap.IsFocusMode())
		assert.False(t, snap.IsIdle())
	}
	assert.Equal(t, snap.CompletedFocusCount, rec.sessionCount())
}
