// Package timer implements the pomodoro countdown state machine that drives
// study sessions. The Engine owns the mode, the countdown and the in-flight
// focus session, and hands finished sessions to a caller-supplied sink.
package timer

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xvierd/studyx/internal/domain"
)

// TickInterval is the countdown resolution.
const TickInterval = time.Second

// SessionSink receives each finished focus session.
type SessionSink func(session domain.StudySession)

// BreakHook is called with the break mode that just ended.
type BreakHook func(ended domain.TimerMode)

// ActiveSession is the focus session being counted down.
type ActiveSession struct {
	ID        string
	SubjectID string
	Notes     string
	Date      string
	StartedAt time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithSessionSink sets the callback for finished focus sessions.
func WithSessionSink(sink SessionSink) Option {
	return func(e *Engine) { e.onSession = sink }
}

// WithBreakComplete sets the callback for finished breaks.
func WithBreakComplete(hook BreakHook) Option {
	return func(e *Engine) { e.onBreak = hook }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine is the pomodoro state machine. All methods are safe for concurrent
// use. Callbacks run on the goroutine that caused the transition, after the
// engine's lock is released, and must not call back into the engine.
type Engine struct {
	mu sync.Mutex

	clock     Clock
	log       *zap.Logger
	onSession SessionSink
	onBreak   BreakHook

	cfg     domain.TimerConfig
	pending *domain.TimerConfig

	mode      domain.TimerMode
	phase     domain.TimerPhase
	remaining int
	completed int
	session   *ActiveSession

	ticker     Handle
	generation uint64
}

// New validates cfg and returns an idle engine in focus mode.
func New(cfg domain.TimerConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		clock: SystemClock,
		log:   zap.NewNop(),
		cfg:   cfg,
		mode:  domain.ModeFocus,
		phase: domain.PhaseIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.remaining = cfg.DurationFor(e.mode)

	return e, nil
}

// Start begins the countdown for the current mode. A focus start opens a new
// session for subjectID. Ignored unless the engine is idle.
func (e *Engine) Start(subjectID, notes string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != domain.PhaseIdle {
		return
	}

	if e.mode == domain.ModeFocus {
		now := e.clock.Now()
		e.session = &ActiveSession{
			ID:        domain.NewID(),
			SubjectID: subjectID,
			Notes:     notes,
			Date:      now.Format(domain.DateLayout),
			StartedAt: now,
		}
	}
	e.phase = domain.PhaseRunning
	e.arm()

	e.log.Info("timer started",
		zap.String("mode", string(e.mode)),
		zap.String("subject_id", subjectID),
		zap.Int("remaining", e.remaining))
}

// Pause freezes a running countdown.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != domain.PhaseRunning {
		return
	}
	e.disarm()
	e.phase = domain.PhasePaused
	e.log.Info("timer paused", zap.Int("remaining", e.remaining))
}

// Resume continues a paused countdown from where it stopped.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != domain.PhasePaused {
		return
	}
	e.phase = domain.PhaseRunning
	e.arm()
	e.log.Info("timer resumed", zap.Int("remaining", e.remaining))
}

// Stop abandons the current countdown without recording anything and resets
// the time for the current mode.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active() {
		return
	}
	e.disarm()
	e.session = nil
	e.enterIdle()
	e.log.Info("timer stopped", zap.String("mode", string(e.mode)))
}

// Skip finishes the current countdown immediately, as if it had run out.
func (e *Engine) Skip() {
	e.mu.Lock()
	if !e.active() {
		e.mu.Unlock()
		return
	}
	e.log.Info("timer skipped", zap.Int("remaining", e.remaining))
	notify := e.complete()
	e.mu.Unlock()

	notify()
}

// ResetProgress returns to an idle focus period and clears the count of
// finished focus sessions.
func (e *Engine) ResetProgress() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.disarm()
	e.session = nil
	e.completed = 0
	e.mode = domain.ModeFocus
	e.enterIdle()
	e.log.Info("timer progress reset")
}

// Reconfigure replaces the durations. When idle the change applies at once;
// otherwise it waits until the engine next becomes idle. An invalid config
// is rejected and the current one kept.
func (e *Engine) Reconfigure(cfg domain.TimerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == domain.PhaseIdle {
		e.cfg = cfg
		e.pending = nil
		e.remaining = cfg.DurationFor(e.mode)
		return nil
	}
	e.pending = &cfg
	e.log.Debug("timer reconfiguration deferred", zap.String("phase", string(e.phase)))
	return nil
}

// Config returns the durations currently in effect.
func (e *Engine) Config() domain.TimerConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Snapshot returns the current state with its derived values.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := domain.ModeFocus
	if e.mode == domain.ModeFocus {
		next = e.upcoming().BreakAfter(e.completed + 1)
	}

	snap := Snapshot{
		Mode:                e.mode,
		Phase:               e.phase,
		RemainingSeconds:    e.remaining,
		DurationSeconds:     e.cfg.DurationFor(e.mode),
		CompletedFocusCount: e.completed,
		NextMode:            next,
	}
	if e.session != nil {
		s := *e.session
		snap.ActiveSession = &s
	}
	return snap
}

// active reports whether a countdown is in progress, paused or not.
func (e *Engine) active() bool {
	return e.phase == domain.PhaseRunning || e.phase == domain.PhasePaused
}

// upcoming is the config the next idle transition will use.
func (e *Engine) upcoming() domain.TimerConfig {
	if e.pending != nil {
		return *e.pending
	}
	return e.cfg
}

// arm schedules the next tick. Caller holds mu.
func (e *Engine) arm() {
	gen := e.generation
	e.ticker = e.clock.AfterFunc(TickInterval, func() { e.tick(gen) })
}

// disarm cancels the scheduled tick and invalidates any callback that has
// already fired but not yet taken the lock. Caller holds mu.
func (e *Engine) disarm() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
	e.generation++
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if gen != e.generation || e.phase != domain.PhaseRunning {
		e.mu.Unlock()
		return
	}

	if e.remaining > 0 {
		e.remaining--
	}
	if e.remaining > 0 {
		e.arm()
		e.mu.Unlock()
		return
	}

	notify := e.complete()
	e.mu.Unlock()

	notify()
}

// complete finishes the current period and moves to the next mode. The
// returned func fires the callbacks and must be called after mu is released.
func (e *Engine) complete() func() {
	e.disarm()
	e.phase = domain.PhaseCompleted

	var notify func()
	ended := e.mode

	if ended == domain.ModeFocus {
		if e.session != nil {
			record := e.finalize(e.session)
			e.completed++
			if e.onSession != nil {
				sink := e.onSession
				notify = func() { sink(record) }
			}
			e.log.Info("focus session completed",
				zap.String("session_id", record.ID),
				zap.Int("duration", record.DurationSeconds),
				zap.Int("completed_focus", e.completed))
		}
		e.applyPending()
		e.mode = e.cfg.BreakAfter(e.completed)
	} else {
		e.applyPending()
		e.mode = domain.ModeFocus
		if e.onBreak != nil {
			hook := e.onBreak
			notify = func() { hook(ended) }
		}
		e.log.Info("break completed", zap.String("mode", string(ended)))
	}

	e.session = nil
	e.enterIdle()

	if notify == nil {
		return func() {}
	}
	return notify
}

// finalize turns the active session into its stored record. The recorded
// length is always the configured focus length.
func (e *Engine) finalize(s *ActiveSession) domain.StudySession {
	end := e.clock.Now()
	return domain.StudySession{
		ID:              s.ID,
		SubjectID:       s.SubjectID,
		DurationSeconds: e.cfg.DurationFor(domain.ModeFocus),
		StartTime:       s.StartedAt,
		EndTime:         &end,
		Notes:           s.Notes,
		Date:            s.Date,
		Completed:       true,
		Type:            domain.SessionTypeFocus,
	}
}

func (e *Engine) applyPending() {
	if e.pending != nil {
		e.cfg = *e.pending
		e.pending = nil
	}
}

// enterIdle rests the engine and resets the countdown for the current mode.
func (e *Engine) enterIdle() {
	e.applyPending()
	e.phase = domain.PhaseIdle
	e.remaining = e.cfg.DurationFor(e.mode)
}
