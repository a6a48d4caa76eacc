package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/ports"
	"github.com/xvierd/studyx/internal/timer"
)

// ErrSubjectRequired is returned when a focus period is started without a
// subject selected.
var ErrSubjectRequired = errors.New("select a subject before starting a study session")

// persistTimeout bounds the storage work done when a focus period ends.
const persistTimeout = 5 * time.Second

// eventBuffer is how many timer events may wait for Poll.
const eventBuffer = 16

// EventKind identifies a TimerEvent.
type EventKind int

const (
	// EventSessionRecorded means a focus period ended and was stored.
	EventSessionRecorded EventKind = iota
	// EventBreakFinished means a break ran out or was skipped.
	EventBreakFinished
	// EventError means a finished focus period could not be stored.
	EventError
)

// TimerEvent reports something that happened on the timer goroutine.
type TimerEvent struct {
	Kind     EventKind
	Session  *domain.StudySession
	Break    domain.TimerMode
	Achieved []*domain.StudyGoal
	Err      error
}

// TimerOptions configures a TimerService.
type TimerOptions struct {
	Config             domain.TimerConfig
	AutoStartBreaks    bool
	AutoStartPomodoros bool

	// Workspace is the study repository inspected when Git is set.
	Workspace string
	Git       ports.GitDetector
	Notifier  ports.Notifier

	Clock  timer.Clock
	Logger *zap.Logger
}

// TimerService runs the pomodoro engine for the interactive timer. Finished
// focus periods are tagged with the subject name and workspace revision,
// stored through the StudyService and announced through the notifier.
type TimerService struct {
	engine   *timer.Engine
	study    *StudyService
	git      ports.GitDetector
	notifier ports.Notifier
	log      *zap.Logger

	workspace          string
	autoStartBreaks    bool
	autoStartPomodoros bool

	mu      sync.Mutex
	subject *domain.Subject
	notes   string

	events chan TimerEvent
}

// NewTimerService creates the engine and wires its callbacks.
func NewTimerService(study *StudyService, opts TimerOptions) (*TimerService, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &TimerService{
		study:              study,
		git:                opts.Git,
		notifier:           opts.Notifier,
		log:                log,
		workspace:          opts.Workspace,
		autoStartBreaks:    opts.AutoStartBreaks,
		autoStartPomodoros: opts.AutoStartPomodoros,
		events:             make(chan TimerEvent, eventBuffer),
	}

	engineOpts := []timer.Option{
		timer.WithLogger(log.Named("timer")),
		timer.WithSessionSink(s.recordSession),
		timer.WithBreakComplete(s.breakFinished),
	}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, timer.WithClock(opts.Clock))
	}

	engine, err := timer.New(opts.Config, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create timer: %w", err)
	}
	s.engine = engine

	return s, nil
}

// SelectSubject chooses the subject for the next focus period.
func (s *TimerService) SelectSubject(ctx context.Context, idOrName string) (*domain.Subject, error) {
	subject, err := s.study.ResolveSubject(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.subject = subject
	s.mu.Unlock()
	return subject, nil
}

// SetNotes sets the notes attached to the next focus period.
func (s *TimerService) SetNotes(notes string) {
	s.mu.Lock()
	s.notes = notes
	s.mu.Unlock()
}

// Subject returns the selected subject, or nil.
func (s *TimerService) Subject() *domain.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

// Start begins the current period. Focus periods need a selected subject;
// breaks start without one.
func (s *TimerService) Start() error {
	snap := s.engine.Snapshot()
	if !snap.IsIdle() {
		return nil
	}

	if !snap.IsFocusMode() {
		s.engine.Start("", "")
		return nil
	}

	s.mu.Lock()
	subject, notes := s.subject, s.notes
	s.mu.Unlock()
	if subject == nil {
		return ErrSubjectRequired
	}
	s.engine.Start(subject.ID, notes)
	return nil
}

// TogglePause pauses a running period or resumes a paused one.
func (s *TimerService) TogglePause() {
	snap := s.engine.Snapshot()
	switch {
	case snap.IsRunning():
		s.engine.Pause()
	case snap.IsPaused():
		s.engine.Resume()
	}
}

// Pause freezes the countdown.
func (s *TimerService) Pause() { s.engine.Pause() }

// Resume continues a paused countdown.
func (s *TimerService) Resume() { s.engine.Resume() }

// Stop abandons the current period without recording it.
func (s *TimerService) Stop() { s.engine.Stop() }

// Skip ends the current period now. A skipped focus period is recorded.
func (s *TimerService) Skip() { s.engine.Skip() }

// ResetProgress clears the completed count and returns to focus.
func (s *TimerService) ResetProgress() { s.engine.ResetProgress() }

// Reconfigure changes the durations, deferred while a period is active.
func (s *TimerService) Reconfigure(cfg domain.TimerConfig) error {
	return s.engine.Reconfigure(cfg)
}

// Snapshot returns the engine state.
func (s *TimerService) Snapshot() timer.Snapshot {
	return s.engine.Snapshot()
}

// Poll returns the events raised since the last call and applies the
// auto-start settings to them. It must not be called from an engine
// callback.
func (s *TimerService) Poll() []TimerEvent {
	var drained []TimerEvent
	for {
		select {
		case ev := <-s.events:
			drained = append(drained, ev)
		default:
			s.autoStart(drained)
			return drained
		}
	}
}

func (s *TimerService) autoStart(events []TimerEvent) {
	if len(events) == 0 {
		return
	}
	last := events[len(events)-1]
	snap := s.engine.Snapshot()
	if !snap.IsIdle() {
		return
	}

	switch {
	case last.Kind == EventSessionRecorded && s.autoStartBreaks && snap.IsBreakMode():
		s.engine.Start("", "")
	case last.Kind == EventBreakFinished && s.autoStartPomodoros && snap.IsFocusMode():
		if err := s.Start(); err != nil {
			s.log.Debug("focus auto-start skipped", zap.Error(err))
		}
	}
}

// recordSession is the engine's session sink. It runs on the timer
// goroutine and must not call into the engine.
func (s *TimerService) recordSession(session domain.StudySession) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	s.mu.Lock()
	if s.subject != nil && s.subject.ID == session.SubjectID {
		session.Subject = s.subject.Name
	}
	s.mu.Unlock()

	if s.git != nil {
		if info, err := s.git.Detect(ctx, s.workspace); err == nil {
			session.SetGitContext(info.Branch, info.Commit)
		} else {
			s.log.Debug("no git context for session", zap.Error(err))
		}
	}

	achieved, err := s.study.AddSession(ctx, &session)
	if err != nil {
		s.log.Error("failed to record session", zap.String("session_id", session.ID), zap.Error(err))
		s.emit(TimerEvent{Kind: EventError, Session: &session, Err: err})
		return
	}

	if s.notifier != nil {
		if err := s.notifier.NotifySessionComplete(session); err != nil {
			s.log.Warn("session notification failed", zap.Error(err))
		}
		for _, g := range achieved {
			if err := s.notifier.NotifyGoalAchieved(*g); err != nil {
				s.log.Warn("goal notification failed", zap.Error(err))
			}
		}
	}

	s.emit(TimerEvent{Kind: EventSessionRecorded, Session: &session, Achieved: achieved})
}

// breakFinished is the engine's break hook.
func (s *TimerService) breakFinished(ended domain.TimerMode) {
	if s.notifier != nil {
		if err := s.notifier.NotifyBreakComplete(ended); err != nil {
			s.log.Warn("break notification failed", zap.Error(err))
		}
	}
	s.emit(TimerEvent{Kind: EventBreakFinished, Break: ended})
}

func (s *TimerService) emit(ev TimerEvent) {
	select {
	case s.events <- ev:
	default:
		s.log.Warn("timer event dropped", zap.Int("kind", int(ev.Kind)))
	}
}
