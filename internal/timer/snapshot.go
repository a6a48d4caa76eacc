package timer

import "github.com/xvierd/studyx/internal/domain"

// Snapshot is a point-in-time view of the engine. Derived values are
// computed from the stored fields on every call.
type Snapshot struct {
	Mode                domain.TimerMode
	Phase               domain.TimerPhase
	RemainingSeconds    int
	DurationSeconds     int
	CompletedFocusCount int
	NextMode            domain.TimerMode
	ActiveSession       *ActiveSession
}

// ProgressPercent is how much of the current period has elapsed, 0 to 100.
// A zero-length period counts as finished.
func (s Snapshot) ProgressPercent() float64 {
	if s.DurationSeconds <= 0 {
		return 100
	}
	p := 100 * float64(s.DurationSeconds-s.RemainingSeconds) / float64(s.DurationSeconds)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// FormattedRemaining renders the countdown as MM:SS.
func (s Snapshot) FormattedRemaining() string {
	return domain.FormatCountdown(s.RemainingSeconds)
}

// NextTransitionLabel names the mode that follows the current period.
func (s Snapshot) NextTransitionLabel() string {
	return s.NextMode.Label()
}

func (s Snapshot) IsRunning() bool   { return s.Phase == domain.PhaseRunning }
func (s Snapshot) IsPaused() bool    { return s.Phase == domain.PhasePaused }
func (s Snapshot) IsIdle() bool      { return s.Phase == domain.PhaseIdle }
func (s Snapshot) IsFocusMode() bool { return s.Mode == domain.ModeFocus }
func (s Snapshot) IsBreakMode() bool { return s.Mode.IsBreak() }
