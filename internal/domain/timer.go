package domain

// TimerMode is the kind of interval the timer is counting down.
type TimerMode string

const (
	ModeFocus      TimerMode = "focus"
	ModeShortBreak TimerMode = "short_break"
	ModeLongBreak  TimerMode = "long_break"
)

// Label returns a human-readable label for the mode.
func (m TimerMode) Label() string {
	switch m {
	case ModeFocus:
		return "Focus Time"
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	default:
		return "Unknown"
	}
}

// IsBreak reports whether the mode is one of the two break kinds.
func (m TimerMode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

// TimerPhase is the run state of the timer.
type TimerPhase string

const (
	PhaseIdle    TimerPhase = "idle"
	PhaseRunning TimerPhase = "running"
	PhasePaused  TimerPhase = "paused"
	// PhaseCompleted is only passed through while a countdown is being
	// finalized. Callers never observe it in a snapshot.
	PhaseCompleted TimerPhase = "completed"
)

// Label returns a human-readable label for the phase.
func (p TimerPhase) Label() string {
	switch p {
	case PhaseIdle:
		return "Ready"
	case PhaseRunning:
		return "Running"
	case PhasePaused:
		return "Paused"
	case PhaseCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// TimerConfig holds the pomodoro durations in minutes.
type TimerConfig struct {
	FocusMinutes      int `json:"focusDuration"`
	ShortBreakMinutes int `json:"shortBreakDuration"`
	LongBreakMinutes  int `json:"longBreakDuration"`
	LongBreakInterval int `json:"longBreakInterval"`
}

// DefaultTimerConfig returns the classic 25/5/15 cadence with a long break
// after every fourth focus session.
func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		FocusMinutes:      25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
		LongBreakInterval: 4,
	}
}

// Validate returns a *ConfigurationError naming every non-positive field.
func (c TimerConfig) Validate() error {
	var bad []string
	if c.FocusMinutes <= 0 {
		bad = append(bad, "focus minutes")
	}
	if c.ShortBreakMinutes <= 0 {
		bad = append(bad, "short break minutes")
	}
	if c.LongBreakMinutes <= 0 {
		bad = append(bad, "long break minutes")
	}
	if c.LongBreakInterval <= 0 {
		bad = append(bad, "long break interval")
	}
	if len(bad) > 0 {
		return &ConfigurationError{Fields: bad}
	}
	return nil
}

// DurationFor returns the length of the given mode in seconds.
func (c TimerConfig) DurationFor(mode TimerMode) int {
	switch mode {
	case ModeShortBreak:
		return c.ShortBreakMinutes * 60
	case ModeLongBreak:
		return c.LongBreakMinutes * 60
	default:
		return c.FocusMinutes * 60
	}
}

// BreakAfter returns the break that follows the k-th completed focus
// session, counting from 1.
func (c TimerConfig) BreakAfter(k int) TimerMode {
	if c.LongBreakInterval > 0 && k > 0 && k%c.LongBreakInterval == 0 {
		return ModeLongBreak
	}
	return ModeShortBreak
}
