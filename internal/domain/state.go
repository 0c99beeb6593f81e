package domain

import "time"

// LifecycleState is the controller's view of the active session.
type LifecycleState int

const (
	StateIdle LifecycleState = iota
	StateRunning
	StatePaused
	StateEnding
	StateCancelling
)

func (s LifecycleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateEnding:
		return "ending"
	case StateCancelling:
		return "cancelling"
	}
	return "unknown"
}

// HasSession reports whether a session is attached in this state.
func (s LifecycleState) HasSession() bool {
	return s != StateIdle
}

// StateFor derives the lifecycle state from a backend session.
func StateFor(s *Session) LifecycleState {
	if s == nil || !s.Active() {
		return StateIdle
	}
	if s.IsPaused {
		return StatePaused
	}
	return StateRunning
}

// DefaultDailyGoal is the number of sessions per day counted as a full day.
const DefaultDailyGoal = 6

// SessionCounts is the backend's aggregate of completed sessions.
type SessionCounts struct {
	Today int `json:"today"`
	Week  int `json:"week"`
	Total int `json:"total"`
}

// GoalProgress returns min(1, today/goal)*100. A non-positive goal yields 0.
func GoalProgress(today, goal int) float64 {
	if goal <= 0 || today <= 0 {
		return 0
	}
	ratio := float64(today) / float64(goal)
	if ratio > 1 {
		ratio = 1
	}
	return ratio * 100
}

// Snapshot is a consistent view of the controller at an instant.
type Snapshot struct {
	State       LifecycleState
	Session     *Session
	Mode        Mode
	Remaining   int
	Elapsed     int
	Progress    float64
	Results     *SessionResults
	ShowResults bool
	Busy        string
	Owner       string
	LastError   error
	At          time.Time
}

// Clock returns the remaining time as MM:SS.
func (s Snapshot) Clock() string {
	return FormatClock(s.Remaining)
}

// StatsView is the rendered form of SessionCounts against the daily goal.
type StatsView struct {
	Counts   SessionCounts
	Goal     int
	Progress float64
	Empty    bool
}

// NewStatsView computes goal progress for counts.
func NewStatsView(c SessionCounts, goal int) StatsView {
	return StatsView{
		Counts:   c,
		Goal:     goal,
		Progress: GoalProgress(c.Today, goal),
		Empty:    c.Total == 0,
	}
}

// GoalReached reports whether today's sessions meet the goal.
func (v StatsView) GoalReached() bool {
	return v.Goal > 0 && v.Counts.Today >= v.Goal
}
