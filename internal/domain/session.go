package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Session is a single study or break interval as recorded by the backend.
// The client adopts the backend's copy verbatim after every mutating call.
type Session struct {
	ID          string      `json:"_id"`
	UserID      string      `json:"userId,omitempty"`
	Kind        SessionKind `json:"sessionType"`
	Duration    int         `json:"duration"`
	StartTime   time.Time   `json:"startTime"`
	ResumedAt   *time.Time  `json:"resumedAt,omitempty"`
	Completed   int         `json:"completedTime"`
	IsPaused    bool        `json:"isPaused"`
	IsCompleted bool        `json:"isCompleted"`
	IsCancelled bool        `json:"isCancelled"`
	EndTime     *time.Time  `json:"endTime,omitempty"`
}

type sessionJSON Session

// UnmarshalJSON accepts the identifier as either "_id" or "id".
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw struct {
		sessionJSON
		PlainID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Session(raw.sessionJSON)
	if s.ID == "" {
		s.ID = raw.PlainID
	}
	return nil
}

// Baseline is the instant the current running segment started.
func (s *Session) Baseline() time.Time {
	if s.ResumedAt != nil {
		return *s.ResumedAt
	}
	return s.StartTime
}

// Active reports whether the session is neither completed nor cancelled.
func (s *Session) Active() bool {
	return !s.IsCompleted && !s.IsCancelled
}

// DurationTime returns the declared duration as a time.Duration.
func (s *Session) DurationTime() time.Duration {
	return time.Duration(s.Duration) * time.Second
}

// Validate checks the invariants a backend session must hold.
func (s *Session) Validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("%w: session has no id", ErrValidation)
	case !s.Kind.Valid():
		return fmt.Errorf("%w: session has unknown type %q", ErrValidation, string(s.Kind))
	case s.Duration <= 0:
		return fmt.Errorf("%w: session duration must be positive", ErrValidation)
	case s.StartTime.IsZero():
		return fmt.Errorf("%w: session has no start time", ErrValidation)
	case s.IsCompleted && s.IsCancelled:
		return fmt.Errorf("%w: session is both completed and cancelled", ErrValidation)
	case s.Completed < 0 || s.Completed > s.Duration:
		return fmt.Errorf("%w: completed time %d outside [0, %d]", ErrValidation, s.Completed, s.Duration)
	}
	return nil
}

// Clone returns a deep copy so callers can't mutate controller state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.ResumedAt != nil {
		t := *s.ResumedAt
		c.ResumedAt = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return &c
}

// StatusLabel returns a human-readable status.
func (s *Session) StatusLabel() string {
	switch {
	case s.IsCompleted:
		return "Completed"
	case s.IsCancelled:
		return "Cancelled"
	case s.IsPaused:
		return "Paused"
	}
	return "Running"
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
