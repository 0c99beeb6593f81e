package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MilestoneSpan is the length of a streak milestone in days.
const MilestoneSpan = 7

// DateLayout is the wire form of a calendar date.
const DateLayout = "2006-01-02"

// StreakInfo is the backend's streak record for a user. LastActivity is a
// calendar date held as midnight UTC.
type StreakInfo struct {
	Current      int        `json:"currentStreak"`
	Longest      int        `json:"longestStreak"`
	LastActivity *time.Time `json:"lastActivityDate,omitempty"`
}

// DateOf returns the calendar date of t, in t's own location, as midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a calendar date sent either bare (2006-01-02) or as an
// RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return DateOf(t), nil
}

type streakInfoJSON StreakInfo

// UnmarshalJSON accepts lastActivityDate as a bare date or a timestamp.
func (s *StreakInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		streakInfoJSON
		LastActivity *string `json:"lastActivityDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = StreakInfo(raw.streakInfoJSON)
	s.LastActivity = nil
	if raw.LastActivity != nil && *raw.LastActivity != "" {
		d, err := ParseDate(*raw.LastActivity)
		if err != nil {
			return err
		}
		s.LastActivity = &d
	}
	return nil
}

// MarshalJSON writes lastActivityDate as a bare date.
func (s StreakInfo) MarshalJSON() ([]byte, error) {
	out := struct {
		streakInfoJSON
		LastActivity string `json:"lastActivityDate,omitempty"`
	}{streakInfoJSON: streakInfoJSON(s)}
	if s.LastActivity != nil {
		out.LastActivity = s.LastActivity.Format(DateLayout)
	}
	return json.Marshal(out)
}

// Validate checks longest >= current >= 0.
func (s *StreakInfo) Validate() error {
	if s.Current < 0 || s.Longest < 0 {
		return fmt.Errorf("%w: negative streak", ErrValidation)
	}
	if s.Longest < s.Current {
		return fmt.Errorf("%w: longest streak %d below current %d", ErrValidation, s.Longest, s.Current)
	}
	return nil
}

// StreakReport is the result of a streak query. A nil Info means the user has
// no streak record at all, which is distinct from a zero streak with history.
type StreakReport struct {
	Info    *StreakInfo
	Message string
}

// NoStreak reports whether the backend has no streak record for the user.
func (r StreakReport) NoStreak() bool {
	return r.Info == nil
}

// StreakTier is a display band for a current streak.
type StreakTier int

const (
	TierSeedling StreakTier = iota
	TierStarted
	TierNice
	TierImpressive
	TierMaster
	TierLegend
)

// TierFor bands a streak: 0, 1, [2,7), [7,14), [14,30), [30,inf).
func TierFor(current int) StreakTier {
	switch {
	case current <= 0:
		return TierSeedling
	case current == 1:
		return TierStarted
	case current < 7:
		return TierNice
	case current < 14:
		return TierImpressive
	case current < 30:
		return TierMaster
	}
	return TierLegend
}

// Message is the motivational line for the tier.
func (t StreakTier) Message() string {
	switch t {
	case TierSeedling:
		return "Start your streak today!"
	case TierStarted:
		return "Great! Keep up the pace"
	case TierNice:
		return "Nice streak! Keep going"
	case TierImpressive:
		return "Impressive streak!"
	case TierMaster:
		return "You are a study master!"
	}
	return "Legend! Your dedication is amazing"
}

// StreakEmoji returns the intensity marker for a streak. Its bands are
// coarser than the tier bands at the low end.
func StreakEmoji(current int) string {
	switch {
	case current <= 0:
		return "🌱"
	case current < 3:
		return "🔥"
	case current < 7:
		return "🔥🔥"
	case current < 14:
		return "🔥🔥🔥"
	case current < 30:
		return "🔥🔥🔥🔥"
	}
	return "🔥🔥🔥🔥🔥"
}

// StreakTip is the tip of the day for a streak.
func StreakTip(current int) string {
	switch {
	case current <= 0:
		return "Start with a 25-minute session today to begin your study streak."
	case current < 3:
		return "Stay consistent. Even 15 minutes of daily study can make a difference."
	case current < 7:
		return "Great progress! Consider gradually increasing your study time."
	}
	return "You're a dedication example! Share your method with other students."
}

// Milestone describes progress towards the next 7-day goal.
type Milestone struct {
	Next     int
	DaysLeft int
	Percent  float64
}

// MilestoneFor returns the next milestone for a current streak. ok is false
// when current is 0, where no milestone is shown.
//
// Next is ceil(current/7)*7 and DaysLeft is 7-(current mod 7); at exact
// multiples of 7 Next equals current while DaysLeft is a full span.
func MilestoneFor(current int) (Milestone, bool) {
	if current <= 0 {
		return Milestone{}, false
	}
	next := (current + MilestoneSpan - 1) / MilestoneSpan * MilestoneSpan
	rem := current % MilestoneSpan
	return Milestone{
		Next:     next,
		DaysLeft: MilestoneSpan - rem,
		Percent:  float64(rem) / MilestoneSpan * 100,
	}, true
}

// StreakView is everything a renderer needs to show a streak.
type StreakView struct {
	Empty        bool
	Headline     string
	Detail       string
	Current      int
	Longest      int
	LastActivity *time.Time
	Tier         StreakTier
	Emoji        string
	Message      string
	Tip          string
	Milestone    *Milestone
}

const (
	noStreakHeadline = "You don't have an active streak yet"
	noStreakDetail   = "Start your first focus session today and begin your streak!"
)

// NewStreakView builds the view model for a report.
func NewStreakView(r StreakReport) StreakView {
	if r.NoStreak() {
		return StreakView{
			Empty:    true,
			Headline: noStreakHeadline,
			Detail:   noStreakDetail,
			Tier:     TierSeedling,
			Emoji:    StreakEmoji(0),
			Message:  TierSeedling.Message(),
			Tip:      StreakTip(0),
		}
	}
	info := r.Info
	tier := TierFor(info.Current)
	v := StreakView{
		Headline:     fmt.Sprintf("%d days", info.Current),
		Current:      info.Current,
		Longest:      info.Longest,
		LastActivity: info.LastActivity,
		Tier:         tier,
		Emoji:        StreakEmoji(info.Current),
		Message:      tier.Message(),
		Tip:          StreakTip(info.Current),
	}
	if m, ok := MilestoneFor(info.Current); ok {
		v.Milestone = &m
	}
	return v
}
