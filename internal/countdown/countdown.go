// Package countdown computes remaining time for a session from absolute
// timestamps and drives a once-per-second tick while the session runs.
package countdown

import (
	"math"
	"time"
)

// Input is everything needed to place a session on the clock.
type Input struct {
	// Baseline is the start of the current running segment: the session
	// start, or the last resume.
	Baseline time.Time
	// Duration is the declared length in whole seconds.
	Duration int
	// Accumulated is the seconds completed before Baseline.
	Accumulated int
	Paused      bool
	// Skew is subtracted from the wall clock. It lets the caller align the
	// local clock with the server after a refused end.
	Skew time.Duration
}

// Reading is the countdown state at an instant.
type Reading struct {
	Remaining int
	Elapsed   int
	// RawElapsed is Elapsed before clamping to Duration.
	RawElapsed int
	Progress   float64
	Paused     bool
	At         time.Time
}

// Done reports whether the countdown reached zero.
func (r Reading) Done() bool {
	return r.Remaining == 0
}

// Compute evaluates in at now. It never carries state between calls, so a
// late or missed tick can't accumulate drift.
func Compute(in Input, now time.Time) Reading {
	raw := in.Accumulated
	if !in.Paused {
		running := now.Add(-in.Skew).Sub(in.Baseline)
		if running > 0 {
			raw += int(running / time.Second)
		}
	}
	if raw < 0 {
		raw = 0
	}

	elapsed := raw
	if in.Duration > 0 && elapsed > in.Duration {
		elapsed = in.Duration
	}
	remaining := in.Duration - elapsed
	if remaining < 0 {
		remaining = 0
	}

	return Reading{
		Remaining:  remaining,
		Elapsed:    elapsed,
		RawElapsed: raw,
		Progress:   progress(in.Duration, remaining),
		Paused:     in.Paused,
		At:         now,
	}
}

func progress(duration, remaining int) float64 {
	if duration <= 0 {
		return 100
	}
	p := float64(duration-remaining) / float64(duration) * 100
	return math.Max(0, math.Min(100, p))
}
