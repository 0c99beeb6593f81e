package localserver

import (
	"context"
	"sort"
	"time"

	"github.com/devnotmax/studify/internal/domain"
)

const noStreakMessage = "No streak found"

type day struct {
	y int
	m time.Month
	d int
}

func dayOf(t time.Time) day {
	y, m, d := t.Date()
	return day{y, m, d}
}

func (d day) time(loc *time.Location) time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, loc)
}

func (d day) prev(loc *time.Location) day {
	return dayOf(d.time(loc).AddDate(0, 0, -1))
}

// streak derives the streak from completed focus sessions. A streak is alive
// while its most recent day is today or yesterday.
func (s *Server) streak(ctx context.Context) (domain.StreakReport, error) {
	ends, err := s.sessions.CompletedSince(ctx, s.owner, domain.KindFocus, time.Time{})
	if err != nil {
		return domain.StreakReport{}, err
	}
	if len(ends) == 0 {
		return domain.StreakReport{Message: noStreakMessage}, nil
	}
	info := computeStreak(ends, s.now().In(s.loc), s.loc)
	return domain.StreakReport{Info: &info}, nil
}

func computeStreak(ends []time.Time, now time.Time, loc *time.Location) domain.StreakInfo {
	seen := make(map[day]bool)
	var days []time.Time
	for _, e := range ends {
		d := dayOf(e.In(loc))
		if !seen[d] {
			seen[d] = true
			days = append(days, d.time(loc))
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 0, 0
	var prev day
	for i, t := range days {
		d := dayOf(t)
		if i > 0 && d.prev(loc) == prev {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = d
	}

	today := dayOf(now)
	current := 0
	cursor := today
	if !seen[cursor] {
		cursor = today.prev(loc)
	}
	for seen[cursor] {
		current++
		cursor = cursor.prev(loc)
	}

	last := domain.DateOf(days[len(days)-1])
	return domain.StreakInfo{Current: current, Longest: longest, LastActivity: &last}
}

// countSessions buckets end times into today, this week (from Monday) and total.
func countSessions(ends []time.Time, now time.Time) domain.SessionCounts {
	loc := now.Location()
	startOfDay := dayOf(now).time(loc)
	offset := (int(now.Weekday()) + 6) % 7
	startOfWeek := startOfDay.AddDate(0, 0, -offset)

	var c domain.SessionCounts
	for _, e := range ends {
		e = e.In(loc)
		c.Total++
		if !e.Before(startOfWeek) {
			c.Week++
		}
		if !e.Before(startOfDay) {
			c.Today++
		}
	}
	return c
}
