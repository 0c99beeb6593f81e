package localserver

import (
	"context"
	"time"

	"github.com/devnotmax/studify/internal/domain"
)

type achievementRule struct {
	achievement domain.Achievement
	earned      func(counts domain.SessionCounts, streak *domain.StreakInfo, goal int) bool
}

var achievementRules = []achievementRule{
	{
		domain.Achievement{Name: "First Step", Description: "Complete your first focus session"},
		func(c domain.SessionCounts, _ *domain.StreakInfo, _ int) bool { return c.Total >= 1 },
	},
	{
		domain.Achievement{Name: "Daily Goal", Description: "Reach your daily session goal"},
		func(c domain.SessionCounts, _ *domain.StreakInfo, goal int) bool { return goal > 0 && c.Today >= goal },
	},
	{
		domain.Achievement{Name: "Dedicated", Description: "Complete 10 focus sessions"},
		func(c domain.SessionCounts, _ *domain.StreakInfo, _ int) bool { return c.Total >= 10 },
	},
	{
		domain.Achievement{Name: "Centurion", Description: "Complete 100 focus sessions"},
		func(c domain.SessionCounts, _ *domain.StreakInfo, _ int) bool { return c.Total >= 100 },
	},
	{
		domain.Achievement{Name: "Week Warrior", Description: "Keep a 7 day streak"},
		func(_ domain.SessionCounts, s *domain.StreakInfo, _ int) bool { return s != nil && s.Current >= 7 },
	},
	{
		domain.Achievement{Name: "Study Master", Description: "Keep a 30 day streak"},
		func(_ domain.SessionCounts, s *domain.StreakInfo, _ int) bool { return s != nil && s.Current >= 30 },
	},
}

// unlock records achievements newly earned by ending session and returns them.
// Break sessions never unlock anything.
func (s *Server) unlock(ctx context.Context, session *domain.Session, report domain.StreakReport) ([]domain.Achievement, error) {
	unlocked := []domain.Achievement{}
	if session.Kind != domain.KindFocus {
		return unlocked, nil
	}

	ends, err := s.sessions.CompletedSince(ctx, s.owner, domain.KindFocus, time.Time{})
	if err != nil {
		return nil, err
	}
	counts := countSessions(ends, s.now().In(s.loc))

	have, err := s.achievements.Unlocked(ctx, s.owner)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, rule := range achievementRules {
		if have[rule.achievement.Name] || !rule.earned(counts, report.Info, s.dailyGoal) {
			continue
		}
		if err := s.achievements.Unlock(ctx, s.owner, rule.achievement, now); err != nil {
			return nil, err
		}
		unlocked = append(unlocked, rule.achievement)
	}
	return unlocked, nil
}
