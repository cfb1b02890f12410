package stats

import (
	"context"
	"fmt"
	"math"

	"PracticeLog/model"
)

// GoalProgress reports today's and this week's totals against each active goal.
// Weeks start on Sunday. weekly_sessions counts distinct practice days.
func (s *Service) GoalProgress(ctx context.Context, userID string) (*model.GoalProgressReport, error) {
	store, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := store.Goals().ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := &model.GoalProgressReport{Progress: make([]model.GoalProgress, 0, len(goals))}
	if len(goals) == 0 {
		return out, nil
	}

	today := truncateDay(s.now())
	tomorrow := today.AddDate(0, 0, 1)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 7).Add(-1)

	list, err := allSessions(ctx, store, userID, model.SessionFilter{From: &weekStart, To: &weekEnd})
	if err != nil {
		return nil, err
	}

	var todayMinutes, weekMinutes int
	days := make(map[string]struct{})
	for _, sess := range list {
		at := sess.PracticedAt.UTC()
		weekMinutes += sess.DurationMinutes
		days[at.Format(dayLayout)] = struct{}{}
		if !at.Before(today) && at.Before(tomorrow) {
			todayMinutes += sess.DurationMinutes
		}
	}

	for _, g := range goals {
		var current int
		switch g.Type {
		case model.GoalDailyMinutes:
			current = todayMinutes
		case model.GoalWeeklyMinutes:
			current = weekMinutes
		case model.GoalWeeklySessions:
			current = len(days)
		}
		out.Progress = append(out.Progress, model.GoalProgress{
			Goal:       g,
			Current:    current,
			Percentage: percentage(current, g.TargetValue),
		})
	}
	return out, nil
}

// percentage rounds current/target to a whole percent, capped at 100.
func percentage(current, target int) int {
	if target <= 0 {
		return 0
	}
	return min(100, int(math.Round(float64(current)*100/float64(target))))
}
