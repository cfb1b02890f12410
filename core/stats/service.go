// Package stats derives dashboard and analytics views from a user's practice sessions.
// All calendar arithmetic is done in UTC.
package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"PracticeLog/core/errs"
	"PracticeLog/model"
	"PracticeLog/repository"
)

const (
	dayLayout   = "2006-01-02"
	monthKey    = "2006-01"
	monthLabel  = "Jan 06"
	recentLimit = 10
	topSongs    = 10
	monthsShown = 12
	// generalSection labels sessions not tied to a section.
	generalSection = "General"
)

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Service 统计服务（只读）
type Service struct {
	stores repository.Factory
	now    func() time.Time
}

// NewService creates a Service.
func NewService(stores repository.Factory) *Service {
	return &Service{stores: stores, now: time.Now}
}

// WithClock replaces the clock that anchors "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) open(ctx context.Context) (repository.Store, error) {
	store, err := s.stores.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// allSessions returns every session matching filter, latest first, ignoring paging.
func allSessions(ctx context.Context, store repository.Store, userID string, filter model.SessionFilter) ([]model.Session, error) {
	filter.Limit, filter.Offset = 0, 0
	list, err := store.Sessions().ListSessions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return list, nil
}

// Dashboard builds the heatmap of the past year, streaks, totals and the latest sessions.
func (s *Service) Dashboard(ctx context.Context, userID string) (*model.DashboardStats, error) {
	store, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	list, err := allSessions(ctx, store, userID, model.SessionFilter{})
	if err != nil {
		return nil, err
	}

	today := truncateDay(s.now())
	yearAgo := today.AddDate(-1, 0, 0)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))

	out := &model.DashboardStats{
		Heatmap:        make(map[string]int),
		RecentSessions: make([]model.Session, 0, recentLimit),
	}
	for i, sess := range list {
		at := sess.PracticedAt.UTC()
		out.Stats.TotalMinutes += sess.DurationMinutes
		if !at.Before(yearAgo) {
			out.Heatmap[at.Format(dayLayout)] += sess.DurationMinutes
		}
		if !at.Before(weekStart) {
			out.Stats.WeeklySessionCount++
		}
		if i < recentLimit {
			out.RecentSessions = append(out.RecentSessions, sess)
		}
	}
	out.Stats.CurrentStreak, out.Stats.LongestStreak = streaks(out.Heatmap, today)
	return out, nil
}

// streaks returns the run of consecutive days ending today or yesterday, and the longest run.
func streaks(heatmap map[string]int, today time.Time) (current, longest int) {
	if len(heatmap) == 0 {
		return 0, 0
	}
	days := make([]time.Time, 0, len(heatmap))
	for key := range heatmap {
		d, err := time.Parse(dayLayout, key)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}

	last := days[len(days)-1]
	if !last.Equal(today) && !last.Equal(today.AddDate(0, 0, -1)) {
		return 0, longest
	}
	current = 1
	for i := len(days) - 2; i >= 0; i-- {
		if days[i+1].Sub(days[i]) != 24*time.Hour {
			break
		}
		current++
	}
	return current, longest
}

// SongStats summarises the practice history of one of the caller's songs.
func (s *Service) SongStats(ctx context.Context, userID, songID string) (*model.SongStats, error) {
	store, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	song, err := store.Songs().GetSong(ctx, userID, songID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("get song: %w", err)
	}
	list, err := allSessions(ctx, store, userID, model.SessionFilter{SongID: songID})
	if err != nil {
		return nil, err
	}

	out := &model.SongStats{
		Song:             song,
		TempoProgress:    []model.TempoPoint{},
		AccuracyTrend:    []model.AccuracyPoint{},
		SectionBreakdown: []model.SectionBreakdown{},
		SessionCount:     len(list),
	}
	bySection := make(map[string]int)
	// oldest first
	for i := len(list) - 1; i >= 0; i-- {
		sess := list[i]
		date := sess.PracticedAt.UTC().Format(dayLayout)
		key, name := "", generalSection
		if sess.Section != nil {
			key, name = sess.Section.ID, sess.Section.Name
		}

		out.TotalMinutes += sess.DurationMinutes
		if sess.TempoBPM != nil && *sess.TempoBPM > 0 {
			out.TempoProgress = append(out.TempoProgress, model.TempoPoint{Date: date, Tempo: *sess.TempoBPM, Section: name})
		}
		if sess.AccuracyRating != nil && *sess.AccuracyRating > 0 {
			out.AccuracyTrend = append(out.AccuracyTrend, model.AccuracyPoint{Date: date, Accuracy: *sess.AccuracyRating})
		}

		idx, ok := bySection[key]
		if !ok {
			idx = len(out.SectionBreakdown)
			bySection[key] = idx
			out.SectionBreakdown = append(out.SectionBreakdown, model.SectionBreakdown{Name: name})
		}
		out.SectionBreakdown[idx].Minutes += sess.DurationMinutes
		out.SectionBreakdown[idx].SessionCount++
	}
	return out, nil
}

// Analytics aggregates all of the caller's sessions by weekday, by month and by song.
func (s *Service) Analytics(ctx context.Context, userID string) (*model.Analytics, error) {
	store, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	list, err := allSessions(ctx, store, userID, model.SessionFilter{})
	if err != nil {
		return nil, err
	}

	byDay := make([]int, len(weekdays))
	byMonth := make(map[string]int)
	countByMonth := make(map[string]int)
	var songs []model.SongMinutes
	songIdx := make(map[string]int)

	for i := len(list) - 1; i >= 0; i-- {
		sess := list[i]
		at := sess.PracticedAt.UTC()
		byDay[at.Weekday()] += sess.DurationMinutes
		key := at.Format(monthKey)
		byMonth[key] += sess.DurationMinutes
		countByMonth[key]++

		if sess.Song == nil {
			continue
		}
		idx, ok := songIdx[sess.Song.ID]
		if !ok {
			idx = len(songs)
			songIdx[sess.Song.ID] = idx
			songs = append(songs, model.SongMinutes{ID: sess.Song.ID, Title: sess.Song.Title})
		}
		songs[idx].Minutes += sess.DurationMinutes
	}

	out := &model.Analytics{
		PracticeByDay:      make([]model.DayMinutes, 0, len(weekdays)),
		PracticeByMonth:    make([]model.MonthMinutes, 0, monthsShown),
		AvgDurationByMonth: make([]model.MonthAverage, 0, monthsShown),
	}
	for i, day := range weekdays {
		out.PracticeByDay = append(out.PracticeByDay, model.DayMinutes{Day: day, Minutes: byDay[i]})
	}

	now := s.now().UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := monthsShown - 1; i >= 0; i-- {
		m := firstOfMonth.AddDate(0, -i, 0)
		key, label := m.Format(monthKey), m.Format(monthLabel)
		out.PracticeByMonth = append(out.PracticeByMonth, model.MonthMinutes{Month: label, Minutes: byMonth[key]})
		avg := 0
		if n := countByMonth[key]; n > 0 {
			avg = int(math.Round(float64(byMonth[key]) / float64(n)))
		}
		out.AvgDurationByMonth = append(out.AvgDurationByMonth, model.MonthAverage{Month: label, AvgMinutes: avg})
	}

	sort.SliceStable(songs, func(i, j int) bool { return songs[i].Minutes > songs[j].Minutes })
	if len(songs) > topSongs {
		songs = songs[:topSongs]
	}
	out.TopSongs = append([]model.SongMinutes{}, songs...)
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
