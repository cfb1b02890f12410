package model

// DashboardStats is the response of GET /stats.
type DashboardStats struct {
	Heatmap        map[string]int `json:"heatmap"`
	Stats          PracticeTotals `json:"stats"`
	RecentSessions []Session      `json:"recent_sessions"`
}

// PracticeTotals are the headline numbers of the dashboard.
type PracticeTotals struct {
	TotalMinutes       int `json:"total_minutes"`
	CurrentStreak      int `json:"current_streak"`
	LongestStreak      int `json:"longest_streak"`
	WeeklySessionCount int `json:"weekly_session_count"`
}

// SongStats is the response of GET /songs/{id}/stats.
type SongStats struct {
	Song             *Song              `json:"song"`
	TempoProgress    []TempoPoint       `json:"tempo_progress"`
	AccuracyTrend    []AccuracyPoint    `json:"accuracy_trend"`
	TotalMinutes     int                `json:"total_minutes"`
	SessionCount     int                `json:"session_count"`
	SectionBreakdown []SectionBreakdown `json:"section_breakdown"`
}

// TempoPoint is one session's tempo, labelled with its section.
type TempoPoint struct {
	Date    string `json:"date"`
	Tempo   int    `json:"tempo"`
	Section string `json:"section"`
}

// AccuracyPoint is one rated session on the accuracy chart.
type AccuracyPoint struct {
	Date     string `json:"date"`
	Accuracy int    `json:"accuracy"`
}

// SectionBreakdown totals a song's sessions per section; unassigned sessions count as "General".
type SectionBreakdown struct {
	Name         string `json:"name"`
	Minutes      int    `json:"minutes"`
	SessionCount int    `json:"session_count"`
}

// Analytics is the response of GET /analytics.
type Analytics struct {
	PracticeByDay      []DayMinutes   `json:"practice_by_day"`
	PracticeByMonth    []MonthMinutes `json:"practice_by_month"`
	TopSongs           []SongMinutes  `json:"top_songs"`
	AvgDurationByMonth []MonthAverage `json:"avg_duration_by_month"`
}

// DayMinutes is the practice total of one weekday.
type DayMinutes struct {
	Day     string `json:"day"`
	Minutes int    `json:"minutes"`
}

// MonthMinutes is the practice total of one calendar month.
type MonthMinutes struct {
	Month   string `json:"month"`
	Minutes int    `json:"minutes"`
}

// MonthAverage is the mean session length of one calendar month.
type MonthAverage struct {
	Month      string `json:"month"`
	AvgMinutes int    `json:"avg_minutes"`
}

// SongMinutes ranks a song by total practice time.
type SongMinutes struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Minutes int    `json:"minutes"`
}
