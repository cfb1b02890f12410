package postgrest

import (
	"time"

	"PracticeLog/model"
)

// Embeds as named by the relational schema. They are renamed on the way out.
const (
	songSelect    = "*,song_sections(*)"
	sessionSelect = "*,songs(id,title,artist),song_sections(id,name)"
)

type songRow struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Artist      *string         `json:"artist"`
	TargetTempo *int            `json:"target_tempo"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Sections    []model.Section `json:"song_sections"`
}

func (r songRow) toSong() model.Song {
	sections := r.Sections
	if sections == nil {
		sections = []model.Section{}
	}
	return model.Song{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Artist:      r.Artist,
		TargetTempo: r.TargetTempo,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Sections:    sections,
	}
}

// songInsert omits server-generated columns.
type songInsert struct {
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	Artist      *string `json:"artist"`
	TargetTempo *int    `json:"target_tempo"`
}

type sectionInsert struct {
	SongID      string  `json:"song_id"`
	Name        string  `json:"name"`
	OrderIndex  int     `json:"order_index"`
	TargetTempo *int    `json:"target_tempo"`
	Notes       *string `json:"notes"`
}

type sessionRow struct {
	ID               string                `json:"id"`
	UserID           string                `json:"user_id"`
	SongID           *string               `json:"song_id"`
	SectionID        *string               `json:"section_id"`
	PracticedAt      time.Time             `json:"practiced_at"`
	DurationMinutes  int                   `json:"duration_minutes"`
	TempoBPM         *int                  `json:"tempo_bpm"`
	AccuracyRating   *int                  `json:"accuracy_rating"`
	DifficultyRating *int                  `json:"difficulty_rating"`
	Notes            *string               `json:"notes"`
	CreatedAt        time.Time             `json:"created_at"`
	Song             *model.SongSummary    `json:"songs"`
	Section          *model.SectionSummary `json:"song_sections"`
}

func (r sessionRow) toSession() model.Session {
	return model.Session{
		ID:               r.ID,
		UserID:           r.UserID,
		SongID:           r.SongID,
		SectionID:        r.SectionID,
		PracticedAt:      r.PracticedAt.UTC(),
		DurationMinutes:  r.DurationMinutes,
		TempoBPM:         r.TempoBPM,
		AccuracyRating:   r.AccuracyRating,
		DifficultyRating: r.DifficultyRating,
		Notes:            r.Notes,
		CreatedAt:        r.CreatedAt,
		Song:             r.Song,
		Section:          r.Section,
	}
}

type sessionInsert struct {
	UserID           string    `json:"user_id"`
	SongID           *string   `json:"song_id"`
	SectionID        *string   `json:"section_id"`
	PracticedAt      time.Time `json:"practiced_at"`
	DurationMinutes  int       `json:"duration_minutes"`
	TempoBPM         *int      `json:"tempo_bpm"`
	AccuracyRating   *int      `json:"accuracy_rating"`
	DifficultyRating *int      `json:"difficulty_rating"`
	Notes            *string   `json:"notes"`
}

type goalInsert struct {
	UserID      string         `json:"user_id"`
	Type        model.GoalType `json:"type"`
	TargetValue int            `json:"target_value"`
	Active      bool           `json:"active"`
}
