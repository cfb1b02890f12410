package model

import (
	"time"

	"PracticeLog/core/errs"
)

// Session is a single logged practice occurrence, optionally tied to a song and/or section.
// Song and Section are summaries of the referenced rows, nil when unset or deleted.
type Session struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	SongID           *string         `json:"song_id"`
	SectionID        *string         `json:"section_id"`
	PracticedAt      time.Time       `json:"practiced_at"`
	DurationMinutes  int             `json:"duration_minutes"`
	TempoBPM         *int            `json:"tempo_bpm"`
	AccuracyRating   *int            `json:"accuracy_rating"`
	DifficultyRating *int            `json:"difficulty_rating"`
	Notes            *string         `json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
	Song             *SongSummary    `json:"song"`
	Section          *SectionSummary `json:"section"`
}

// SongSummary is the song projection embedded in session responses.
type SongSummary struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Artist *string `json:"artist"`
}

// SectionSummary is the section projection embedded in session responses.
type SectionSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Pagination bounds of the session listing.
const (
	DefaultSessionLimit = 50
	MaxSessionLimit     = 100
)

// SessionFilter narrows a session listing. Zero values disable a filter; Limit 0 means unbounded.
type SessionFilter struct {
	SongID    string
	SectionID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// SessionCreate is the body of POST /sessions.
type SessionCreate struct {
	SongID           *string    `json:"song_id"`
	SectionID        *string    `json:"section_id"`
	PracticedAt      *Timestamp `json:"practiced_at"`
	DurationMinutes  *int       `json:"duration_minutes"`
	TempoBPM         *int       `json:"tempo_bpm"`
	AccuracyRating   *int       `json:"accuracy_rating"`
	DifficultyRating *int       `json:"difficulty_rating"`
	Notes            *string    `json:"notes"`
}

// Validate checks the declared field constraints.
func (c SessionCreate) Validate() error {
	v := &errs.ValidationError{}
	if c.SongID != nil {
		checkUUID(v, "song_id", *c.SongID)
	}
	if c.SectionID != nil {
		checkUUID(v, "section_id", *c.SectionID)
	}
	if c.DurationMinutes == nil {
		v.Add("duration_minutes", "field required")
	} else {
		checkRange(v, "duration_minutes", *c.DurationMinutes, MinDuration, MaxDuration)
	}
	checkOptionalRange(v, "tempo_bpm", c.TempoBPM, MinTempo, MaxTempo)
	checkOptionalRange(v, "accuracy_rating", c.AccuracyRating, MinRating, MaxRating)
	checkOptionalRange(v, "difficulty_rating", c.DifficultyRating, MinRating, MaxRating)
	return v.OrNil()
}

// ToSession maps the request onto a session row owned by userID.
// practiced_at falls back to now when the body omits it.
func (c SessionCreate) ToSession(userID string, now time.Time) Session {
	s := Session{
		UserID:           userID,
		PracticedAt:      now.UTC(),
		TempoBPM:         c.TempoBPM,
		AccuracyRating:   c.AccuracyRating,
		DifficultyRating: c.DifficultyRating,
		Notes:            c.Notes,
	}
	if c.SongID != nil {
		id := normalizeOrKeep(*c.SongID)
		s.SongID = &id
	}
	if c.SectionID != nil {
		id := normalizeOrKeep(*c.SectionID)
		s.SectionID = &id
	}
	if c.PracticedAt != nil {
		s.PracticedAt = c.PracticedAt.UTC()
	}
	if c.DurationMinutes != nil {
		s.DurationMinutes = *c.DurationMinutes
	}
	return s
}

// SessionUpdate is the body of PUT /sessions/{id}. Only keys present in the body are written.
type SessionUpdate struct {
	SongID           Optional[string]    `json:"song_id"`
	SectionID        Optional[string]    `json:"section_id"`
	PracticedAt      Optional[Timestamp] `json:"practiced_at"`
	DurationMinutes  Optional[int]       `json:"duration_minutes"`
	TempoBPM         Optional[int]       `json:"tempo_bpm"`
	AccuracyRating   Optional[int]       `json:"accuracy_rating"`
	DifficultyRating Optional[int]       `json:"difficulty_rating"`
	Notes            Optional[string]    `json:"notes"`
}

// Validate checks the declared field constraints of the present fields.
func (u SessionUpdate) Validate() error {
	v := &errs.ValidationError{}
	if u.SongID.Present() {
		checkUUID(v, "song_id", u.SongID.Value)
	}
	if u.SectionID.Present() {
		checkUUID(v, "section_id", u.SectionID.Value)
	}
	if u.PracticedAt.Set && u.PracticedAt.Null {
		v.Add("practiced_at", "may not be null")
	}
	if u.DurationMinutes.Set {
		if u.DurationMinutes.Null {
			v.Add("duration_minutes", "may not be null")
		} else {
			checkRange(v, "duration_minutes", u.DurationMinutes.Value, MinDuration, MaxDuration)
		}
	}
	if u.TempoBPM.Present() {
		checkRange(v, "tempo_bpm", u.TempoBPM.Value, MinTempo, MaxTempo)
	}
	if u.AccuracyRating.Present() {
		checkRange(v, "accuracy_rating", u.AccuracyRating.Value, MinRating, MaxRating)
	}
	if u.DifficultyRating.Present() {
		checkRange(v, "difficulty_rating", u.DifficultyRating.Value, MinRating, MaxRating)
	}
	return v.OrNil()
}

// Fields returns the column/value map of the present fields; explicit nulls map to nil.
func (u SessionUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	if u.SongID.Present() {
		fields["song_id"] = normalizeOrKeep(u.SongID.Value)
	} else {
		put(fields, "song_id", u.SongID)
	}
	if u.SectionID.Present() {
		fields["section_id"] = normalizeOrKeep(u.SectionID.Value)
	} else {
		put(fields, "section_id", u.SectionID)
	}
	if u.PracticedAt.Present() {
		fields["practiced_at"] = u.PracticedAt.Value.UTC()
	}
	put(fields, "duration_minutes", u.DurationMinutes)
	put(fields, "tempo_bpm", u.TempoBPM)
	put(fields, "accuracy_rating", u.AccuracyRating)
	put(fields, "difficulty_rating", u.DifficultyRating)
	put(fields, "notes", u.Notes)
	return fields
}
