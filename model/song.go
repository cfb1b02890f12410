package model

import (
	"fmt"
	"time"

	"PracticeLog/core/errs"
)

// Song is a musical piece tracked by a user, optionally divided into sections.
type Song struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Artist      *string   `json:"artist"`
	TargetTempo *int      `json:"target_tempo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Sections    []Section `json:"sections"`
}

// Section is a named part of a song (verse, bridge, solo) with its own target tempo.
type Section struct {
	ID          string    `json:"id"`
	SongID      string    `json:"song_id"`
	Name        string    `json:"name"`
	OrderIndex  int       `json:"order_index"`
	TargetTempo *int      `json:"target_tempo"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// SectionCreate is the body of POST /songs/{id}/sections and of each entry in SongCreate.Sections.
type SectionCreate struct {
	Name        *string `json:"name"`
	OrderIndex  *int    `json:"order_index"`
	TargetTempo *int    `json:"target_tempo"`
	Notes       *string `json:"notes"`
}

// Validate checks the declared field constraints.
func (c SectionCreate) Validate() error {
	v := &errs.ValidationError{}
	c.validate(v, "")
	return v.OrNil()
}

func (c SectionCreate) validate(v *errs.ValidationError, prefix string) {
	if c.Name == nil {
		v.Add(prefix+"name", "field required")
	} else {
		checkLength(v, prefix+"name", *c.Name, 1, MaxSectionNameLength)
	}
	checkOptionalRange(v, prefix+"target_tempo", c.TargetTempo, MinTempo, MaxTempo)
}

// ToSection maps the request onto a section row of songID.
func (c SectionCreate) ToSection(songID string) Section {
	s := Section{
		SongID:      songID,
		TargetTempo: c.TargetTempo,
		Notes:       c.Notes,
	}
	if c.Name != nil {
		s.Name = *c.Name
	}
	if c.OrderIndex != nil {
		s.OrderIndex = *c.OrderIndex
	}
	return s
}

// SongCreate is the body of POST /songs.
type SongCreate struct {
	Title       *string         `json:"title"`
	Artist      *string         `json:"artist"`
	TargetTempo *int            `json:"target_tempo"`
	Sections    []SectionCreate `json:"sections"`
}

// Validate checks the declared field constraints, including every nested section.
func (c SongCreate) Validate() error {
	v := &errs.ValidationError{}
	if c.Title == nil {
		v.Add("title", "field required")
	} else {
		checkLength(v, "title", *c.Title, 1, MaxTitleLength)
	}
	if c.Artist != nil {
		checkLength(v, "artist", *c.Artist, 0, MaxArtistLength)
	}
	checkOptionalRange(v, "target_tempo", c.TargetTempo, MinTempo, MaxTempo)
	for i, s := range c.Sections {
		s.validate(v, fmt.Sprintf("sections[%d].", i))
	}
	return v.OrNil()
}

// ToSong maps the request onto a song row owned by userID. Sections are not included.
func (c SongCreate) ToSong(userID string) Song {
	s := Song{
		UserID:      userID,
		Artist:      c.Artist,
		TargetTempo: c.TargetTempo,
	}
	if c.Title != nil {
		s.Title = *c.Title
	}
	return s
}

// SongUpdate is the body of PUT /songs/{id}. Only keys present in the body are written.
type SongUpdate struct {
	Title       Optional[string] `json:"title"`
	Artist      Optional[string] `json:"artist"`
	TargetTempo Optional[int]    `json:"target_tempo"`
}

// Validate checks the declared field constraints of the present fields.
func (u SongUpdate) Validate() error {
	v := &errs.ValidationError{}
	if u.Title.Set {
		if u.Title.Null {
			v.Add("title", "may not be null")
		} else {
			checkLength(v, "title", u.Title.Value, 1, MaxTitleLength)
		}
	}
	if u.Artist.Present() {
		checkLength(v, "artist", u.Artist.Value, 0, MaxArtistLength)
	}
	if u.TargetTempo.Present() {
		checkRange(v, "target_tempo", u.TargetTempo.Value, MinTempo, MaxTempo)
	}
	return v.OrNil()
}

// Fields returns the column/value map of the present fields; explicit nulls map to nil.
func (u SongUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	put(fields, "title", u.Title)
	put(fields, "artist", u.Artist)
	put(fields, "target_tempo", u.TargetTempo)
	return fields
}

// SectionUpdate is the body of PUT /songs/{id}/sections/{section_id}.
type SectionUpdate struct {
	Name        Optional[string] `json:"name"`
	OrderIndex  Optional[int]    `json:"order_index"`
	TargetTempo Optional[int]    `json:"target_tempo"`
	Notes       Optional[string] `json:"notes"`
}

// Validate checks the declared field constraints of the present fields.
func (u SectionUpdate) Validate() error {
	v := &errs.ValidationError{}
	if u.Name.Set {
		if u.Name.Null {
			v.Add("name", "may not be null")
		} else {
			checkLength(v, "name", u.Name.Value, 1, MaxSectionNameLength)
		}
	}
	if u.OrderIndex.Set && u.OrderIndex.Null {
		v.Add("order_index", "may not be null")
	}
	if u.TargetTempo.Present() {
		checkRange(v, "target_tempo", u.TargetTempo.Value, MinTempo, MaxTempo)
	}
	return v.OrNil()
}

// Fields returns the column/value map of the present fields; explicit nulls map to nil.
func (u SectionUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	put(fields, "name", u.Name)
	put(fields, "order_index", u.OrderIndex)
	put(fields, "target_tempo", u.TargetTempo)
	put(fields, "notes", u.Notes)
	return fields
}

func put[T any](fields map[string]any, column string, o Optional[T]) {
	switch {
	case !o.Set:
	case o.Null:
		fields[column] = nil
	default:
		fields[column] = o.Value
	}
}
