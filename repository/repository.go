// Package repository defines the persistence contract of the practice tracker.
//
// Implementations translate these calls into operations on the external relational store;
// they never cache and never coordinate concurrent writers. Every Song and Session query
// is scoped by the owner's user id, and "not owned" is reported exactly like "absent":
// errs.ErrNotFound.
package repository

import (
	"context"

	"PracticeLog/model"
)

// Table names shared by all backends.
const (
	SongsTable    = "songs"
	SectionsTable = "song_sections"
	SessionsTable = "practice_sessions"
	GoalsTable    = "goals"
)

// SongRepository stores songs and their sections.
type SongRepository interface {
	// ListSongs returns userID's songs, newest first, each with its sections
	// ordered by order_index then created_at.
	ListSongs(ctx context.Context, userID string) ([]model.Song, error)

	// GetSong returns one song with its sections.
	GetSong(ctx context.Context, userID, songID string) (*model.Song, error)

	// CreateSong inserts the song row and returns it as stored. Sections are ignored.
	CreateSong(ctx context.Context, song model.Song) (*model.Song, error)

	// UpdateSong writes fields (column -> value) to the song row.
	UpdateSong(ctx context.Context, userID, songID string, fields map[string]any) error

	// DeleteSong removes the song; the store cascades to its sections.
	DeleteSong(ctx context.Context, userID, songID string) error

	// CreateSections inserts sections and returns them as stored, in input order.
	CreateSections(ctx context.Context, sections []model.Section) ([]model.Section, error)

	// GetSection returns the section sectionID of songID.
	GetSection(ctx context.Context, songID, sectionID string) (*model.Section, error)

	// FindSection returns sectionID if its parent song belongs to userID.
	FindSection(ctx context.Context, userID, sectionID string) (*model.Section, error)

	// UpdateSection writes fields to the section and returns it as stored.
	UpdateSection(ctx context.Context, songID, sectionID string, fields map[string]any) (*model.Section, error)

	// DeleteSection removes the section sectionID of songID.
	DeleteSection(ctx context.Context, songID, sectionID string) error
}

// SessionRepository stores practice sessions.
type SessionRepository interface {
	// ListSessions returns userID's sessions matching filter, latest practiced_at first,
	// each with its song and section summaries.
	ListSessions(ctx context.Context, userID string, filter model.SessionFilter) ([]model.Session, error)

	// GetSession returns one session with its song and section summaries.
	GetSession(ctx context.Context, userID, sessionID string) (*model.Session, error)

	// CreateSession inserts the session row and returns it as stored, without summaries.
	CreateSession(ctx context.Context, session model.Session) (*model.Session, error)

	// UpdateSession writes fields to the session row.
	UpdateSession(ctx context.Context, userID, sessionID string, fields map[string]any) error

	// DeleteSession removes the session.
	DeleteSession(ctx context.Context, userID, sessionID string) error
}

// GoalRepository stores practice goals. Only active goals are visible to
// ListGoals, GetGoal and UpdateGoal.
type GoalRepository interface {
	// ListGoals returns userID's active goals, newest first.
	ListGoals(ctx context.Context, userID string) ([]model.Goal, error)

	// GetGoal returns one active goal.
	GetGoal(ctx context.Context, userID, goalID string) (*model.Goal, error)

	// CreateGoal inserts the goal row and returns it as stored.
	CreateGoal(ctx context.Context, goal model.Goal) (*model.Goal, error)

	// UpdateGoal writes fields to an active goal row.
	UpdateGoal(ctx context.Context, userID, goalID string, fields map[string]any) error

	// DeactivateGoals marks every active goal of userID with goalType inactive.
	// Zero matching rows is not an error.
	DeactivateGoals(ctx context.Context, userID string, goalType model.GoalType) error
}

// Store is a handle on the external store.
type Store interface {
	Songs() SongRepository
	Sessions() SessionRepository
	Goals() GoalRepository
}

// Factory opens a Store for the duration of one request.
type Factory interface {
	Open(ctx context.Context) (Store, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context) (Store, error)

// Open implements Factory.
func (f FactoryFunc) Open(ctx context.Context) (Store, error) { return f(ctx) }

// Columns writable through partial updates, per table.
var (
	SongColumns    = []string{"title", "artist", "target_tempo", "updated_at"}
	SectionColumns = []string{"name", "order_index", "target_tempo", "notes"}
	SessionColumns = []string{
		"song_id", "section_id", "practiced_at", "duration_minutes",
		"tempo_bpm", "accuracy_rating", "difficulty_rating", "notes",
	}
	GoalColumns = []string{"target_value", "active"}
)
