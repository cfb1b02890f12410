package postgrest

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"PracticeLog/core/errs"
	"PracticeLog/model"
	"PracticeLog/repository"
)

// Store implements repository.Store.
type Store struct {
	client *Client
}

// NewFactory returns a factory that hands out stores sharing client.
func NewFactory(client *Client) repository.Factory {
	return repository.FactoryFunc(func(context.Context) (repository.Store, error) {
		return &Store{client: client}, nil
	})
}

func (s *Store) Songs() repository.SongRepository       { return songRepo{s.client} }
func (s *Store) Sessions() repository.SessionRepository { return sessionRepo{s.client} }
func (s *Store) Goals() repository.GoalRepository       { return goalRepo{s.client} }

// affected fails with errs.ErrNotFound when a mutation returned no rows.
func affected(body []byte) error {
	if len(gjson.ParseBytes(body).Array()) == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func checkFields(fields map[string]any, allowed []string) error {
	_, err := repository.SortedColumns(fields, allowed)
	return err
}

type songRepo struct{ c *Client }

func (r songRepo) ListSongs(ctx context.Context, userID string) ([]model.Song, error) {
	var rows []songRow
	err := r.c.From(repository.SongsTable).
		Select(songSelect).
		Eq("user_id", userID).
		Order("created_at", true).
		OrderOn(repository.SectionsTable, "order_index.asc", "created_at.asc").
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, err
	}
	songs := make([]model.Song, 0, len(rows))
	for _, row := range rows {
		songs = append(songs, row.toSong())
	}
	return songs, nil
}

func (r songRepo) GetSong(ctx context.Context, userID, songID string) (*model.Song, error) {
	var row songRow
	err := r.c.From(repository.SongsTable).
		Select(songSelect).
		Eq("id", songID).
		Eq("user_id", userID).
		OrderOn(repository.SectionsTable, "order_index.asc", "created_at.asc").
		Single().
		ExecuteInto(ctx, &row)
	if err != nil {
		return nil, err
	}
	song := row.toSong()
	return &song, nil
}

func (r songRepo) CreateSong(ctx context.Context, song model.Song) (*model.Song, error) {
	var rows []songRow
	err := r.c.From(repository.SongsTable).
		Insert(songInsert{UserID: song.UserID, Title: song.Title, Artist: song.Artist, TargetTempo: song.TargetTempo}).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("insert song: got %d rows", len(rows))
	}
	created := rows[0].toSong()
	return &created, nil
}

func (r songRepo) UpdateSong(ctx context.Context, userID, songID string, fields map[string]any) error {
	if err := checkFields(fields, repository.SongColumns); err != nil {
		return err
	}
	body, err := r.c.From(repository.SongsTable).
		Update(fields).
		Eq("id", songID).
		Eq("user_id", userID).
		Execute(ctx)
	if err != nil {
		return err
	}
	return affected(body)
}

func (r songRepo) DeleteSong(ctx context.Context, userID, songID string) error {
	body, err := r.c.From(repository.SongsTable).
		Delete().
		Eq("id", songID).
		Eq("user_id", userID).
		Execute(ctx)
	if err != nil {
		return err
	}
	return affected(body)
}

func (r songRepo) CreateSections(ctx context.Context, sections []model.Section) ([]model.Section, error) {
	in := make([]sectionInsert, 0, len(sections))
	for _, s := range sections {
		in = append(in, sectionInsert{
			SongID:      s.SongID,
			Name:        s.Name,
			OrderIndex:  s.OrderIndex,
			TargetTempo: s.TargetTempo,
			Notes:       s.Notes,
		})
	}
	var out []model.Section
	if err := r.c.From(repository.SectionsTable).Insert(in).ExecuteInto(ctx, &out); err != nil {
		return nil, err
	}
	if len(out) != len(sections) {
		return nil, fmt.Errorf("insert sections: got %d rows, want %d", len(out), len(sections))
	}
	return out, nil
}

func (r songRepo) GetSection(ctx context.Context, songID, sectionID string) (*model.Section, error) {
	var sec model.Section
	err := r.c.From(repository.SectionsTable).
		Eq("id", sectionID).
		Eq("song_id", songID).
		Single().
		ExecuteInto(ctx, &sec)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

func (r songRepo) FindSection(ctx context.Context, userID, sectionID string) (*model.Section, error) {
	var sec model.Section
	err := r.c.From(repository.SectionsTable).
		Select("*,songs!inner(user_id)").
		Eq("id", sectionID).
		Eq("songs.user_id", userID).
		Single().
		ExecuteInto(ctx, &sec)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

func (r songRepo) UpdateSection(ctx context.Context, songID, sectionID string, fields map[string]any) (*model.Section, error) {
	if err := checkFields(fields, repository.SectionColumns); err != nil {
		return nil, err
	}
	var out []model.Section
	err := r.c.From(repository.SectionsTable).
		Update(fields).
		Eq("id", sectionID).
		Eq("song_id", songID).
		ExecuteInto(ctx, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errs.ErrNotFound
	}
	return &out[0], nil
}

func (r songRepo) DeleteSection(ctx context.Context, songID, sectionID string) error {
	body, err := r.c.From(repository.SectionsTable).
		Delete().
		Eq("id", sectionID).
		Eq("song_id", songID).
		Execute(ctx)
	if err != nil {
		return err
	}
	return affected(body)
}

// sessionPageSize stays at or below the PostgREST max-rows setting (Supabase default 1000).
var sessionPageSize = 1000

type sessionRepo struct{ c *Client }

func (r sessionRepo) ListSessions(ctx context.Context, userID string, f model.SessionFilter) ([]model.Session, error) {
	q := r.c.From(repository.SessionsTable).
		Select(sessionSelect).
		Eq("user_id", userID)
	if f.SongID != "" {
		q.Eq("song_id", f.SongID)
	}
	if f.SectionID != "" {
		q.Eq("section_id", f.SectionID)
	}
	if f.From != nil {
		q.Gte("practiced_at", *f.From)
	}
	if f.To != nil {
		q.Lte("practiced_at", *f.To)
	}
	q.Order("practiced_at", true)
	if f.Limit > 0 {
		q.Range(f.Offset, f.Limit)
		var rows []sessionRow
		if err := q.ExecuteInto(ctx, &rows); err != nil {
			return nil, err
		}
		return toSessions(rows), nil
	}

	// 不分页时按页拉取，避免被服务端 max-rows 截断
	q.Order("id", false)
	var all []sessionRow
	for offset := 0; ; offset += sessionPageSize {
		var page []sessionRow
		if err := q.Range(offset, sessionPageSize).ExecuteInto(ctx, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < sessionPageSize {
			break
		}
	}
	return toSessions(all), nil
}

func toSessions(rows []sessionRow) []model.Session {
	out := make([]model.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toSession())
	}
	return out
}

func (r sessionRepo) GetSession(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	var row sessionRow
	err := r.c.From(repository.SessionsTable).
		Select(sessionSelect).
		Eq("id", sessionID).
		Eq("user_id", userID).
		Single().
		ExecuteInto(ctx, &row)
	if err != nil {
		return nil, err
	}
	sess := row.toSession()
	return &sess, nil
}

func (r sessionRepo) CreateSession(ctx context.Context, s model.Session) (*model.Session, error) {
	var rows []sessionRow
	err := r.c.From(repository.SessionsTable).
		Insert(sessionInsert{
			UserID:           s.UserID,
			SongID:           s.SongID,
			SectionID:        s.SectionID,
			PracticedAt:      s.PracticedAt.UTC(),
			DurationMinutes:  s.DurationMinutes,
			TempoBPM:         s.TempoBPM,
			AccuracyRating:   s.AccuracyRating,
			DifficultyRating: s.DifficultyRating,
			Notes:            s.Notes,
		}).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("insert session: got %d rows", len(rows))
	}
	created := rows[0].toSession()
	return &created, nil
}

func (r sessionRepo) UpdateSession(ctx context.Context, userID, sessionID string, fields map[string]any) error {
	if err := checkFields(fields, repository.SessionColumns); err != nil {
		return err
	}
	body, err := r.c.From(repository.SessionsTable).
		Update(fields).
		Eq("id", sessionID).
		Eq("user_id", userID).
		Execute(ctx)
	if err != nil {
		return err
	}
	return affected(body)
}

func (r sessionRepo) DeleteSession(ctx context.Context, userID, sessionID string) error {
	body, err := r.c.From(repository.SessionsTable).
		Delete().
		Eq("id", sessionID).
		Eq("user_id", userID).
		Execute(ctx)
	if err != nil {
		return err
	}
	return affected(body)
}

type goalRepo struct{ c *Client }

func (r goalRepo) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	out := make([]model.Goal, 0)
	err := r.c.From(repository.GoalsTable).
		Select("*").
		Eq("user_id", userID).
		Eq("active", true).
		Order("created_at", true).
		ExecuteInto(ctx, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r goalRepo) GetGoal(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	var g model.Goal
	err := r.c.From(repository.GoalsTable).
		Eq("id", goalID).
		Eq("user_id", userID).
		Eq("active", true).
		Single().
		ExecuteInto(ctx, &g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r goalRepo) CreateGoal(ctx context.Context, g model.Goal) (*model.Goal, error) {
	var rows []model.Goal
	err := r.c.From(repository.GoalsTable).
		Insert(goalInsert{UserID: g.UserID, Type: g.Type, TargetValue: g.TargetValue, Active: g.Active}).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("insert goal: got %d rows", len(rows))
	}
	return &rows[0], nil
}

func (r goalRepo) UpdateGoal(ctx context.Context, userID, goalID string, fields map[string]any) error {
	if err := checkFields(fields, repository.GoalColumns); err != nil {
		return err
	}
	body, err := r.c.From(repository.GoalsTable).
		Update(fields).
		Eq("id", goalID).
		Eq("user_id", userID).
		Eq("active", true).
		Execute(ctx)
	if err != nil {
		return err
	}
	return affected(body)
}

func (r goalRepo) DeactivateGoals(ctx context.Context, userID string, goalType model.GoalType) error {
	_, err := r.c.From(repository.GoalsTable).
		Update(map[string]any{"active": false}).
		Eq("user_id", userID).
		Eq("type", string(goalType)).
		Eq("active", true).
		Execute(ctx)
	return err
}
