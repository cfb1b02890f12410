package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"PracticeLog/core/errs"
	"PracticeLog/model"
)

func ptr[T any](v T) *T { return &v }

func newStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return NewStore(mock), mock
}

var (
	songCols    = []string{"id", "user_id", "title", "artist", "target_tempo", "created_at", "updated_at"}
	sectionCols = []string{"id", "song_id", "name", "order_index", "target_tempo", "notes", "created_at"}
	sessionCols = []string{"id", "user_id", "song_id", "section_id", "practiced_at", "duration_minutes",
		"tempo_bpm", "accuracy_rating", "difficulty_rating", "notes", "created_at"}
	joinedCols = append(append([]string{}, sessionCols...), "s_id", "s_title", "s_artist", "c_id", "c_name")
	ts         = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
)

func TestListSongsAttachesSections(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(qListSongs)).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(songCols).
			AddRow("s2", "u1", "Newer", nil, ptr(90), ts, ts).
			AddRow("s1", "u1", "Older", ptr("Band"), nil, ts, ts))
	mock.ExpectQuery(regexp.QuoteMeta(qSectionsOf)).
		WithArgs([]string{"s2", "s1"}).
		WillReturnRows(pgxmock.NewRows(sectionCols).
			AddRow("x1", "s1", "Intro", 0, nil, nil, ts).
			AddRow("x2", "s1", "Verse", 1, ptr(100), ptr("legato"), ts))

	songs, err := store.Songs().ListSongs(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, songs, 2)
	require.Equal(t, "Newer", songs[0].Title)
	require.Equal(t, 90, *songs[0].TargetTempo)
	require.Empty(t, songs[0].Sections)
	require.NotNil(t, songs[0].Sections)
	require.Equal(t, "Band", *songs[1].Artist)
	require.Len(t, songs[1].Sections, 2)
	require.Equal(t, "Verse", songs[1].Sections[1].Name)
	require.Equal(t, "legato", *songs[1].Sections[1].Notes)
}

func TestListSongsEmptySkipsSections(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(qListSongs)).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(songCols))

	songs, err := store.Songs().ListSongs(context.Background(), "u1")
	require.NoError(t, err)
	require.Empty(t, songs)
}

func TestGetSongNotFound(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(qGetSong)).
		WithArgs("s1", "u2").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Songs().GetSong(context.Background(), "u2", "s1")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateSong(t *testing.T) {
	store, mock := newStore(t)
	const q = `UPDATE songs SET artist = $1, title = $2, updated_at = $3 WHERE id = $4 AND user_id = $5`

	mock.ExpectExec(regexp.QuoteMeta(q)).
		WithArgs(nil, "New", ts, "s1", "u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.Songs().UpdateSong(context.Background(), "u1", "s1",
		map[string]any{"title": "New", "artist": nil, "updated_at": ts}))

	mock.ExpectExec(regexp.QuoteMeta(q)).
		WithArgs(nil, "New", ts, "s1", "u2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err := store.Songs().UpdateSong(context.Background(), "u2", "s1",
		map[string]any{"title": "New", "artist": nil, "updated_at": ts})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateSongRejectsUnknownColumn(t *testing.T) {
	store, _ := newStore(t)
	err := store.Songs().UpdateSong(context.Background(), "u1", "s1", map[string]any{"user_id": "u2"})
	require.Error(t, err)
}

func TestDeleteSong(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec(regexp.QuoteMeta(qDeleteSong)).
		WithArgs("s1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, store.Songs().DeleteSong(context.Background(), "u1", "s1"), errs.ErrNotFound)
}

func TestCreateSectionsInTransaction(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qInsertSection)).
		WithArgs("s1", "Head", 1, (*int)(nil), (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(sectionCols).AddRow("x1", "s1", "Head", 1, nil, nil, ts))
	mock.ExpectQuery(regexp.QuoteMeta(qInsertSection)).
		WithArgs("s1", "Solo", 0, ptr(200), (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(sectionCols).AddRow("x2", "s1", "Solo", 0, ptr(200), nil, ts))
	mock.ExpectCommit()

	tempo := 200
	out, err := store.Songs().CreateSections(context.Background(), []model.Section{
		{SongID: "s1", Name: "Head", OrderIndex: 1},
		{SongID: "s1", Name: "Solo", TargetTempo: &tempo},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "x1", out[0].ID)
	require.Equal(t, "x2", out[1].ID)
}

func TestCreateSectionsRollsBack(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qInsertSection)).
		WithArgs("s1", "Head", 0, (*int)(nil), (*string)(nil)).
		WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	_, err := store.Songs().CreateSections(context.Background(), []model.Section{{SongID: "s1", Name: "Head"}})
	require.Error(t, err)
}

func TestFindSection(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(qFindSection)).
		WithArgs("x1", "u1").
		WillReturnRows(pgxmock.NewRows(sectionCols).AddRow("x1", "s1", "Head", 0, nil, nil, ts))

	sec, err := store.Songs().FindSection(context.Background(), "u1", "x1")
	require.NoError(t, err)
	require.Equal(t, "s1", sec.SongID)
}

func TestUpdateSectionReturnsRow(t *testing.T) {
	store, mock := newStore(t)
	q := `UPDATE song_sections SET name = $1, notes = $2 WHERE id = $3 AND song_id = $4 RETURNING ` + sectionColumns
	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs("Bridge", nil, "x1", "s1").
		WillReturnRows(pgxmock.NewRows(sectionCols).AddRow("x1", "s1", "Bridge", 2, nil, nil, ts))

	sec, err := store.Songs().UpdateSection(context.Background(), "s1", "x1", map[string]any{"name": "Bridge", "notes": nil})
	require.NoError(t, err)
	require.Equal(t, "Bridge", sec.Name)
	require.Nil(t, sec.Notes)
}

func TestListSessionsBuildsFilters(t *testing.T) {
	store, mock := newStore(t)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	q := qSelectSessions + ` AND p.song_id = $2 AND p.practiced_at >= $3 AND p.practiced_at <= $4` +
		` ORDER BY p.practiced_at DESC LIMIT $5 OFFSET $6`

	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs("u1", "s1", from, to, 10, 20).
		WillReturnRows(pgxmock.NewRows(joinedCols).
			AddRow("p1", "u1", ptr("s1"), nil, ts, 30, ptr(120), nil, nil, nil, ts,
				ptr("s1"), ptr("Spain"), ptr("Corea"), nil, nil))

	list, err := store.Sessions().ListSessions(context.Background(), "u1", model.SessionFilter{
		SongID: "s1", From: &from, To: &to, Limit: 10, Offset: 20,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Spain", list[0].Song.Title)
	require.Equal(t, "Corea", *list[0].Song.Artist)
	require.Nil(t, list[0].Section)
	require.Equal(t, 120, *list[0].TempoBPM)
}

func TestListSessionsUnbounded(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(qSelectSessions + ` ORDER BY p.practiced_at DESC`)).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(joinedCols))

	list, err := store.Sessions().ListSessions(context.Background(), "u1", model.SessionFilter{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestGetSession(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(qGetSession)).
		WithArgs("u1", "p1").
		WillReturnRows(pgxmock.NewRows(joinedCols).
			AddRow("p1", "u1", ptr("s1"), ptr("x1"), ts, 15, nil, ptr(3), ptr(2), ptr("ok"), ts,
				ptr("s1"), ptr("Spain"), nil, ptr("x1"), ptr("Intro")))

	s, err := store.Sessions().GetSession(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.Equal(t, "Intro", s.Section.Name)
	require.Nil(t, s.Song.Artist)

	mock.ExpectQuery(regexp.QuoteMeta(qGetSession)).
		WithArgs("u2", "p1").
		WillReturnRows(pgxmock.NewRows(joinedCols))
	_, err = store.Sessions().GetSession(context.Background(), "u2", "p1")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateSession(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(qInsertSession)).
		WithArgs("u1", (*string)(nil), (*string)(nil), ts, 20, (*int)(nil), (*int)(nil), (*int)(nil), (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(sessionCols).AddRow("p1", "u1", nil, nil, ts, 20, nil, nil, nil, nil, ts))

	s, err := store.Sessions().CreateSession(context.Background(), model.Session{UserID: "u1", PracticedAt: ts, DurationMinutes: 20})
	require.NoError(t, err)
	require.Equal(t, "p1", s.ID)
}

func TestUpdateAndDeleteSession(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE practice_sessions SET duration_minutes = $1, song_id = $2 WHERE id = $3 AND user_id = $4`)).
		WithArgs(45, nil, "p1", "u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.Sessions().UpdateSession(context.Background(), "u1", "p1",
		map[string]any{"duration_minutes": 45, "song_id": nil}))

	mock.ExpectExec(regexp.QuoteMeta(qDeleteSession)).
		WithArgs("p1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, store.Sessions().DeleteSession(context.Background(), "u1", "p1"))
}

var goalCols = []string{"id", "user_id", "type", "target_value", "active", "created_at"}

func TestListGoals(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(qListGoals)).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(goalCols).
			AddRow("g2", "u1", "weekly_sessions", 5, true, ts).
			AddRow("g1", "u1", "daily_minutes", 30, true, ts))

	goals, err := store.Goals().ListGoals(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	require.Equal(t, model.GoalWeeklySessions, goals[0].Type)
	require.Equal(t, 30, goals[1].TargetValue)
}

func TestGetGoalNotFound(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(qGetGoal)).
		WithArgs("g1", "u1").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Goals().GetGoal(context.Background(), "u1", "g1")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateGoalAfterDeactivating(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec(regexp.QuoteMeta(qDeactivateGoals)).
		WithArgs("u1", "daily_minutes").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta(qInsertGoal)).
		WithArgs("u1", "daily_minutes", 45, true).
		WillReturnRows(pgxmock.NewRows(goalCols).AddRow("g1", "u1", "daily_minutes", 45, true, ts))

	ctx := context.Background()
	require.NoError(t, store.Goals().DeactivateGoals(ctx, "u1", model.GoalDailyMinutes))
	g, err := store.Goals().CreateGoal(ctx, model.Goal{UserID: "u1", Type: model.GoalDailyMinutes, TargetValue: 45, Active: true})
	require.NoError(t, err)
	require.Equal(t, "g1", g.ID)
	require.True(t, g.Active)
}

func TestUpdateGoalOnlyActiveRows(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE goals SET active = $1 WHERE id = $2 AND user_id = $3 AND active`)).
		WithArgs(false, "g1", "u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.Goals().UpdateGoal(context.Background(), "u1", "g1", map[string]any{"active": false})
	require.ErrorIs(t, err, errs.ErrNotFound)
}
