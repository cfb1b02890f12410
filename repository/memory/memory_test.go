package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PracticeLog/core/errs"
	"PracticeLog/model"
)

func ptr[T any](v T) *T { return &v }

func newStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestSongsAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	songs := s.Songs()

	mine, err := songs.CreateSong(ctx, model.Song{UserID: "u1", Title: "Mine"})
	require.NoError(t, err)
	_, err = songs.CreateSong(ctx, model.Song{UserID: "u2", Title: "Theirs"})
	require.NoError(t, err)

	list, err := songs.ListSongs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Mine", list[0].Title)
	require.NotNil(t, list[0].Sections)

	_, err = songs.GetSong(ctx, "u2", mine.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, songs.UpdateSong(ctx, "u2", mine.ID, map[string]any{"title": "x"}), errs.ErrNotFound)
	require.ErrorIs(t, songs.DeleteSong(ctx, "u2", mine.ID), errs.ErrNotFound)
}

func TestListSongsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, title := range []string{"a", "b", "c"} {
		_, err := s.Songs().CreateSong(ctx, model.Song{UserID: "u1", Title: title})
		require.NoError(t, err)
	}
	list, err := s.Songs().ListSongs(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "c", list[0].Title)
	require.Equal(t, "a", list[2].Title)
}

func TestSectionsOrderedByIndexThenCreation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	song, err := s.Songs().CreateSong(ctx, model.Song{UserID: "u1", Title: "t"})
	require.NoError(t, err)

	created, err := s.Songs().CreateSections(ctx, []model.Section{
		{SongID: song.ID, Name: "Solo", OrderIndex: 2},
		{SongID: song.ID, Name: "Intro", OrderIndex: 0},
		{SongID: song.ID, Name: "Verse", OrderIndex: 0},
	})
	require.NoError(t, err)
	require.Equal(t, "Solo", created[0].Name)

	got, err := s.Songs().GetSong(ctx, "u1", song.ID)
	require.NoError(t, err)
	names := []string{}
	for _, sec := range got.Sections {
		names = append(names, sec.Name)
	}
	require.Equal(t, []string{"Intro", "Verse", "Solo"}, names)
}

func TestUpdateSongClearsNullableColumns(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	song, err := s.Songs().CreateSong(ctx, model.Song{UserID: "u1", Title: "t", Artist: ptr("a"), TargetTempo: ptr(100)})
	require.NoError(t, err)

	later := song.UpdatedAt.Add(time.Hour)
	err = s.Songs().UpdateSong(ctx, "u1", song.ID, map[string]any{"artist": nil, "target_tempo": 120, "updated_at": later})
	require.NoError(t, err)

	got, err := s.Songs().GetSong(ctx, "u1", song.ID)
	require.NoError(t, err)
	require.Nil(t, got.Artist)
	require.Equal(t, 120, *got.TargetTempo)
	require.Equal(t, "t", got.Title)
	require.True(t, got.UpdatedAt.Equal(later))

	require.Error(t, s.Songs().UpdateSong(ctx, "u1", song.ID, map[string]any{"user_id": "u2"}))
}

func TestDeleteSongCascades(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	song, err := s.Songs().CreateSong(ctx, model.Song{UserID: "u1", Title: "t"})
	require.NoError(t, err)
	secs, err := s.Songs().CreateSections(ctx, []model.Section{{SongID: song.ID, Name: "Intro"}})
	require.NoError(t, err)

	sess, err := s.Sessions().CreateSession(ctx, model.Session{
		UserID: "u1", SongID: &song.ID, SectionID: &secs[0].ID,
		PracticedAt: time.Now(), DurationMinutes: 10,
	})
	require.NoError(t, err)

	require.NoError(t, s.Songs().DeleteSong(ctx, "u1", song.ID))

	_, err = s.Songs().GetSection(ctx, song.ID, secs[0].ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	got, err := s.Sessions().GetSession(ctx, "u1", sess.ID)
	require.NoError(t, err)
	require.Nil(t, got.SongID)
	require.Nil(t, got.SectionID)
	require.Nil(t, got.Song)
	require.Nil(t, got.Section)
}

func TestFindSectionChecksParentOwner(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	song, err := s.Songs().CreateSong(ctx, model.Song{UserID: "u1", Title: "t"})
	require.NoError(t, err)
	secs, err := s.Songs().CreateSections(ctx, []model.Section{{SongID: song.ID, Name: "Intro"}})
	require.NoError(t, err)

	found, err := s.Songs().FindSection(ctx, "u1", secs[0].ID)
	require.NoError(t, err)
	require.Equal(t, song.ID, found.SongID)

	_, err = s.Songs().FindSection(ctx, "u2", secs[0].ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateAndDeleteSection(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	song, err := s.Songs().CreateSong(ctx, model.Song{UserID: "u1", Title: "t"})
	require.NoError(t, err)
	secs, err := s.Songs().CreateSections(ctx, []model.Section{{SongID: song.ID, Name: "Intro", Notes: ptr("slow")}})
	require.NoError(t, err)

	updated, err := s.Songs().UpdateSection(ctx, song.ID, secs[0].ID, map[string]any{"name": "Outro", "notes": nil, "order_index": 4})
	require.NoError(t, err)
	require.Equal(t, "Outro", updated.Name)
	require.Nil(t, updated.Notes)
	require.Equal(t, 4, updated.OrderIndex)

	_, err = s.Songs().UpdateSection(ctx, "other-song", secs[0].ID, map[string]any{"name": "x"})
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, s.Songs().DeleteSection(ctx, song.ID, secs[0].ID))
	require.ErrorIs(t, s.Songs().DeleteSection(ctx, song.ID, secs[0].ID), errs.ErrNotFound)
}

func TestListSessionsFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	song, err := s.Songs().CreateSong(ctx, model.Song{UserID: "u1", Title: "Song", Artist: ptr("Band")})
	require.NoError(t, err)

	day := func(d int) time.Time { return time.Date(2024, 1, d, 10, 0, 0, 0, time.UTC) }
	for d := 1; d <= 5; d++ {
		sess := model.Session{UserID: "u1", PracticedAt: day(d), DurationMinutes: d}
		if d%2 == 1 {
			sess.SongID = &song.ID
		}
		_, err := s.Sessions().CreateSession(ctx, sess)
		require.NoError(t, err)
	}
	_, err = s.Sessions().CreateSession(ctx, model.Session{UserID: "u2", PracticedAt: day(3), DurationMinutes: 1})
	require.NoError(t, err)

	all, err := s.Sessions().ListSessions(ctx, "u1", model.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	require.Equal(t, 5, all[0].DurationMinutes)
	require.Equal(t, "Song", all[0].Song.Title)
	require.Nil(t, all[1].Song)

	bySong, err := s.Sessions().ListSessions(ctx, "u1", model.SessionFilter{SongID: song.ID})
	require.NoError(t, err)
	require.Len(t, bySong, 3)

	from, to := day(2), day(4)
	ranged, err := s.Sessions().ListSessions(ctx, "u1", model.SessionFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, ranged, 3)

	page, err := s.Sessions().ListSessions(ctx, "u1", model.SessionFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, 4, page[0].DurationMinutes)

	empty, err := s.Sessions().ListSessions(ctx, "u1", model.SessionFilter{Offset: 10})
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestUpdateSessionChecksReferences(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	sess, err := s.Sessions().CreateSession(ctx, model.Session{UserID: "u1", PracticedAt: time.Now(), DurationMinutes: 5})
	require.NoError(t, err)

	err = s.Sessions().UpdateSession(ctx, "u1", sess.ID, map[string]any{"song_id": "00000000-0000-0000-0000-000000000000"})
	require.Error(t, err)

	require.NoError(t, s.Sessions().UpdateSession(ctx, "u1", sess.ID, map[string]any{"duration_minutes": 30, "tempo_bpm": 90}))
	got, err := s.Sessions().GetSession(ctx, "u1", sess.ID)
	require.NoError(t, err)
	require.Equal(t, 30, got.DurationMinutes)
	require.Equal(t, 90, *got.TempoBPM)

	require.ErrorIs(t, s.Sessions().UpdateSession(ctx, "u2", sess.ID, map[string]any{"notes": "x"}), errs.ErrNotFound)
	require.ErrorIs(t, s.Sessions().DeleteSession(ctx, "u2", sess.ID), errs.ErrNotFound)
	require.NoError(t, s.Sessions().DeleteSession(ctx, "u1", sess.ID))
}

func TestGoalsActiveOnlyAndOwnerScoped(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	goals := s.Goals()

	daily, err := goals.CreateGoal(ctx, model.Goal{UserID: "u1", Type: model.GoalDailyMinutes, TargetValue: 30, Active: true})
	require.NoError(t, err)
	weekly, err := goals.CreateGoal(ctx, model.Goal{UserID: "u1", Type: model.GoalWeeklySessions, TargetValue: 5, Active: true})
	require.NoError(t, err)
	_, err = goals.CreateGoal(ctx, model.Goal{UserID: "u2", Type: model.GoalDailyMinutes, TargetValue: 10, Active: true})
	require.NoError(t, err)

	list, err := goals.ListGoals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, weekly.ID, list[0].ID)

	_, err = goals.GetGoal(ctx, "u2", daily.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, goals.UpdateGoal(ctx, "u2", daily.ID, map[string]any{"target_value": 1}), errs.ErrNotFound)

	require.NoError(t, goals.DeactivateGoals(ctx, "u1", model.GoalDailyMinutes))
	require.NoError(t, goals.DeactivateGoals(ctx, "u1", model.GoalDailyMinutes))
	_, err = goals.GetGoal(ctx, "u1", daily.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, goals.UpdateGoal(ctx, "u1", daily.ID, map[string]any{"target_value": 1}), errs.ErrNotFound)

	list, err = goals.ListGoals(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].Active)
}

func TestUpdateGoal(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	g, err := s.Goals().CreateGoal(ctx, model.Goal{UserID: "u1", Type: model.GoalWeeklyMinutes, TargetValue: 120, Active: true})
	require.NoError(t, err)

	require.NoError(t, s.Goals().UpdateGoal(ctx, "u1", g.ID, map[string]any{"target_value": 200}))
	got, err := s.Goals().GetGoal(ctx, "u1", g.ID)
	require.NoError(t, err)
	require.Equal(t, 200, got.TargetValue)

	require.Error(t, s.Goals().UpdateGoal(ctx, "u1", g.ID, map[string]any{"type": "daily_minutes"}))

	require.NoError(t, s.Goals().UpdateGoal(ctx, "u1", g.ID, map[string]any{"active": false}))
	_, err = s.Goals().GetGoal(ctx, "u1", g.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
