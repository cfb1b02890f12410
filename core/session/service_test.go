package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PracticeLog/core/errs"
	"PracticeLog/model"
	"PracticeLog/repository"
	"PracticeLog/repository/memory"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	svc     *Service
	store   *memory.Store
	songID  string
	sectID  string
	otherID string
	clock   time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: memory.New(), clock: time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)}
	f.svc = NewService(f.store.Factory()).WithClock(func() time.Time { return f.clock })

	song, err := f.store.Songs().CreateSong(ctx, model.Song{UserID: "u1", Title: "Giant Steps", Artist: ptr("Coltrane")})
	require.NoError(t, err)
	secs, err := f.store.Songs().CreateSections(ctx, []model.Section{{SongID: song.ID, Name: "Head"}})
	require.NoError(t, err)
	other, err := f.store.Songs().CreateSong(ctx, model.Song{UserID: "u2", Title: "Secret"})
	require.NoError(t, err)

	f.songID, f.sectID, f.otherID = song.ID, secs[0].ID, other.ID
	return f
}

func TestCreateDefaultsPracticedAtAndJoinsSummaries(t *testing.T) {
	f := setup(t)
	sess, err := f.svc.Create(context.Background(), "u1", model.SessionCreate{
		SongID:          &f.songID,
		SectionID:       &f.sectID,
		DurationMinutes: ptr(25),
		TempoBPM:        ptr(160),
	})
	require.NoError(t, err)
	assert.True(t, sess.PracticedAt.Equal(f.clock))
	require.NotNil(t, sess.Song)
	assert.Equal(t, "Giant Steps", sess.Song.Title)
	assert.Equal(t, "Coltrane", *sess.Song.Artist)
	require.NotNil(t, sess.Section)
	assert.Equal(t, "Head", sess.Section.Name)
}

func TestCreateWithoutReferences(t *testing.T) {
	f := setup(t)
	sess, err := f.svc.Create(context.Background(), "u1", model.SessionCreate{DurationMinutes: ptr(5)})
	require.NoError(t, err)
	assert.Nil(t, sess.Song)
	assert.Nil(t, sess.Section)
}

func TestCreateRejectsForeignReferences(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "u1", model.SessionCreate{SongID: &f.otherID, DurationMinutes: ptr(5)})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.svc.Create(ctx, "u2", model.SessionCreate{SectionID: &f.sectID, DurationMinutes: ptr(5)})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.svc.Create(ctx, "u2", model.SessionCreate{SongID: &f.otherID, SectionID: &f.sectID, DurationMinutes: ptr(5)})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestCreateRejectsInvalidBody(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Create(context.Background(), "u1", model.SessionCreate{DurationMinutes: ptr(0), AccuracyRating: ptr(6)})
	require.ErrorIs(t, err, errs.ErrValidation)

	list, err := f.store.Sessions().ListSessions(context.Background(), "u1", model.SessionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListValidatesPaging(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for _, filter := range []model.SessionFilter{{Limit: 101}, {Limit: -1}, {Offset: -1}} {
		_, err := f.svc.List(ctx, "u1", filter)
		assert.ErrorIs(t, err, errs.ErrValidation, "%+v", filter)
	}
}

func TestListDefaultLimit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for i := 0; i < model.DefaultSessionLimit+5; i++ {
		_, err := f.store.Sessions().CreateSession(ctx, model.Session{UserID: "u1", PracticedAt: f.clock, DurationMinutes: 1})
		require.NoError(t, err)
	}
	list, err := f.svc.List(ctx, "u1", model.SessionFilter{})
	require.NoError(t, err)
	assert.Len(t, list, model.DefaultSessionLimit)
}

func TestListDateRange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for _, at := range []time.Time{
		time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	} {
		_, err := f.store.Sessions().CreateSession(ctx, model.Session{UserID: "u1", PracticedAt: at, DurationMinutes: 1})
		require.NoError(t, err)
	}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	list, err := f.svc.List(ctx, "u1", model.SessionFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sess, err := f.svc.Create(ctx, "u1", model.SessionCreate{SongID: &f.songID, DurationMinutes: ptr(10), Notes: ptr("slow")})
	require.NoError(t, err)

	same, err := f.svc.Update(ctx, "u1", sess.ID, model.SessionUpdate{})
	require.NoError(t, err)
	assert.Equal(t, 10, same.DurationMinutes)

	updated, err := f.svc.Update(ctx, "u1", sess.ID, model.SessionUpdate{
		DurationMinutes: model.Some(40),
		Notes:           model.Null[string](),
		SongID:          model.Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.DurationMinutes)
	assert.Nil(t, updated.Notes)
	assert.Nil(t, updated.Song)

	_, err = f.svc.Update(ctx, "u1", sess.ID, model.SessionUpdate{SongID: model.Some(f.otherID)})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.svc.Update(ctx, "u2", sess.ID, model.SessionUpdate{DurationMinutes: model.Some(1)})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGetAndDeleteAreScoped(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sess, err := f.svc.Create(ctx, "u1", model.SessionCreate{DurationMinutes: ptr(10)})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, "u2", sess.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, f.svc.Delete(ctx, "u2", sess.ID), errs.ErrNotFound)
	require.NoError(t, f.svc.Delete(ctx, "u1", sess.ID))
	_, err = f.svc.Get(ctx, "u1", sess.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

// countingStore 统计写操作次数，读操作直接透传给内存存储
type countingStore struct {
	*memory.Store
	writes map[string]int
}

func (s *countingStore) Sessions() repository.SessionRepository {
	return countingSessions{SessionRepository: s.Store.Sessions(), writes: s.writes}
}

type countingSessions struct {
	repository.SessionRepository
	writes map[string]int
}

func (r countingSessions) CreateSession(ctx context.Context, sess model.Session) (*model.Session, error) {
	r.writes["CreateSession"]++
	return r.SessionRepository.CreateSession(ctx, sess)
}

func (r countingSessions) UpdateSession(ctx context.Context, userID, sessionID string, fields map[string]any) error {
	r.writes["UpdateSession"]++
	return r.SessionRepository.UpdateSession(ctx, userID, sessionID, fields)
}

func TestEmptyUpdateDoesNotWrite(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spy := &countingStore{Store: f.store, writes: make(map[string]int)}
	svc := NewService(repository.FactoryFunc(func(context.Context) (repository.Store, error) {
		return spy, nil
	})).WithClock(func() time.Time { return f.clock })

	sess, err := svc.Create(ctx, "u1", model.SessionCreate{SongID: &f.songID, DurationMinutes: ptr(10)})
	require.NoError(t, err)
	assert.Equal(t, 1, spy.writes["CreateSession"])

	same, err := svc.Update(ctx, "u1", sess.ID, model.SessionUpdate{})
	require.NoError(t, err)
	assert.Equal(t, 10, same.DurationMinutes)
	require.NotNil(t, same.Song)

	_, err = svc.Update(ctx, "u1", sess.ID, model.SessionUpdate{DurationMinutes: model.Some(0)})
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.Update(ctx, "u1", sess.ID, model.SessionUpdate{SongID: model.Some(f.otherID)})
	require.ErrorIs(t, err, errs.ErrValidation)

	assert.Zero(t, spy.writes["UpdateSession"])

	_, err = svc.Update(ctx, "u1", sess.ID, model.SessionUpdate{DurationMinutes: model.Some(12)})
	require.NoError(t, err)
	assert.Equal(t, 1, spy.writes["UpdateSession"])
}
