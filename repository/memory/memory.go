// Package memory is a process-local store used by tests and by STORE_DRIVER=memory.
// It mirrors the relational schema: deleting a song cascades to its sections and
// clears the song and section references of sessions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"PracticeLog/core/errs"
	"PracticeLog/model"
	"PracticeLog/repository"
)

type row[T any] struct {
	seq int
	val T
}

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu       sync.RWMutex
	seq      int
	songs    map[string]row[model.Song]
	sections map[string]row[model.Section]
	sessions map[string]row[model.Session]
	goals    map[string]row[model.Goal]

	// Now stamps created_at columns. Defaults to time.Now.
	Now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		songs:    make(map[string]row[model.Song]),
		sections: make(map[string]row[model.Section]),
		sessions: make(map[string]row[model.Session]),
		goals:    make(map[string]row[model.Goal]),
		Now:      time.Now,
	}
}

// Factory returns a repository.Factory that always hands out s.
func (s *Store) Factory() repository.Factory {
	return repository.FactoryFunc(func(context.Context) (repository.Store, error) {
		return s, nil
	})
}

func (s *Store) Songs() repository.SongRepository       { return songRepo{s} }
func (s *Store) Sessions() repository.SessionRepository { return sessionRepo{s} }
func (s *Store) Goals() repository.GoalRepository       { return goalRepo{s} }

func (s *Store) next() int {
	s.seq++
	return s.seq
}

func (s *Store) now() time.Time {
	return s.Now().UTC()
}

// --- songs ---

type songRepo struct{ s *Store }

func (r songRepo) ListSongs(_ context.Context, userID string) ([]model.Song, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]row[model.Song], 0)
	for _, sr := range r.s.songs {
		if sr.val.UserID == userID {
			rows = append(rows, sr)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.val.CreatedAt.Equal(b.val.CreatedAt) {
			return a.val.CreatedAt.After(b.val.CreatedAt)
		}
		return a.seq > b.seq
	})

	songs := make([]model.Song, 0, len(rows))
	for _, sr := range rows {
		songs = append(songs, r.withSections(sr.val))
	}
	return songs, nil
}

func (r songRepo) GetSong(_ context.Context, userID, songID string) (*model.Song, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sr, ok := r.s.songs[songID]
	if !ok || sr.val.UserID != userID {
		return nil, errs.ErrNotFound
	}
	song := r.withSections(sr.val)
	return &song, nil
}

// withSections must be called with the lock held.
func (r songRepo) withSections(song model.Song) model.Song {
	rows := make([]row[model.Section], 0)
	for _, sec := range r.s.sections {
		if sec.val.SongID == song.ID {
			rows = append(rows, sec)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.val.OrderIndex != b.val.OrderIndex {
			return a.val.OrderIndex < b.val.OrderIndex
		}
		if !a.val.CreatedAt.Equal(b.val.CreatedAt) {
			return a.val.CreatedAt.Before(b.val.CreatedAt)
		}
		return a.seq < b.seq
	})
	song.Sections = make([]model.Section, 0, len(rows))
	for _, sec := range rows {
		song.Sections = append(song.Sections, sec.val)
	}
	return song
}

func (r songRepo) CreateSong(_ context.Context, song model.Song) (*model.Song, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	song.ID = uuid.NewString()
	song.CreatedAt = now
	song.UpdatedAt = now
	song.Sections = nil
	r.s.songs[song.ID] = row[model.Song]{seq: r.s.next(), val: song}
	return &song, nil
}

func (r songRepo) UpdateSong(_ context.Context, userID, songID string, fields map[string]any) error {
	cols, err := repository.SortedColumns(fields, repository.SongColumns)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sr, ok := r.s.songs[songID]
	if !ok || sr.val.UserID != userID {
		return errs.ErrNotFound
	}
	for _, col := range cols {
		v := fields[col]
		switch col {
		case "title":
			sr.val.Title, err = as[string](col, v)
		case "artist":
			sr.val.Artist, err = asPtr[string](col, v)
		case "target_tempo":
			sr.val.TargetTempo, err = asPtr[int](col, v)
		case "updated_at":
			var t time.Time
			t, err = as[time.Time](col, v)
			sr.val.UpdatedAt = t.UTC()
		}
		if err != nil {
			return err
		}
	}
	r.s.songs[songID] = sr
	return nil
}

func (r songRepo) DeleteSong(_ context.Context, userID, songID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sr, ok := r.s.songs[songID]
	if !ok || sr.val.UserID != userID {
		return errs.ErrNotFound
	}
	delete(r.s.songs, songID)
	for id, sec := range r.s.sections {
		if sec.val.SongID == songID {
			r.s.dropSection(id)
		}
	}
	for id, sess := range r.s.sessions {
		if sess.val.SongID != nil && *sess.val.SongID == songID {
			sess.val.SongID = nil
			r.s.sessions[id] = sess
		}
	}
	return nil
}

func (r songRepo) CreateSections(_ context.Context, sections []model.Section) ([]model.Section, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, sec := range sections {
		if _, ok := r.s.songs[sec.SongID]; !ok {
			return nil, fmt.Errorf("insert section: song %s does not exist", sec.SongID)
		}
	}
	now := r.s.now()
	out := make([]model.Section, 0, len(sections))
	for _, sec := range sections {
		sec.ID = uuid.NewString()
		sec.CreatedAt = now
		r.s.sections[sec.ID] = row[model.Section]{seq: r.s.next(), val: sec}
		out = append(out, sec)
	}
	return out, nil
}

func (r songRepo) GetSection(_ context.Context, songID, sectionID string) (*model.Section, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sec, ok := r.s.sections[sectionID]
	if !ok || sec.val.SongID != songID {
		return nil, errs.ErrNotFound
	}
	v := sec.val
	return &v, nil
}

func (r songRepo) FindSection(_ context.Context, userID, sectionID string) (*model.Section, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sec, ok := r.s.sections[sectionID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if song, ok := r.s.songs[sec.val.SongID]; !ok || song.val.UserID != userID {
		return nil, errs.ErrNotFound
	}
	v := sec.val
	return &v, nil
}

func (r songRepo) UpdateSection(_ context.Context, songID, sectionID string, fields map[string]any) (*model.Section, error) {
	cols, err := repository.SortedColumns(fields, repository.SectionColumns)
	if err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sec, ok := r.s.sections[sectionID]
	if !ok || sec.val.SongID != songID {
		return nil, errs.ErrNotFound
	}
	for _, col := range cols {
		v := fields[col]
		switch col {
		case "name":
			sec.val.Name, err = as[string](col, v)
		case "order_index":
			sec.val.OrderIndex, err = as[int](col, v)
		case "target_tempo":
			sec.val.TargetTempo, err = asPtr[int](col, v)
		case "notes":
			sec.val.Notes, err = asPtr[string](col, v)
		}
		if err != nil {
			return nil, err
		}
	}
	r.s.sections[sectionID] = sec
	out := sec.val
	return &out, nil
}

func (r songRepo) DeleteSection(_ context.Context, songID, sectionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sec, ok := r.s.sections[sectionID]
	if !ok || sec.val.SongID != songID {
		return errs.ErrNotFound
	}
	r.s.dropSection(sectionID)
	return nil
}

// dropSection must be called with the write lock held.
func (s *Store) dropSection(sectionID string) {
	delete(s.sections, sectionID)
	for id, sess := range s.sessions {
		if sess.val.SectionID != nil && *sess.val.SectionID == sectionID {
			sess.val.SectionID = nil
			s.sessions[id] = sess
		}
	}
}

// --- sessions ---

type sessionRepo struct{ s *Store }

func (r sessionRepo) ListSessions(_ context.Context, userID string, filter model.SessionFilter) ([]model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]row[model.Session], 0)
	for _, sr := range r.s.sessions {
		if sr.val.UserID != userID || !matches(sr.val, filter) {
			continue
		}
		rows = append(rows, sr)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.val.PracticedAt.Equal(b.val.PracticedAt) {
			return a.val.PracticedAt.After(b.val.PracticedAt)
		}
		return a.seq > b.seq
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(rows) {
			rows = rows[:0]
		} else {
			rows = rows[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}

	out := make([]model.Session, 0, len(rows))
	for _, sr := range rows {
		out = append(out, r.s.withSummaries(sr.val))
	}
	return out, nil
}

func matches(sess model.Session, f model.SessionFilter) bool {
	if f.SongID != "" && (sess.SongID == nil || *sess.SongID != f.SongID) {
		return false
	}
	if f.SectionID != "" && (sess.SectionID == nil || *sess.SectionID != f.SectionID) {
		return false
	}
	if f.From != nil && sess.PracticedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && sess.PracticedAt.After(*f.To) {
		return false
	}
	return true
}

// withSummaries must be called with the lock held.
func (s *Store) withSummaries(sess model.Session) model.Session {
	sess.Song, sess.Section = nil, nil
	if sess.SongID != nil {
		if song, ok := s.songs[*sess.SongID]; ok {
			sess.Song = &model.SongSummary{ID: song.val.ID, Title: song.val.Title, Artist: song.val.Artist}
		}
	}
	if sess.SectionID != nil {
		if sec, ok := s.sections[*sess.SectionID]; ok {
			sess.Section = &model.SectionSummary{ID: sec.val.ID, Name: sec.val.Name}
		}
	}
	return sess
}

func (r sessionRepo) GetSession(_ context.Context, userID, sessionID string) (*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sr, ok := r.s.sessions[sessionID]
	if !ok || sr.val.UserID != userID {
		return nil, errs.ErrNotFound
	}
	sess := r.s.withSummaries(sr.val)
	return &sess, nil
}

func (r sessionRepo) CreateSession(_ context.Context, sess model.Session) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkRefs(sess.SongID, sess.SectionID); err != nil {
		return nil, err
	}
	sess.ID = uuid.NewString()
	sess.CreatedAt = r.s.now()
	sess.PracticedAt = sess.PracticedAt.UTC()
	sess.Song, sess.Section = nil, nil
	r.s.sessions[sess.ID] = row[model.Session]{seq: r.s.next(), val: sess}
	return &sess, nil
}

func (r sessionRepo) UpdateSession(_ context.Context, userID, sessionID string, fields map[string]any) error {
	cols, err := repository.SortedColumns(fields, repository.SessionColumns)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sr, ok := r.s.sessions[sessionID]
	if !ok || sr.val.UserID != userID {
		return errs.ErrNotFound
	}
	sess := sr.val
	for _, col := range cols {
		v := fields[col]
		switch col {
		case "song_id":
			sess.SongID, err = asPtr[string](col, v)
		case "section_id":
			sess.SectionID, err = asPtr[string](col, v)
		case "practiced_at":
			var t time.Time
			t, err = as[time.Time](col, v)
			sess.PracticedAt = t.UTC()
		case "duration_minutes":
			sess.DurationMinutes, err = as[int](col, v)
		case "tempo_bpm":
			sess.TempoBPM, err = asPtr[int](col, v)
		case "accuracy_rating":
			sess.AccuracyRating, err = asPtr[int](col, v)
		case "difficulty_rating":
			sess.DifficultyRating, err = asPtr[int](col, v)
		case "notes":
			sess.Notes, err = asPtr[string](col, v)
		}
		if err != nil {
			return err
		}
	}
	if err := r.s.checkRefs(sess.SongID, sess.SectionID); err != nil {
		return err
	}
	sr.val = sess
	r.s.sessions[sessionID] = sr
	return nil
}

func (r sessionRepo) DeleteSession(_ context.Context, userID, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sr, ok := r.s.sessions[sessionID]
	if !ok || sr.val.UserID != userID {
		return errs.ErrNotFound
	}
	delete(r.s.sessions, sessionID)
	return nil
}

// checkRefs enforces the foreign keys of practice_sessions.
func (s *Store) checkRefs(songID, sectionID *string) error {
	if songID != nil {
		if _, ok := s.songs[*songID]; !ok {
			return fmt.Errorf("foreign key violation: song %s does not exist", *songID)
		}
	}
	if sectionID != nil {
		if _, ok := s.sections[*sectionID]; !ok {
			return fmt.Errorf("foreign key violation: section %s does not exist", *sectionID)
		}
	}
	return nil
}

// --- goals ---

type goalRepo struct{ s *Store }

func (r goalRepo) ListGoals(_ context.Context, userID string) ([]model.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]row[model.Goal], 0)
	for _, g := range r.s.goals {
		if g.val.UserID == userID && g.val.Active {
			rows = append(rows, g)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.val.CreatedAt.Equal(b.val.CreatedAt) {
			return a.val.CreatedAt.After(b.val.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]model.Goal, 0, len(rows))
	for _, g := range rows {
		out = append(out, g.val)
	}
	return out, nil
}

func (r goalRepo) GetGoal(_ context.Context, userID, goalID string) (*model.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.goals[goalID]
	if !ok || g.val.UserID != userID || !g.val.Active {
		return nil, errs.ErrNotFound
	}
	v := g.val
	return &v, nil
}

func (r goalRepo) CreateGoal(_ context.Context, goal model.Goal) (*model.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	goal.ID = uuid.NewString()
	goal.CreatedAt = r.s.now()
	r.s.goals[goal.ID] = row[model.Goal]{seq: r.s.next(), val: goal}
	return &goal, nil
}

func (r goalRepo) UpdateGoal(_ context.Context, userID, goalID string, fields map[string]any) error {
	cols, err := repository.SortedColumns(fields, repository.GoalColumns)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.goals[goalID]
	if !ok || g.val.UserID != userID || !g.val.Active {
		return errs.ErrNotFound
	}
	for _, col := range cols {
		v := fields[col]
		switch col {
		case "target_value":
			g.val.TargetValue, err = as[int](col, v)
		case "active":
			g.val.Active, err = as[bool](col, v)
		}
		if err != nil {
			return err
		}
	}
	r.s.goals[goalID] = g
	return nil
}

func (r goalRepo) DeactivateGoals(_ context.Context, userID string, goalType model.GoalType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, g := range r.s.goals {
		if g.val.UserID == userID && g.val.Type == goalType && g.val.Active {
			g.val.Active = false
			r.s.goals[id] = g
		}
	}
	return nil
}

func as[T any](col string, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("column %s: unexpected value %T", col, v)
	}
	return t, nil
}

func asPtr[T any](col string, v any) (*T, error) {
	if v == nil {
		return nil, nil
	}
	t, err := as[T](col, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
