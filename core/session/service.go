package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PracticeLog/core/errs"
	"PracticeLog/model"
	"PracticeLog/repository"
)

// Service 练习记录的业务逻辑
type Service struct {
	stores repository.Factory
	now    func() time.Time
}

// NewService creates a Service that opens one store handle per call.
func NewService(stores repository.Factory) *Service {
	return &Service{stores: stores, now: time.Now}
}

// WithClock replaces the clock used for the practiced_at default.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List returns the caller's sessions matching filter, latest first.
// A zero Limit selects model.DefaultSessionLimit.
func (s *Service) List(ctx context.Context, userID string, filter model.SessionFilter) ([]model.Session, error) {
	if err := checkFilter(&filter); err != nil {
		return nil, err
	}
	store, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := store.Sessions().ListSessions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return sessions, nil
}

func checkFilter(f *model.SessionFilter) error {
	v := &errs.ValidationError{}
	if f.Limit == 0 {
		f.Limit = model.DefaultSessionLimit
	}
	if f.Limit < 1 || f.Limit > model.MaxSessionLimit {
		v.Add("limit", fmt.Sprintf("must be between 1 and %d", model.MaxSessionLimit))
	}
	if f.Offset < 0 {
		v.Add("offset", "must be greater than or equal to 0")
	}
	return v.OrNil()
}

// Get returns one session with its song and section summaries.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	store, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	return getSession(ctx, store, userID, sessionID)
}

func getSession(ctx context.Context, store repository.Store, userID, sessionID string) (*model.Session, error) {
	sess, err := store.Sessions().GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, wrap("get session", err)
	}
	return sess, nil
}

// Create logs a session. practiced_at defaults to the service clock.
func (s *Service) Create(ctx context.Context, userID string, in model.SessionCreate) (*model.Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	store, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	row := in.ToSession(userID, s.now())
	if err := checkRefs(ctx, store, userID, row.SongID, row.SectionID); err != nil {
		return nil, err
	}
	created, err := store.Sessions().CreateSession(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	// 重新查询以带上 song / section 摘要
	return getSession(ctx, store, userID, created.ID)
}

// Update writes the fields present in the body. An empty body reads the session back unchanged.
func (s *Service) Update(ctx context.Context, userID, sessionID string, in model.SessionUpdate) (*model.Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	store, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	fields := in.Fields()
	if len(fields) == 0 {
		return getSession(ctx, store, userID, sessionID)
	}
	if err := checkRefs(ctx, store, userID, stringField(fields, "song_id"), stringField(fields, "section_id")); err != nil {
		return nil, err
	}
	if err := store.Sessions().UpdateSession(ctx, userID, sessionID, fields); err != nil {
		return nil, wrap("update session", err)
	}
	return getSession(ctx, store, userID, sessionID)
}

// Delete removes one session.
func (s *Service) Delete(ctx context.Context, userID, sessionID string) error {
	store, err := s.open(ctx)
	if err != nil {
		return err
	}
	if err := store.Sessions().DeleteSession(ctx, userID, sessionID); err != nil {
		return wrap("delete session", err)
	}
	return nil
}

// checkRefs makes sure a session only points at the caller's own songs and sections,
// and that a section belongs to the song named alongside it.
func checkRefs(ctx context.Context, store repository.Store, userID string, songID, sectionID *string) error {
	songs := store.Songs()
	if songID != nil {
		if _, err := songs.GetSong(ctx, userID, *songID); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errs.Invalid("song_id", "song not found")
			}
			return fmt.Errorf("check song reference: %w", err)
		}
	}
	if sectionID != nil {
		sec, err := songs.FindSection(ctx, userID, *sectionID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errs.Invalid("section_id", "section not found")
			}
			return fmt.Errorf("check section reference: %w", err)
		}
		if songID != nil && sec.SongID != *songID {
			return errs.Invalid("section_id", "section does not belong to song_id")
		}
	}
	return nil
}

func stringField(fields map[string]any, col string) *string {
	if s, ok := fields[col].(string); ok {
		return &s
	}
	return nil
}

func (s *Service) open(ctx context.Context) (repository.Store, error) {
	store, err := s.stores.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

func wrap(op string, err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return errs.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
