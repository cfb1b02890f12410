package song

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PracticeLog/core/errs"
	"PracticeLog/model"
	"PracticeLog/repository"
)

// Service 歌曲与段落的业务逻辑，所有操作都按 userID 隔离
type Service struct {
	stores repository.Factory
	now    func() time.Time
}

// NewService creates a Service that opens one store handle per call.
func NewService(stores repository.Factory) *Service {
	return &Service{stores: stores, now: time.Now}
}

// WithClock replaces the clock used for updated_at.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) songs(ctx context.Context) (repository.SongRepository, error) {
	store, err := s.stores.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store.Songs(), nil
}

// List returns the caller's songs with their sections, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]model.Song, error) {
	repo, err := s.songs(ctx)
	if err != nil {
		return nil, err
	}
	songs, err := repo.ListSongs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	if songs == nil {
		songs = []model.Song{}
	}
	return songs, nil
}

// Get returns one song. errs.ErrNotFound covers both absent and foreign songs.
func (s *Service) Get(ctx context.Context, userID, songID string) (*model.Song, error) {
	repo, err := s.songs(ctx)
	if err != nil {
		return nil, err
	}
	return getSong(ctx, repo, userID, songID)
}

func getSong(ctx context.Context, repo repository.SongRepository, userID, songID string) (*model.Song, error) {
	song, err := repo.GetSong(ctx, userID, songID)
	if err != nil {
		return nil, wrap("get song", err)
	}
	return song, nil
}

// Create inserts the song and then its sections in submitted order.
func (s *Service) Create(ctx context.Context, userID string, in model.SongCreate) (*model.Song, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	repo, err := s.songs(ctx)
	if err != nil {
		return nil, err
	}

	created, err := repo.CreateSong(ctx, in.ToSong(userID))
	if err != nil {
		return nil, fmt.Errorf("create song: %w", err)
	}
	created.Sections = []model.Section{}
	if len(in.Sections) == 0 {
		return created, nil
	}

	rows := make([]model.Section, 0, len(in.Sections))
	for _, sec := range in.Sections {
		rows = append(rows, sec.ToSection(created.ID))
	}
	sections, err := repo.CreateSections(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("create sections of song %s: %w", created.ID, err)
	}
	created.Sections = sections
	return created, nil
}

// Update writes the fields present in the body. An empty body reads the song back unchanged.
func (s *Service) Update(ctx context.Context, userID, songID string, in model.SongUpdate) (*model.Song, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	repo, err := s.songs(ctx)
	if err != nil {
		return nil, err
	}

	fields := in.Fields()
	if len(fields) == 0 {
		return getSong(ctx, repo, userID, songID)
	}
	fields["updated_at"] = s.now().UTC()
	if err := repo.UpdateSong(ctx, userID, songID, fields); err != nil {
		return nil, wrap("update song", err)
	}
	return getSong(ctx, repo, userID, songID)
}

// Delete removes the song and, through the store, its sections.
func (s *Service) Delete(ctx context.Context, userID, songID string) error {
	repo, err := s.songs(ctx)
	if err != nil {
		return err
	}
	if err := repo.DeleteSong(ctx, userID, songID); err != nil {
		return wrap("delete song", err)
	}
	return nil
}

// CreateSection appends a section to one of the caller's songs.
func (s *Service) CreateSection(ctx context.Context, userID, songID string, in model.SectionCreate) (*model.Section, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	repo, err := s.owned(ctx, userID, songID)
	if err != nil {
		return nil, err
	}
	created, err := repo.CreateSections(ctx, []model.Section{in.ToSection(songID)})
	if err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}
	if len(created) != 1 {
		return nil, fmt.Errorf("create section: store returned %d rows", len(created))
	}
	return &created[0], nil
}

// UpdateSection writes the fields present in the body to a section of the caller's song.
func (s *Service) UpdateSection(ctx context.Context, userID, songID, sectionID string, in model.SectionUpdate) (*model.Section, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	repo, err := s.owned(ctx, userID, songID)
	if err != nil {
		return nil, err
	}

	fields := in.Fields()
	if len(fields) == 0 {
		sec, err := repo.GetSection(ctx, songID, sectionID)
		if err != nil {
			return nil, wrap("get section", err)
		}
		return sec, nil
	}
	sec, err := repo.UpdateSection(ctx, songID, sectionID, fields)
	if err != nil {
		return nil, wrap("update section", err)
	}
	return sec, nil
}

// DeleteSection removes a section of the caller's song.
func (s *Service) DeleteSection(ctx context.Context, userID, songID, sectionID string) error {
	repo, err := s.owned(ctx, userID, songID)
	if err != nil {
		return err
	}
	if err := repo.DeleteSection(ctx, songID, sectionID); err != nil {
		return wrap("delete section", err)
	}
	return nil
}

// owned 先确认歌曲属于当前用户，再允许操作段落
func (s *Service) owned(ctx context.Context, userID, songID string) (repository.SongRepository, error) {
	repo, err := s.songs(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := getSong(ctx, repo, userID, songID); err != nil {
		return nil, err
	}
	return repo, nil
}

// wrap keeps ErrNotFound bare so callers can compare it directly.
func wrap(op string, err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return errs.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
