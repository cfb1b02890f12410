// Package mysql implements the repository interfaces with gorm on MySQL.
// The schema is created by AutoMigrate from the row models in rows.go.
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"PracticeLog/core/errs"
	"PracticeLog/model"
	"PracticeLog/repository"
)

// Store implements repository.Store.
type Store struct {
	db *gorm.DB
}

// NewStore wraps db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// NewFactory returns a factory whose stores share db.
func NewFactory(db *gorm.DB) repository.Factory {
	return repository.FactoryFunc(func(context.Context) (repository.Store, error) {
		return NewStore(db), nil
	})
}

func (s *Store) Songs() repository.SongRepository       { return &gormSongRepository{db: s.db} }
func (s *Store) Sessions() repository.SessionRepository { return &gormSessionRepository{db: s.db} }
func (s *Store) Goals() repository.GoalRepository       { return &gormGoalRepository{db: s.db} }

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return err
}

func affected(tx *gorm.DB) error {
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func orderedSections(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC, created_at ASC")
}

// ========== 歌曲 ==========

type gormSongRepository struct {
	db *gorm.DB
}

func (r *gormSongRepository) ListSongs(ctx context.Context, userID string) ([]model.Song, error) {
	var rows []SongRow
	err := r.db.WithContext(ctx).
		Preload("Sections", orderedSections).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	songs := make([]model.Song, 0, len(rows))
	for _, row := range rows {
		songs = append(songs, row.toSong())
	}
	return songs, nil
}

func (r *gormSongRepository) GetSong(ctx context.Context, userID, songID string) (*model.Song, error) {
	var row SongRow
	err := r.db.WithContext(ctx).
		Preload("Sections", orderedSections).
		Where("id = ? AND user_id = ?", songID, userID).
		Take(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	song := row.toSong()
	return &song, nil
}

func (r *gormSongRepository) CreateSong(ctx context.Context, song model.Song) (*model.Song, error) {
	row := SongRow{
		UserID:      song.UserID,
		Title:       song.Title,
		Artist:      song.Artist,
		TargetTempo: song.TargetTempo,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	created := row.toSong()
	return &created, nil
}

func (r *gormSongRepository) UpdateSong(ctx context.Context, userID, songID string, fields map[string]any) error {
	if _, err := repository.SortedColumns(fields, repository.SongColumns); err != nil {
		return err
	}
	return affected(r.db.WithContext(ctx).
		Model(&SongRow{}).
		Where("id = ? AND user_id = ?", songID, userID).
		Updates(fields))
}

func (r *gormSongRepository) DeleteSong(ctx context.Context, userID, songID string) error {
	return affected(r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", songID, userID).
		Delete(&SongRow{}))
}

// ========== 段落 ==========

func (r *gormSongRepository) CreateSections(ctx context.Context, sections []model.Section) ([]model.Section, error) {
	if len(sections) == 0 {
		return []model.Section{}, nil
	}
	rows := make([]SectionRow, 0, len(sections))
	for _, s := range sections {
		rows = append(rows, sectionRowOf(s))
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Section, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toSection())
	}
	return out, nil
}

func (r *gormSongRepository) GetSection(ctx context.Context, songID, sectionID string) (*model.Section, error) {
	var row SectionRow
	err := r.db.WithContext(ctx).
		Where("id = ? AND song_id = ?", sectionID, songID).
		Take(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	sec := row.toSection()
	return &sec, nil
}

func (r *gormSongRepository) FindSection(ctx context.Context, userID, sectionID string) (*model.Section, error) {
	var row SectionRow
	err := r.db.WithContext(ctx).
		Joins("JOIN songs ON songs.id = song_sections.song_id").
		Where("song_sections.id = ? AND songs.user_id = ?", sectionID, userID).
		Take(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	sec := row.toSection()
	return &sec, nil
}

// UpdateSection 更新后重新读取，MySQL 没有 RETURNING
func (r *gormSongRepository) UpdateSection(ctx context.Context, songID, sectionID string, fields map[string]any) (*model.Section, error) {
	if _, err := repository.SortedColumns(fields, repository.SectionColumns); err != nil {
		return nil, err
	}
	err := affected(r.db.WithContext(ctx).
		Model(&SectionRow{}).
		Where("id = ? AND song_id = ?", sectionID, songID).
		Updates(fields))
	if err != nil {
		return nil, err
	}
	return r.GetSection(ctx, songID, sectionID)
}

func (r *gormSongRepository) DeleteSection(ctx context.Context, songID, sectionID string) error {
	return affected(r.db.WithContext(ctx).
		Where("id = ? AND song_id = ?", sectionID, songID).
		Delete(&SectionRow{}))
}

// ========== 练习记录 ==========

type gormSessionRepository struct {
	db *gorm.DB
}

func (r *gormSessionRepository) withSummaries(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Song").Preload("Section")
}

func (r *gormSessionRepository) ListSessions(ctx context.Context, userID string, f model.SessionFilter) ([]model.Session, error) {
	q := r.withSummaries(ctx).Where("user_id = ?", userID)
	if f.SongID != "" {
		q = q.Where("song_id = ?", f.SongID)
	}
	if f.SectionID != "" {
		q = q.Where("section_id = ?", f.SectionID)
	}
	if f.From != nil {
		q = q.Where("practiced_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("practiced_at <= ?", f.To.UTC())
	}
	q = q.Order("practiced_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var rows []SessionRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toSession())
	}
	return out, nil
}

func (r *gormSessionRepository) GetSession(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	var row SessionRow
	err := r.withSummaries(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Take(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	s := row.toSession()
	return &s, nil
}

func (r *gormSessionRepository) CreateSession(ctx context.Context, s model.Session) (*model.Session, error) {
	row := sessionRowOf(s)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	created := row.toSession()
	return &created, nil
}

func (r *gormSessionRepository) UpdateSession(ctx context.Context, userID, sessionID string, fields map[string]any) error {
	if _, err := repository.SortedColumns(fields, repository.SessionColumns); err != nil {
		return err
	}
	return affected(r.db.WithContext(ctx).
		Model(&SessionRow{}).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Updates(fields))
}

func (r *gormSessionRepository) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return affected(r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Delete(&SessionRow{}))
}

// ========== 目标 ==========

type gormGoalRepository struct {
	db *gorm.DB
}

func (r *gormGoalRepository) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	var rows []GoalRow
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Goal, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toGoal())
	}
	return out, nil
}

func (r *gormGoalRepository) GetGoal(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	var row GoalRow
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND active = ?", goalID, userID, true).
		Take(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	g := row.toGoal()
	return &g, nil
}

func (r *gormGoalRepository) CreateGoal(ctx context.Context, g model.Goal) (*model.Goal, error) {
	row := GoalRow{
		UserID:      g.UserID,
		Type:        string(g.Type),
		TargetValue: g.TargetValue,
		Active:      g.Active,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	created := row.toGoal()
	return &created, nil
}

func (r *gormGoalRepository) UpdateGoal(ctx context.Context, userID, goalID string, fields map[string]any) error {
	if _, err := repository.SortedColumns(fields, repository.GoalColumns); err != nil {
		return err
	}
	return affected(r.db.WithContext(ctx).
		Model(&GoalRow{}).
		Where("id = ? AND user_id = ? AND active = ?", goalID, userID, true).
		Updates(fields))
}

func (r *gormGoalRepository) DeactivateGoals(ctx context.Context, userID string, goalType model.GoalType) error {
	return r.db.WithContext(ctx).
		Model(&GoalRow{}).
		Where("user_id = ? AND type = ? AND active = ?", userID, string(goalType), true).
		Update("active", false).Error
}
