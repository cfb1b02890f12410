package mysql

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"PracticeLog/model"
	"PracticeLog/repository"
)

// SongRow 歌曲表
type SongRow struct {
	ID          string  `gorm:"primaryKey;type:char(36)"`
	UserID      string  `gorm:"size:255;not null;index:idx_songs_user_created,priority:1"`
	Title       string  `gorm:"size:200;not null"`
	Artist      *string `gorm:"size:200"`
	TargetTempo *int
	CreatedAt   time.Time `gorm:"index:idx_songs_user_created,priority:2"`
	UpdatedAt   time.Time
	Sections    []SectionRow `gorm:"foreignKey:SongID;constraint:OnDelete:CASCADE"`
}

func (SongRow) TableName() string { return repository.SongsTable }

func (r *SongRow) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r SongRow) toSong() model.Song {
	s := model.Song{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Artist:      r.Artist,
		TargetTempo: r.TargetTempo,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
		Sections:    make([]model.Section, 0, len(r.Sections)),
	}
	for _, sec := range r.Sections {
		s.Sections = append(s.Sections, sec.toSection())
	}
	return s
}

// SectionRow 段落表，随歌曲级联删除
type SectionRow struct {
	ID          string `gorm:"primaryKey;type:char(36)"`
	SongID      string `gorm:"type:char(36);not null;index"`
	Name        string `gorm:"size:100;not null"`
	OrderIndex  int    `gorm:"not null;default:0"`
	TargetTempo *int
	Notes       *string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (SectionRow) TableName() string { return repository.SectionsTable }

func (r *SectionRow) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r SectionRow) toSection() model.Section {
	return model.Section{
		ID:          r.ID,
		SongID:      r.SongID,
		Name:        r.Name,
		OrderIndex:  r.OrderIndex,
		TargetTempo: r.TargetTempo,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func sectionRowOf(s model.Section) SectionRow {
	return SectionRow{
		SongID:      s.SongID,
		Name:        s.Name,
		OrderIndex:  s.OrderIndex,
		TargetTempo: s.TargetTempo,
		Notes:       s.Notes,
	}
}

// SessionRow 练习记录表；歌曲或段落被删除时引用置空
type SessionRow struct {
	ID               string    `gorm:"primaryKey;type:char(36)"`
	UserID           string    `gorm:"size:255;not null;index:idx_sessions_user_practiced,priority:1"`
	SongID           *string   `gorm:"type:char(36);index"`
	SectionID        *string   `gorm:"type:char(36);index"`
	PracticedAt      time.Time `gorm:"not null;index:idx_sessions_user_practiced,priority:2"`
	DurationMinutes  int       `gorm:"not null"`
	TempoBPM         *int      `gorm:"column:tempo_bpm"`
	AccuracyRating   *int
	DifficultyRating *int
	Notes            *string `gorm:"type:text"`
	CreatedAt        time.Time
	Song             *SongRow    `gorm:"foreignKey:SongID;constraint:OnDelete:SET NULL"`
	Section          *SectionRow `gorm:"foreignKey:SectionID;constraint:OnDelete:SET NULL"`
}

func (SessionRow) TableName() string { return repository.SessionsTable }

func (r *SessionRow) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r SessionRow) toSession() model.Session {
	s := model.Session{
		ID:               r.ID,
		UserID:           r.UserID,
		SongID:           r.SongID,
		SectionID:        r.SectionID,
		PracticedAt:      r.PracticedAt.UTC(),
		DurationMinutes:  r.DurationMinutes,
		TempoBPM:         r.TempoBPM,
		AccuracyRating:   r.AccuracyRating,
		DifficultyRating: r.DifficultyRating,
		Notes:            r.Notes,
		CreatedAt:        r.CreatedAt.UTC(),
	}
	if r.Song != nil {
		s.Song = &model.SongSummary{ID: r.Song.ID, Title: r.Song.Title, Artist: r.Song.Artist}
	}
	if r.Section != nil {
		s.Section = &model.SectionSummary{ID: r.Section.ID, Name: r.Section.Name}
	}
	return s
}

func sessionRowOf(s model.Session) SessionRow {
	return SessionRow{
		UserID:           s.UserID,
		SongID:           s.SongID,
		SectionID:        s.SectionID,
		PracticedAt:      s.PracticedAt.UTC(),
		DurationMinutes:  s.DurationMinutes,
		TempoBPM:         s.TempoBPM,
		AccuracyRating:   s.AccuracyRating,
		DifficultyRating: s.DifficultyRating,
		Notes:            s.Notes,
	}
}

// GoalRow 练习目标表；删除或被替换的目标只置为 inactive
type GoalRow struct {
	ID          string    `gorm:"primaryKey;type:char(36)"`
	UserID      string    `gorm:"size:255;not null;index:idx_goals_user_active,priority:1"`
	Type        string    `gorm:"size:32;not null"`
	TargetValue int       `gorm:"not null"`
	Active      bool      `gorm:"not null;index:idx_goals_user_active,priority:2"`
	CreatedAt   time.Time
}

func (GoalRow) TableName() string { return repository.GoalsTable }

func (r *GoalRow) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r GoalRow) toGoal() model.Goal {
	return model.Goal{
		ID:          r.ID,
		UserID:      r.UserID,
		Type:        model.GoalType(r.Type),
		TargetValue: r.TargetValue,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

// Models lists the tables in dependency order for AutoMigrate.
func Models() []any {
	return []any{&SongRow{}, &SectionRow{}, &SessionRow{}, &GoalRow{}}
}
