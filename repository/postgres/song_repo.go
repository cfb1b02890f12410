package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"PracticeLog/model"
	"PracticeLog/repository"
)

const (
	songColumns    = `id, user_id, title, artist, target_tempo, created_at, updated_at`
	sectionColumns = `id, song_id, name, order_index, target_tempo, notes, created_at`

	qListSongs = `
SELECT ` + songColumns + `
FROM songs WHERE user_id = $1
ORDER BY created_at DESC`

	qGetSong = `
SELECT ` + songColumns + `
FROM songs WHERE id = $1 AND user_id = $2`

	qSectionsOf = `
SELECT ` + sectionColumns + `
FROM song_sections WHERE song_id = ANY($1)
ORDER BY order_index ASC, created_at ASC`

	qInsertSong = `
INSERT INTO songs (user_id, title, artist, target_tempo)
VALUES ($1, $2, $3, $4)
RETURNING ` + songColumns

	qDeleteSong = `DELETE FROM songs WHERE id = $1 AND user_id = $2`

	qInsertSection = `
INSERT INTO song_sections (song_id, name, order_index, target_tempo, notes)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + sectionColumns

	qGetSection = `
SELECT ` + sectionColumns + `
FROM song_sections WHERE id = $1 AND song_id = $2`

	qFindSection = `
SELECT c.id, c.song_id, c.name, c.order_index, c.target_tempo, c.notes, c.created_at
FROM song_sections c JOIN songs s ON s.id = c.song_id
WHERE c.id = $1 AND s.user_id = $2`

	qDeleteSection = `DELETE FROM song_sections WHERE id = $1 AND song_id = $2`
)

// SongRepo implements repository.SongRepository.
type SongRepo struct{ pool PgxPool }

func scanSong(row pgx.Row) (model.Song, error) {
	var s model.Song
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Artist, &s.TargetTempo, &s.CreatedAt, &s.UpdatedAt)
	s.Sections = []model.Section{}
	return s, err
}

func scanSection(row pgx.Row) (model.Section, error) {
	var s model.Section
	err := row.Scan(&s.ID, &s.SongID, &s.Name, &s.OrderIndex, &s.TargetTempo, &s.Notes, &s.CreatedAt)
	return s, err
}

func (r *SongRepo) ListSongs(ctx context.Context, userID string) ([]model.Song, error) {
	rows, err := r.pool.Query(ctx, qListSongs, userID)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]model.Song, 0)
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := r.attachSections(ctx, songs); err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *SongRepo) GetSong(ctx context.Context, userID, songID string) (*model.Song, error) {
	s, err := scanSong(r.pool.QueryRow(ctx, qGetSong, songID, userID))
	if err != nil {
		return nil, noRows(err)
	}
	songs := []model.Song{s}
	if err := r.attachSections(ctx, songs); err != nil {
		return nil, err
	}
	return &songs[0], nil
}

// attachSections loads the sections of songs with one query.
func (r *SongRepo) attachSections(ctx context.Context, songs []model.Song) error {
	if len(songs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(songs))
	index := make(map[string]int, len(songs))
	for i, s := range songs {
		ids = append(ids, s.ID)
		index[s.ID] = i
	}

	rows, err := r.pool.Query(ctx, qSectionsOf, ids)
	if err != nil {
		return fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return fmt.Errorf("scan section: %w", err)
		}
		if i, ok := index[sec.SongID]; ok {
			songs[i].Sections = append(songs[i].Sections, sec)
		}
	}
	return rows.Err()
}

func (r *SongRepo) CreateSong(ctx context.Context, song model.Song) (*model.Song, error) {
	s, err := scanSong(r.pool.QueryRow(ctx, qInsertSong, song.UserID, song.Title, song.Artist, song.TargetTempo))
	if err != nil {
		return nil, fmt.Errorf("insert song: %w", err)
	}
	return &s, nil
}

func (r *SongRepo) UpdateSong(ctx context.Context, userID, songID string, fields map[string]any) error {
	set, args, err := setClause(fields, repository.SongColumns, 1)
	if err != nil {
		return err
	}
	n := len(args)
	q := fmt.Sprintf(`UPDATE songs SET %s WHERE id = $%d AND user_id = $%d`, set, n+1, n+2)
	return rowsAffected(r.pool.Exec(ctx, q, append(args, songID, userID)...))
}

func (r *SongRepo) DeleteSong(ctx context.Context, userID, songID string) error {
	return rowsAffected(r.pool.Exec(ctx, qDeleteSong, songID, userID))
}

// CreateSections inserts all sections in one transaction, in input order.
func (r *SongRepo) CreateSections(ctx context.Context, sections []model.Section) ([]model.Section, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	out := make([]model.Section, 0, len(sections))
	for _, s := range sections {
		sec, err := scanSection(tx.QueryRow(ctx, qInsertSection, s.SongID, s.Name, s.OrderIndex, s.TargetTempo, s.Notes))
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("insert section: %w", err)
		}
		out = append(out, sec)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (r *SongRepo) GetSection(ctx context.Context, songID, sectionID string) (*model.Section, error) {
	sec, err := scanSection(r.pool.QueryRow(ctx, qGetSection, sectionID, songID))
	if err != nil {
		return nil, noRows(err)
	}
	return &sec, nil
}

func (r *SongRepo) FindSection(ctx context.Context, userID, sectionID string) (*model.Section, error) {
	sec, err := scanSection(r.pool.QueryRow(ctx, qFindSection, sectionID, userID))
	if err != nil {
		return nil, noRows(err)
	}
	return &sec, nil
}

func (r *SongRepo) UpdateSection(ctx context.Context, songID, sectionID string, fields map[string]any) (*model.Section, error) {
	set, args, err := setClause(fields, repository.SectionColumns, 1)
	if err != nil {
		return nil, err
	}
	n := len(args)
	q := fmt.Sprintf(`UPDATE song_sections SET %s WHERE id = $%d AND song_id = $%d RETURNING %s`,
		set, n+1, n+2, sectionColumns)
	sec, err := scanSection(r.pool.QueryRow(ctx, q, append(args, sectionID, songID)...))
	if err != nil {
		return nil, noRows(err)
	}
	return &sec, nil
}

func (r *SongRepo) DeleteSection(ctx context.Context, songID, sectionID string) error {
	return rowsAffected(r.pool.Exec(ctx, qDeleteSection, sectionID, songID))
}
