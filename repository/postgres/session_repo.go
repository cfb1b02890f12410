package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"PracticeLog/model"
	"PracticeLog/repository"
)

const (
	sessionColumns = `id, user_id, song_id, section_id, practiced_at, duration_minutes, tempo_bpm, accuracy_rating, difficulty_rating, notes, created_at`

	qSelectSessions = `
SELECT p.id, p.user_id, p.song_id, p.section_id, p.practiced_at, p.duration_minutes,
       p.tempo_bpm, p.accuracy_rating, p.difficulty_rating, p.notes, p.created_at,
       s.id, s.title, s.artist, c.id, c.name
FROM practice_sessions p
LEFT JOIN songs s ON s.id = p.song_id
LEFT JOIN song_sections c ON c.id = p.section_id
WHERE p.user_id = $1`

	qGetSession = qSelectSessions + ` AND p.id = $2`

	qInsertSession = `
INSERT INTO practice_sessions (user_id, song_id, section_id, practiced_at, duration_minutes,
                               tempo_bpm, accuracy_rating, difficulty_rating, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + sessionColumns

	qDeleteSession = `DELETE FROM practice_sessions WHERE id = $1 AND user_id = $2`
)

// SessionRepo implements repository.SessionRepository.
type SessionRepo struct{ pool PgxPool }

// scanJoined reads one row of qSelectSessions.
func scanJoined(row pgx.Row) (model.Session, error) {
	var (
		s                    model.Session
		songID, songTitle    *string
		songArtist           *string
		sectionID, sectionNm *string
	)
	err := row.Scan(&s.ID, &s.UserID, &s.SongID, &s.SectionID, &s.PracticedAt, &s.DurationMinutes,
		&s.TempoBPM, &s.AccuracyRating, &s.DifficultyRating, &s.Notes, &s.CreatedAt,
		&songID, &songTitle, &songArtist, &sectionID, &sectionNm)
	if err != nil {
		return s, err
	}
	s.PracticedAt = s.PracticedAt.UTC()
	if songID != nil && songTitle != nil {
		s.Song = &model.SongSummary{ID: *songID, Title: *songTitle, Artist: songArtist}
	}
	if sectionID != nil && sectionNm != nil {
		s.Section = &model.SectionSummary{ID: *sectionID, Name: *sectionNm}
	}
	return s, nil
}

func (r *SessionRepo) ListSessions(ctx context.Context, userID string, f model.SessionFilter) ([]model.Session, error) {
	var sb strings.Builder
	sb.WriteString(qSelectSessions)
	args := []any{userID}
	where := func(cond string, v any) {
		args = append(args, v)
		fmt.Fprintf(&sb, " AND %s $%d", cond, len(args))
	}
	if f.SongID != "" {
		where("p.song_id =", f.SongID)
	}
	if f.SectionID != "" {
		where("p.section_id =", f.SectionID)
	}
	if f.From != nil {
		where("p.practiced_at >=", f.From.UTC())
	}
	if f.To != nil {
		where("p.practiced_at <=", f.To.UTC())
	}
	sb.WriteString(" ORDER BY p.practiced_at DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		fmt.Fprintf(&sb, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := make([]model.Session, 0)
	for rows.Next() {
		s, err := scanJoined(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SessionRepo) GetSession(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	s, err := scanJoined(r.pool.QueryRow(ctx, qGetSession, userID, sessionID))
	if err != nil {
		return nil, noRows(err)
	}
	return &s, nil
}

func (r *SessionRepo) CreateSession(ctx context.Context, in model.Session) (*model.Session, error) {
	var s model.Session
	err := r.pool.QueryRow(ctx, qInsertSession,
		in.UserID, in.SongID, in.SectionID, in.PracticedAt.UTC(), in.DurationMinutes,
		in.TempoBPM, in.AccuracyRating, in.DifficultyRating, in.Notes,
	).Scan(&s.ID, &s.UserID, &s.SongID, &s.SectionID, &s.PracticedAt, &s.DurationMinutes,
		&s.TempoBPM, &s.AccuracyRating, &s.DifficultyRating, &s.Notes, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepo) UpdateSession(ctx context.Context, userID, sessionID string, fields map[string]any) error {
	set, args, err := setClause(fields, repository.SessionColumns, 1)
	if err != nil {
		return err
	}
	n := len(args)
	q := fmt.Sprintf(`UPDATE practice_sessions SET %s WHERE id = $%d AND user_id = $%d`, set, n+1, n+2)
	return rowsAffected(r.pool.Exec(ctx, q, append(args, sessionID, userID)...))
}

func (r *SessionRepo) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return rowsAffected(r.pool.Exec(ctx, qDeleteSession, sessionID, userID))
}
