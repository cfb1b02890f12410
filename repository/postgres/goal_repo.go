package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"PracticeLog/model"
	"PracticeLog/repository"
)

const (
	goalColumns = `id, user_id, type, target_value, active, created_at`

	qListGoals = `
SELECT ` + goalColumns + `
FROM goals WHERE user_id = $1 AND active
ORDER BY created_at DESC`

	qGetGoal = `
SELECT ` + goalColumns + `
FROM goals WHERE id = $1 AND user_id = $2 AND active`

	qInsertGoal = `
INSERT INTO goals (user_id, type, target_value, active)
VALUES ($1, $2, $3, $4)
RETURNING ` + goalColumns

	qDeactivateGoals = `UPDATE goals SET active = FALSE WHERE user_id = $1 AND type = $2 AND active`
)

// GoalRepo implements repository.GoalRepository.
type GoalRepo struct{ pool PgxPool }

func scanGoal(row pgx.Row) (model.Goal, error) {
	var (
		g        model.Goal
		goalType string
	)
	if err := row.Scan(&g.ID, &g.UserID, &goalType, &g.TargetValue, &g.Active, &g.CreatedAt); err != nil {
		return g, err
	}
	g.Type = model.GoalType(goalType)
	return g, nil
}

func (r *GoalRepo) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	rows, err := r.pool.Query(ctx, qListGoals, userID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	out := make([]model.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GoalRepo) GetGoal(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	g, err := scanGoal(r.pool.QueryRow(ctx, qGetGoal, goalID, userID))
	if err != nil {
		return nil, noRows(err)
	}
	return &g, nil
}

func (r *GoalRepo) CreateGoal(ctx context.Context, in model.Goal) (*model.Goal, error) {
	g, err := scanGoal(r.pool.QueryRow(ctx, qInsertGoal, in.UserID, string(in.Type), in.TargetValue, in.Active))
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	return &g, nil
}

func (r *GoalRepo) UpdateGoal(ctx context.Context, userID, goalID string, fields map[string]any) error {
	set, args, err := setClause(fields, repository.GoalColumns, 1)
	if err != nil {
		return err
	}
	n := len(args)
	q := fmt.Sprintf(`UPDATE goals SET %s WHERE id = $%d AND user_id = $%d AND active`, set, n+1, n+2)
	return rowsAffected(r.pool.Exec(ctx, q, append(args, goalID, userID)...))
}

func (r *GoalRepo) DeactivateGoals(ctx context.Context, userID string, goalType model.GoalType) error {
	if _, err := r.pool.Exec(ctx, qDeactivateGoals, userID, string(goalType)); err != nil {
		return fmt.Errorf("deactivate goals: %w", err)
	}
	return nil
}
