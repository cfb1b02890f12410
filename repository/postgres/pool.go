// Package postgres implements the repository interfaces directly on PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"PracticeLog/core/errs"
	"PracticeLog/repository"
)

// PgxPool is the subset of *pgxpool.Pool used by the repositories.
// pgxmock.PgxPoolIface satisfies it as well.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Store implements repository.Store over a shared pool.
type Store struct {
	pool PgxPool
}

// NewStore wraps pool.
func NewStore(pool PgxPool) *Store {
	return &Store{pool: pool}
}

// NewFactory returns a factory whose stores share pool.
func NewFactory(pool PgxPool) repository.Factory {
	return repository.FactoryFunc(func(context.Context) (repository.Store, error) {
		return NewStore(pool), nil
	})
}

func (s *Store) Songs() repository.SongRepository       { return &SongRepo{pool: s.pool} }
func (s *Store) Sessions() repository.SessionRepository { return &SessionRepo{pool: s.pool} }
func (s *Store) Goals() repository.GoalRepository       { return &GoalRepo{pool: s.pool} }

// noRows maps pgx.ErrNoRows onto errs.ErrNotFound.
func noRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

// rowsAffected turns a zero-row command into errs.ErrNotFound.
func rowsAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// setClause renders "a = $n, b = $n+1" for the allowed columns of fields, in lexical order,
// and returns the matching arguments.
func setClause(fields map[string]any, allowed []string, first int) (string, []any, error) {
	cols, err := repository.SortedColumns(fields, allowed)
	if err != nil {
		return "", nil, err
	}
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("no columns to update")
	}
	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		parts = append(parts, fmt.Sprintf("%s = $%d", col, first+i))
		args = append(args, fields[col])
	}
	return strings.Join(parts, ", "), args, nil
}
