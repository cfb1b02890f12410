// Package goal manages practice goals. A user has at most one active goal per type;
// creating a goal retires the previous one of the same type and deleting only deactivates.
package goal

import (
	"context"
	"errors"
	"fmt"

	"PracticeLog/core/errs"
	"PracticeLog/logger"
	"PracticeLog/model"
	"PracticeLog/repository"
)

// Service 练习目标的业务逻辑
type Service struct {
	stores repository.Factory
}

// NewService creates a Service that opens one store handle per call.
func NewService(stores repository.Factory) *Service {
	return &Service{stores: stores}
}

func (s *Service) goals(ctx context.Context) (repository.GoalRepository, error) {
	store, err := s.stores.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store.Goals(), nil
}

// List returns the caller's active goals, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]model.Goal, error) {
	repo, err := s.goals(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := repo.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	return goals, nil
}

// Create stores a new active goal and deactivates the caller's previous goal of that type.
func (s *Service) Create(ctx context.Context, userID string, in model.GoalCreate) (*model.Goal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	repo, err := s.goals(ctx)
	if err != nil {
		return nil, err
	}

	row := in.ToGoal(userID)
	if err := repo.DeactivateGoals(ctx, userID, row.Type); err != nil {
		return nil, fmt.Errorf("deactivate goals: %w", err)
	}
	created, err := repo.CreateGoal(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	logger.Debug("[Goal] created",
		logger.String("goal_id", created.ID),
		logger.String("type", string(created.Type)))
	return created, nil
}

// Update changes the target of an active goal. An empty body reads the goal back unchanged.
func (s *Service) Update(ctx context.Context, userID, goalID string, in model.GoalUpdate) (*model.Goal, error) {
	repo, err := s.goals(ctx)
	if err != nil {
		return nil, err
	}
	current, err := repo.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, wrap("get goal", err)
	}
	if err := in.Validate(current.Type); err != nil {
		return nil, err
	}

	fields := in.Fields()
	if len(fields) == 0 {
		return current, nil
	}
	if err := repo.UpdateGoal(ctx, userID, goalID, fields); err != nil {
		return nil, wrap("update goal", err)
	}
	updated, err := repo.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, wrap("get goal", err)
	}
	return updated, nil
}

// Delete deactivates the goal; the row is kept.
func (s *Service) Delete(ctx context.Context, userID, goalID string) error {
	repo, err := s.goals(ctx)
	if err != nil {
		return err
	}
	if err := repo.UpdateGoal(ctx, userID, goalID, map[string]any{"active": false}); err != nil {
		return wrap("deactivate goal", err)
	}
	return nil
}

func wrap(op string, err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return errs.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
