package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskbot/internal/domain"
)

// Validation errors: bad user input, rejected before anything is persisted.
var (
	ErrEmptyDescription = errors.New("task description is empty")
	ErrInvalidDeadline  = errors.New("deadline does not match YYYY-MM-DD HH:MM")
)

// DefaultCategory is assigned when the user omits a category.
const DefaultCategory = "general"

// TaskRepository is the store surface the service needs. Satisfied by
// repository.TaskRepository and by in-memory fakes in tests.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) error
	ListOpen(ctx context.Context, userID int64) ([]*domain.Task, error)
	Delete(ctx context.Context, userID, taskID int64) error
	Complete(ctx context.Context, userID, taskID int64) error
	FindDueSoon(ctx context.Context, from, to time.Time) ([]domain.DueTask, error)
}

// TaskService validates input and scopes every operation to the owning user.
// NotFound and storage errors pass through from the repository untouched.
type TaskService struct {
	repo      TaskRepository
	dueWindow time.Duration
}

func NewTaskService(repo TaskRepository, dueWindow time.Duration) *TaskService {
	return &TaskService{repo: repo, dueWindow: dueWindow}
}

// Create validates and persists a new open task. The description must be
// non-empty after trimming; a supplied deadline must parse in the fixed input
// format and is normalized to the canonical stored form. Validation failures
// leave the store untouched.
func (s *TaskService) Create(ctx context.Context, userID int64, description, category, deadline string) (*domain.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}

	var canonical *string
	if deadline = strings.TrimSpace(deadline); deadline != "" {
		parsed, err := time.Parse(domain.DeadlineInputLayout, deadline)
		if err != nil {
			return nil, ErrInvalidDeadline
		}
		c := domain.CanonicalDeadline(parsed)
		canonical = &c
	}

	t := &domain.Task{
		UserID:      userID,
		Description: description,
		Category:    category,
		Deadline:    canonical,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListOpen returns the user's open tasks in insertion order.
func (s *TaskService) ListOpen(ctx context.Context, userID int64) ([]*domain.Task, error) {
	return s.repo.ListOpen(ctx, userID)
}

// Delete removes the task when it exists and belongs to userID.
func (s *TaskService) Delete(ctx context.Context, userID, taskID int64) error {
	return s.repo.Delete(ctx, userID, taskID)
}

// Complete marks an open task as done. Already-completed tasks report
// not-found, exactly like missing or foreign ones.
func (s *TaskService) Complete(ctx context.Context, userID, taskID int64) error {
	return s.repo.Complete(ctx, userID, taskID)
}

// DueSoon returns all open tasks with a deadline inside [now, now+dueWindow).
func (s *TaskService) DueSoon(ctx context.Context, now time.Time) ([]domain.DueTask, error) {
	return s.repo.FindDueSoon(ctx, now, now.Add(s.dueWindow))
}
