package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskbot/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTaskNotFound covers every owner-scoped miss: an id that does not exist,
// an id owned by another user, and (for Complete) a task already completed.
// The cases are deliberately indistinguishable so that existence of other
// users' tasks never leaks.
var ErrTaskNotFound = errors.New("task not found")

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// EnsureSchema creates the tasks table when it is missing. Called once at
// startup; its failure is fatal to the process.
func (r *TaskRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id          BIGSERIAL PRIMARY KEY,
			user_id     BIGINT NOT NULL,
			description TEXT NOT NULL,
			category    TEXT NOT NULL DEFAULT 'general',
			deadline    TEXT,
			completed   BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

// Create inserts t and fills in its store-assigned id and creation time.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO tasks (user_id, description, category, deadline, completed)
		 VALUES ($1, $2, $3, $4, FALSE)
		 RETURNING id, created_at`,
		t.UserID, t.Description, t.Category, t.Deadline,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// ListOpen returns the user's not-yet-completed tasks in insertion order.
// An empty result is a valid outcome, not an error.
func (r *TaskRepository) ListOpen(ctx context.Context, userID int64) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, description, category, deadline, completed, created_at
		 FROM tasks
		 WHERE user_id = $1 AND completed = FALSE
		 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query open tasks: %w", err)
	}
	defer rows.Close()

	var res []*domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Description, &t.Category, &t.Deadline, &t.Completed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		res = append(res, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return res, nil
}

// Delete removes the task iff it exists and belongs to userID. Hard delete,
// no tombstone.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Complete flips completed false→true in one statement. A task that is
// missing, foreign, or already completed reports ErrTaskNotFound alike.
func (r *TaskRepository) Complete(ctx context.Context, userID, taskID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET completed = TRUE
		 WHERE id = $1 AND user_id = $2 AND completed = FALSE`,
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// FindDueSoon returns every open task whose deadline falls in [from, to).
// Deadlines are canonical zoneless strings, so the comparison is lexical.
func (r *TaskRepository) FindDueSoon(ctx context.Context, from, to time.Time) ([]domain.DueTask, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, description
		 FROM tasks
		 WHERE completed = FALSE
		   AND deadline IS NOT NULL
		   AND deadline >= $1
		   AND deadline < $2`,
		domain.CanonicalDeadline(from), domain.CanonicalDeadline(to),
	)
	if err != nil {
		return nil, fmt.Errorf("query due tasks: %w", err)
	}
	defer rows.Close()

	var res []domain.DueTask
	for rows.Next() {
		var t domain.DueTask
		if err := rows.Scan(&t.ID, &t.UserID, &t.Description); err != nil {
			return nil, fmt.Errorf("scan due task: %w", err)
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due tasks: %w", err)
	}
	return res, nil
}
