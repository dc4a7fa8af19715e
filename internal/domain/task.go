package domain

import "time"

// DeadlineInputLayout is the only deadline format accepted from users.
const DeadlineInputLayout = "2006-01-02 15:04"

// DeadlineLayout is the canonical stored and displayed form. Deadlines are
// zoneless text in this fixed-width layout, so lexical order equals
// chronological order and no timezone conversion ever touches them.
const DeadlineLayout = "2006-01-02 15:04:05"

// Task is the persisted unit of work, owned by a single Telegram user.
type Task struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	Deadline    *string   `db:"deadline"` // canonical form, nil when none was set
	Completed   bool      `db:"completed"`
	CreatedAt   time.Time `db:"created_at"`
}

// DueTask is the slice of a task the reminder scheduler needs.
type DueTask struct {
	ID          int64  `db:"id"`
	UserID      int64  `db:"user_id"`
	Description string `db:"description"`
}

// CanonicalDeadline renders t in the stored deadline form.
func CanonicalDeadline(t time.Time) string {
	return t.Format(DeadlineLayout)
}
