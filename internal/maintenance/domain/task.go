package maintenance

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a missing maintenance task.
var ErrNotFound = errors.New("maintenance: not found")

// Task is a recurring maintenance chore, e.g. a water change or filter
// clean.
type Task struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	IntervalDays int       `json:"interval_days"`
	LastDoneAt   time.Time `json:"last_done_at,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Notify       bool      `json:"notify"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks task invariants.
func (t Task) Validate() error {
	if t.ID == "" {
		return errors.New("maintenance: empty id")
	}
	if t.Title == "" {
		return errors.New("maintenance: empty title")
	}
	if t.IntervalDays < 1 {
		return errors.New("maintenance: interval must be at least one day")
	}
	return nil
}

// NextDue returns when the task is next due. A task never completed is
// due immediately.
func (t Task) NextDue() time.Time {
	if t.LastDoneAt.IsZero() {
		return t.CreatedAt
	}
	return t.LastDoneAt.AddDate(0, 0, t.IntervalDays)
}

// DueAt reports whether the task is due at the given time.
func (t Task) DueAt(now time.Time) bool {
	return !t.NextDue().After(now)
}

// Repository persists maintenance tasks.
type Repository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context) ([]Task, error)
	Update(ctx context.Context, task *Task) error
	MarkDone(ctx context.Context, id string, doneAt time.Time) error
	Delete(ctx context.Context, id string) error
}
