package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	maintenance "aquarium-cloud/internal/maintenance/domain"
)

// TaskRepository is a Postgres repository for maintenance tasks.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository constructs a repository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, task *maintenance.Task) error {
	if r == nil || r.db == nil {
		return errors.New("task repo: nil db")
	}
	if task == nil {
		return errors.New("task repo: nil task")
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO maintenance_tasks (
	id, title, interval_days, last_done_at, notes, notify, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8
)`,
		task.ID,
		task.Title,
		task.IntervalDays,
		nullableTime(task.LastDoneAt),
		task.Notes,
		task.Notify,
		task.CreatedAt,
		task.UpdatedAt,
	)
	return err
}

// GetByID fetches a task by id.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*maintenance.Task, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("task repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, interval_days, last_done_at, notes, notify, created_at, updated_at
FROM maintenance_tasks
WHERE id = $1`, id)
	return scanTask(row)
}

// List returns all tasks ordered by title.
func (r *TaskRepository) List(ctx context.Context) ([]maintenance.Task, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("task repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, interval_days, last_done_at, notes, notify, created_at, updated_at
FROM maintenance_tasks
ORDER BY title ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []maintenance.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *task)
	}
	return list, rows.Err()
}

// Update rewrites a task.
func (r *TaskRepository) Update(ctx context.Context, task *maintenance.Task) error {
	if r == nil || r.db == nil {
		return errors.New("task repo: nil db")
	}
	if task == nil {
		return errors.New("task repo: nil task")
	}
	if err := task.Validate(); err != nil {
		return err
	}
	task.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE maintenance_tasks
SET title = $1, interval_days = $2, notes = $3, notify = $4, updated_at = $5
WHERE id = $6`,
		task.Title,
		task.IntervalDays,
		task.Notes,
		task.Notify,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return maintenance.ErrNotFound
	}
	return nil
}

// MarkDone stamps a completion time.
func (r *TaskRepository) MarkDone(ctx context.Context, id string, doneAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("task repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE maintenance_tasks
SET last_done_at = $1, updated_at = $1
WHERE id = $2`, doneAt.UTC(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return maintenance.ErrNotFound
	}
	return nil
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("task repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM maintenance_tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return maintenance.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*maintenance.Task, error) {
	var (
		task       maintenance.Task
		lastDoneAt sql.NullTime
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.IntervalDays,
		&lastDoneAt,
		&task.Notes,
		&task.Notify,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, maintenance.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastDoneAt.Valid {
		task.LastDoneAt = lastDoneAt.Time
	}
	return &task, nil
}

func nullableTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value, Valid: true}
}
