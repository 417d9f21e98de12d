package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	maintenance "aquarium-cloud/internal/maintenance/domain"
	"aquarium-cloud/internal/notify"
	"aquarium-cloud/internal/observability/metrics"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service handles maintenance task CRUD and completion.
type Service struct {
	tasks maintenance.Repository
	clock Clock
}

// NewService constructs a maintenance service.
func NewService(tasks maintenance.Repository) (*Service, error) {
	if tasks == nil {
		return nil, errors.New("maintenance: nil repository")
	}
	return &Service{tasks: tasks, clock: systemClock{}}, nil
}

// Create registers a task, minting its id.
func (s *Service) Create(ctx context.Context, task *maintenance.Task) error {
	if s == nil {
		return errors.New("maintenance: nil service")
	}
	if task == nil {
		return errors.New("maintenance: nil task")
	}
	if task.ID == "" {
		task.ID = "task-" + uuid.NewString()
	}
	now := s.clock.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if err := task.Validate(); err != nil {
		return err
	}
	return s.tasks.Create(ctx, task)
}

// Get fetches one task.
func (s *Service) Get(ctx context.Context, id string) (*maintenance.Task, error) {
	if s == nil {
		return nil, errors.New("maintenance: nil service")
	}
	if id == "" {
		return nil, errors.New("maintenance: task id required")
	}
	return s.tasks.GetByID(ctx, id)
}

// List returns all tasks.
func (s *Service) List(ctx context.Context) ([]maintenance.Task, error) {
	if s == nil {
		return nil, errors.New("maintenance: nil service")
	}
	return s.tasks.List(ctx)
}

// Update rewrites a task's configuration.
func (s *Service) Update(ctx context.Context, task *maintenance.Task) error {
	if s == nil {
		return errors.New("maintenance: nil service")
	}
	if task == nil {
		return errors.New("maintenance: nil task")
	}
	if err := task.Validate(); err != nil {
		return err
	}
	return s.tasks.Update(ctx, task)
}

// Complete stamps a task as done now and returns the updated record.
func (s *Service) Complete(ctx context.Context, id string) (*maintenance.Task, error) {
	if s == nil {
		return nil, errors.New("maintenance: nil service")
	}
	if id == "" {
		return nil, errors.New("maintenance: task id required")
	}
	doneAt := s.clock.Now().UTC()
	if err := s.tasks.MarkDone(ctx, id, doneAt); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil {
		return errors.New("maintenance: nil service")
	}
	if id == "" {
		return errors.New("maintenance: task id required")
	}
	return s.tasks.Delete(ctx, id)
}

// Checker periodically looks for due tasks and pushes reminders, at
// most one per task per day.
type Checker struct {
	tasks   maintenance.Repository
	channel notify.Channel
	clock   Clock
	logger  interface{ Printf(string, ...any) }

	mu       sync.Mutex
	reminded map[string]time.Time
}

// NewChecker constructs a due-task checker. The channel may be nil, in
// which case only the due gauge is maintained.
func NewChecker(tasks maintenance.Repository, channel notify.Channel, logger interface{ Printf(string, ...any) }) (*Checker, error) {
	if tasks == nil {
		return nil, errors.New("maintenance checker: nil repository")
	}
	return &Checker{
		tasks:    tasks,
		channel:  channel,
		clock:    systemClock{},
		logger:   logger,
		reminded: make(map[string]time.Time),
	}, nil
}

// WithClock overrides the checker clock, for tests.
func (c *Checker) WithClock(clock Clock) *Checker {
	if c != nil && clock != nil {
		c.clock = clock
	}
	return c
}

// Run ticks hourly until the context is cancelled.
func (c *Checker) Run(ctx context.Context) {
	if c == nil {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	c.Check(ctx)
	for {
		select {
		case <-ticker.C:
			c.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Check runs a single due-task sweep.
func (c *Checker) Check(ctx context.Context) {
	if c == nil {
		return
	}
	tasks, err := c.tasks.List(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("maintenance check: list error: %v", err)
		}
		return
	}
	now := c.clock.Now().UTC()
	due := 0
	for _, task := range tasks {
		if !task.DueAt(now) {
			continue
		}
		due++
		if !task.Notify || c.channel == nil {
			continue
		}
		if !c.shouldRemind(task.ID, now) {
			continue
		}
		msg := notify.Message{
			Title: "Aquarium maintenance due: " + task.Title,
			Body:  dueBody(task, now),
		}
		if err := c.channel.Send(ctx, msg); err != nil {
			metrics.IncNotifyFailure()
			if c.logger != nil {
				c.logger.Printf("maintenance check: notify error: %v", err)
			}
			continue
		}
		c.markReminded(task.ID, now)
	}
	metrics.SetMaintenanceDue(due)
}

func (c *Checker) shouldRemind(taskID string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.reminded[taskID]
	if !ok {
		return true
	}
	return now.Sub(last) >= 24*time.Hour
}

func (c *Checker) markReminded(taskID string, now time.Time) {
	c.mu.Lock()
	c.reminded[taskID] = now
	c.mu.Unlock()
}

func dueBody(task maintenance.Task, now time.Time) string {
	if task.LastDoneAt.IsZero() {
		return fmt.Sprintf("%s has never been done (every %d days).", task.Title, task.IntervalDays)
	}
	overdue := int(now.Sub(task.NextDue()).Hours() / 24)
	if overdue > 0 {
		return fmt.Sprintf("%s is %d days overdue (every %d days, last done %s).", task.Title, overdue, task.IntervalDays, task.LastDoneAt.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s is due today (every %d days, last done %s).", task.Title, task.IntervalDays, task.LastDoneAt.Format("2006-01-02"))
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
