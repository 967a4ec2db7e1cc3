package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/workforce-management-api/internal/constants"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("no open clock-in found")
	ErrTaskNotAssigned  = errors.New("task not found or not assigned to you")
	ErrTaskNotClockable = errors.New("cannot clock in to a completed task")
)

// TimeTrackingService records clock-in/clock-out cycles and completes
// tasks once every assignee has logged enough of them.
type TimeTrackingService struct {
	store *repository.Store
	now   func() time.Time
}

// NewTimeTrackingService creates a new TimeTrackingService
func NewTimeTrackingService(store *repository.Store) *TimeTrackingService {
	return &TimeTrackingService{store: store, now: time.Now}
}

// ClockOutResult reports what a clock-out changed
type ClockOutResult struct {
	Log           *models.TimeLog `json:"log"`
	TaskCompleted bool            `json:"task_completed"`
	Task          *models.Task    `json:"task,omitempty"`
}

// ClockIn opens a time log for the user, optionally against an assigned task.
// A pending task moves to in_progress.
func (s *TimeTrackingService) ClockIn(ctx context.Context, userID uint64, taskID *uint64) (*models.TimeLog, error) {
	now := s.now()
	var log *models.TimeLog

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var task *models.Task
		if taskID != nil {
			var err error
			task, err = tx.Tasks.FindByID(ctx, *taskID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrTaskNotAssigned
				}
				return fmt.Errorf("failed to find task: %w", err)
			}
			if _, err := tx.Tasks.FindAssignment(ctx, task.ID, userID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrTaskNotAssigned
				}
				return fmt.Errorf("failed to find assignment: %w", err)
			}
			if !task.Status.Clockable() {
				return ErrTaskNotClockable
			}
		}

		log = &models.TimeLog{UserID: userID, TaskID: taskID, ClockIn: now}
		if err := tx.TimeLogs.Create(ctx, log); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyClockedIn
			}
			return fmt.Errorf("failed to create time log: %w", err)
		}

		if task != nil && task.Status == models.TaskStatusPending {
			task.SetStatus(models.TaskStatusInProgress, now)
			if err := tx.Tasks.Update(ctx, task); err != nil {
				return fmt.Errorf("failed to start task: %w", err)
			}
		}
		log.Task = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("clocked in", "user_id", userID, "time_log_id", log.ID, "task_id", taskID)
	return log, nil
}

// ClockOut closes the user's open log. When the log belongs to a task and
// every assignee has reached the task's minimum cycles, the task is completed
// and each assignee is awarded points, all in the same transaction.
func (s *TimeTrackingService) ClockOut(ctx context.Context, userID uint64, taskID *uint64) (*ClockOutResult, error) {
	now := s.now()
	result := &ClockOutResult{}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		open, err := tx.TimeLogs.FindOpen(ctx, userID, taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotClockedIn
			}
			return fmt.Errorf("failed to find open time log: %w", err)
		}

		if err := tx.TimeLogs.Close(ctx, open, now); err != nil {
			if errors.Is(err, repository.ErrLogAlreadyClosed) {
				return ErrNotClockedIn
			}
			return fmt.Errorf("failed to close time log: %w", err)
		}
		result.Log = open

		if open.TaskID == nil {
			return nil
		}
		task, completed, err := completeIfDone(ctx, tx, *open.TaskID, now)
		if err != nil {
			return err
		}
		result.Task = task
		result.TaskCompleted = completed
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := logger.From(ctx)
	log.Info("clocked out", "user_id", userID, "time_log_id", result.Log.ID)
	if result.TaskCompleted {
		log.Info("task completed by clock cycles", "task_id", result.Task.ID)
	}
	return result, nil
}

// completeIfDone marks the task completed and pays its assignees once all of
// them have at least MinClockCycles closed logs on it.
func completeIfDone(ctx context.Context, tx *repository.Store, taskID uint64, now time.Time) (*models.Task, bool, error) {
	task, err := tx.Tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find task: %w", err)
	}
	if task.Status == models.TaskStatusCompleted {
		return task, false, nil
	}

	assignees, err := tx.Tasks.AssigneeIDs(ctx, task.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load assignees: %w", err)
	}
	if len(assignees) == 0 {
		return task, false, nil
	}

	cycles, err := tx.TimeLogs.CountClosedCycles(ctx, task.ID, assignees)
	if err != nil {
		return nil, false, fmt.Errorf("failed to count clock cycles: %w", err)
	}
	required := int64(task.MinClockCycles)
	if required < 1 {
		required = 1
	}
	for _, id := range assignees {
		if cycles[id] < required {
			return task, false, nil
		}
	}

	task.SetStatus(models.TaskStatusCompleted, now)
	task.CompletedAt = &now
	if err := tx.Tasks.Update(ctx, task); err != nil {
		return nil, false, fmt.Errorf("failed to complete task: %w", err)
	}

	for _, id := range assignees {
		_, err := award(ctx, tx, AwardInput{
			UserID:      id,
			Points:      constants.TaskCompletionPoints,
			Description: "Completed task: " + task.Title,
			TaskID:      &task.ID,
		})
		if err != nil {
			return nil, false, err
		}
	}
	return task, true, nil
}

// CurrentLog returns the user's open log, or nil when clocked out
func (s *TimeTrackingService) CurrentLog(ctx context.Context, userID uint64) (*models.TimeLog, error) {
	log, err := s.store.TimeLogs.FindOpen(ctx, userID, nil)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open time log: %w", err)
	}
	return log, nil
}

// History lists a user's time logs newest first
func (s *TimeTrackingService) History(ctx context.Context, userID uint64, params utils.PaginationParams) ([]models.TimeLog, int64, error) {
	logs, total, err := s.store.TimeLogs.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list time logs: %w", err)
	}
	return logs, total, nil
}
