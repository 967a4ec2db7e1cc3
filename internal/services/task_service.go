package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/workforce-management-api/internal/constants"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrTitleRequired         = errors.New("title is required")
	ErrTitleEmpty            = errors.New("title cannot be empty")
	ErrInvalidTaskStatus     = errors.New("task status must be one of pending, in_progress, completed")
	ErrInvalidMinClockCycles = errors.New("min clock cycles must be at least 1")
	ErrNoUserIDsProvided     = errors.New("at least one user is required")
	ErrTaskPermissionDenied  = errors.New("only a manager or an assignee can perform this action")
	ErrTaskAlreadyCompleted  = errors.New("task is already completed")
)

// taskPreloads are loaded whenever a single task is returned to a client
var taskPreloads = []string{"Project", "AssignedBy", "CompletedBy", "Assignments.User"}

// TaskService handles task business logic
type TaskService struct {
	store *repository.Store
	now   func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(store *repository.Store) *TaskService {
	return &TaskService{store: store, now: time.Now}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status     *models.TaskStatus
	ProjectID  *uint64
	Pagination utils.PaginationParams
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title               string
	Description         string
	ProjectID           *uint64
	Shift               string
	EstimatedCompletion *time.Time
	MinClockCycles      int
	AssigneeIDs         []uint64
	AssigneeUsernames   []string
	AssignedByID        uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title                    *string
	Description              *string
	Status                   *models.TaskStatus
	ProjectID                *uint64
	ClearProject             bool
	Shift                    *string
	EstimatedCompletion      *time.Time
	ClearEstimatedCompletion bool
	MinClockCycles           *int
}

// AssigneeProgress is one assignee's clock cycle count on a task
type AssigneeProgress struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
	Cycles   int64  `json:"cycles"`
	Done     bool   `json:"done"`
}

// TaskProgress summarizes how close a task is to completing through clock cycles
type TaskProgress struct {
	TaskID          uint64             `json:"task_id"`
	Status          models.TaskStatus  `json:"status"`
	MinClockCycles  int                `json:"min_clock_cycles"`
	Assignees       []AssigneeProgress `json:"assignees"`
	ViewerClockedIn bool               `json:"viewer_clocked_in"`
}

// ListTasks returns tasks a manager assigned, or tasks assigned to a worker
func (s *TaskService) ListTasks(ctx context.Context, viewer *models.User, input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, ErrInvalidTaskStatus
	}

	filter := repository.TaskFilter{
		Status:     input.Status,
		ProjectID:  input.ProjectID,
		Pagination: input.Pagination,
	}
	if viewer.IsManager() {
		filter.AssignedByID = &viewer.ID
	} else {
		filter.AssignedUserID = &viewer.ID
	}

	tasks, total, err := s.store.Tasks.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(ctx context.Context, taskID uint64) (*models.Task, error) {
	return findTask(ctx, s.store, taskID, taskPreloads...)
}

// CanAccess reports whether the user may view and clock against the task
func (s *TaskService) CanAccess(user *models.User, task *models.Task) bool {
	return user.IsManager() || task.IsAssigned(user.ID)
}

// CreateTask creates a new task and assigns the requested workers
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.MinClockCycles == 0 {
		input.MinClockCycles = constants.DefaultMinClockCycles
	}
	if input.MinClockCycles < 1 {
		return nil, ErrInvalidMinClockCycles
	}

	var taskID uint64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if input.ProjectID != nil {
			if _, err := tx.Projects.FindByID(ctx, *input.ProjectID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProjectNotFound
				}
				return fmt.Errorf("failed to find project: %w", err)
			}
		}

		assignees, err := resolveUsers(ctx, tx.Users, input.AssigneeIDs, input.AssigneeUsernames)
		if err != nil {
			return err
		}

		task := &models.Task{
			Title:               title,
			Description:         input.Description,
			ProjectID:           input.ProjectID,
			Status:              models.TaskStatusPending,
			Shift:               input.Shift,
			EstimatedCompletion: input.EstimatedCompletion,
			MinClockCycles:      input.MinClockCycles,
			AssignedByID:        input.AssignedByID,
			StatusChangedAt:     s.now(),
		}
		if err := tx.Tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		ids := make([]uint64, len(assignees))
		for i, u := range assignees {
			ids[i] = u.ID
		}
		if err := tx.Tasks.AssignUsers(ctx, task.ID, ids); err != nil {
			return fmt.Errorf("failed to assign users: %w", err)
		}

		taskID = task.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("task created", "task_id", taskID, "assigned_by", input.AssignedByID)
	return s.GetTask(ctx, taskID)
}

// UpdateTask updates an existing task. Any valid status may be written;
// StatusChangedAt follows every actual change.
func (s *TaskService) UpdateTask(ctx context.Context, actorID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	var completed bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err := findTask(ctx, tx, taskID)
		if err != nil {
			return err
		}

		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return ErrTitleEmpty
			}
			task.Title = title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.Shift != nil {
			task.Shift = *input.Shift
		}
		if input.ClearEstimatedCompletion {
			task.EstimatedCompletion = nil
		} else if input.EstimatedCompletion != nil {
			task.EstimatedCompletion = input.EstimatedCompletion
		}
		lowered := false
		if input.MinClockCycles != nil {
			if *input.MinClockCycles < 1 {
				return ErrInvalidMinClockCycles
			}
			lowered = *input.MinClockCycles < task.MinClockCycles
			task.MinClockCycles = *input.MinClockCycles
		}
		if input.ClearProject {
			task.ProjectID = nil
		} else if input.ProjectID != nil {
			if _, err := tx.Projects.FindByID(ctx, *input.ProjectID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProjectNotFound
				}
				return fmt.Errorf("failed to find project: %w", err)
			}
			task.ProjectID = input.ProjectID
		}
		if input.Status != nil {
			if !input.Status.Valid() {
				return ErrInvalidTaskStatus
			}
			now := s.now()
			if task.SetStatus(*input.Status, now) {
				if task.Status == models.TaskStatusCompleted {
					task.CompletedAt = &now
					task.CompletedByID = &actorID
				} else {
					task.CompletedAt = nil
					task.CompletedByID = nil
				}
			}
		}

		if err := tx.Tasks.Update(ctx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		// an explicit status write wins over the cycle check
		if lowered && input.Status == nil {
			_, completed, err = completeIfDone(ctx, tx, taskID, s.now())
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if completed {
		logger.From(ctx).Info("task completed by clock cycles", "task_id", taskID)
	}

	return s.GetTask(ctx, taskID)
}

// DeleteTask soft deletes a task and its assignments
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint64) error {
	if _, err := findTask(ctx, s.store, taskID); err != nil {
		return err
	}

	if err := s.store.Tasks.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// AssignUsers assigns users, by ID or username, to a task
func (s *TaskService) AssignUsers(ctx context.Context, taskID uint64, userIDs []uint64, usernames []string) (*models.Task, error) {
	if len(userIDs) == 0 && len(usernames) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := findTask(ctx, tx, taskID); err != nil {
			return err
		}

		users, err := resolveUsers(ctx, tx.Users, userIDs, usernames)
		if err != nil {
			return err
		}
		ids := make([]uint64, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}

		if err := tx.Tasks.AssignUsers(ctx, taskID, ids); err != nil {
			return fmt.Errorf("failed to assign users: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetTask(ctx, taskID)
}

// UnassignUsers removes user assignments from a task
func (s *TaskService) UnassignUsers(ctx context.Context, taskID uint64, userIDs []uint64) (*models.Task, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	var completed bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := findTask(ctx, tx, taskID); err != nil {
			return err
		}

		if err := tx.Tasks.UnassignUsers(ctx, taskID, utils.UniqueUint64(userIDs)); err != nil {
			return fmt.Errorf("failed to unassign users: %w", err)
		}

		// the remaining assignees may all have met the threshold already
		var err error
		_, completed, err = completeIfDone(ctx, tx, taskID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	if completed {
		logger.From(ctx).Info("task completed by clock cycles", "task_id", taskID)
	}

	return s.GetTask(ctx, taskID)
}

// CompleteTask forces a task to completed on behalf of a manager or an assignee.
// No points are awarded on this path.
func (s *TaskService) CompleteTask(ctx context.Context, actor *models.User, taskID uint64) (*models.Task, error) {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err := findTask(ctx, tx, taskID, "Assignments")
		if err != nil {
			return err
		}
		if !s.CanAccess(actor, task) {
			return ErrTaskPermissionDenied
		}
		if task.Status == models.TaskStatusCompleted {
			return ErrTaskAlreadyCompleted
		}

		now := s.now()
		task.SetStatus(models.TaskStatusCompleted, now)
		task.CompletedAt = &now
		task.CompletedByID = &actor.ID

		if err := tx.Tasks.Update(ctx, task); err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("task completed manually", "task_id", taskID, "completed_by", actor.ID)
	return s.GetTask(ctx, taskID)
}

// TaskStatus reports the status and per-assignee clock cycle counts of a task
func (s *TaskService) TaskStatus(ctx context.Context, viewerID uint64, taskID uint64) (*TaskProgress, error) {
	task, err := findTask(ctx, s.store, taskID, "Assignments.User")
	if err != nil {
		return nil, err
	}

	counts, err := s.store.TimeLogs.CountClosedCycles(ctx, task.ID, task.AssigneeIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to count clock cycles: %w", err)
	}

	progress := &TaskProgress{
		TaskID:         task.ID,
		Status:         task.Status,
		MinClockCycles: task.MinClockCycles,
		Assignees:      make([]AssigneeProgress, 0, len(task.Assignments)),
	}
	for _, a := range task.Assignments {
		progress.Assignees = append(progress.Assignees, AssigneeProgress{
			UserID:   a.UserID,
			Username: a.User.Username,
			Cycles:   counts[a.UserID],
			Done:     counts[a.UserID] >= int64(task.MinClockCycles),
		})
	}

	if _, err := s.store.TimeLogs.FindOpen(ctx, viewerID, &task.ID); err == nil {
		progress.ViewerClockedIn = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check open time log: %w", err)
	}

	return progress, nil
}

func findTask(ctx context.Context, store *repository.Store, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := store.Tasks.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
