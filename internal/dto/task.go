package dto

import (
	"time"

	"github.com/yukikurage/workforce-management-api/internal/models"
)

// ProjectSummaryDTO is the short project form embedded in tasks
type ProjectSummaryDTO struct {
	ID     uint64               `json:"id"`
	Name   string               `json:"name"`
	Status models.ProjectStatus `json:"status"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID                  uint64             `json:"id"`
	Title               string             `json:"title"`
	Description         string             `json:"description"`
	Status              models.TaskStatus  `json:"status"`
	ProjectID           *uint64            `json:"project_id"`
	Project             *ProjectSummaryDTO `json:"project,omitempty"`
	Shift               string             `json:"shift"`
	EstimatedCompletion *time.Time         `json:"estimated_completion"`
	MinClockCycles      int                `json:"min_clock_cycles"`
	AssignedByID        uint64             `json:"assigned_by_id"`
	AssignedBy          *UserDTO           `json:"assigned_by,omitempty"`
	Assignees           []UserDTO          `json:"assignees"`
	StatusChangedAt     time.Time          `json:"status_changed_at"`
	CompletedAt         *time.Time         `json:"completed_at"`
	CompletedBy         *UserDTO           `json:"completed_by,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// TimeLogDTO represents a clock-in/clock-out interval
type TimeLogDTO struct {
	ID              uint64     `json:"id"`
	UserID          uint64     `json:"user_id"`
	TaskID          *uint64    `json:"task_id"`
	TaskTitle       string     `json:"task_title,omitempty"`
	ClockIn         time.Time  `json:"clock_in"`
	ClockOut        *time.Time `json:"clock_out"`
	DurationMinutes float64    `json:"duration_minutes"`
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:                  task.ID,
		Title:               task.Title,
		Description:         task.Description,
		Status:              task.Status,
		ProjectID:           task.ProjectID,
		Shift:               task.Shift,
		EstimatedCompletion: task.EstimatedCompletion,
		MinClockCycles:      task.MinClockCycles,
		AssignedByID:        task.AssignedByID,
		AssignedBy:          optionalUser(task.AssignedBy),
		Assignees:           make([]UserDTO, 0, len(task.Assignments)),
		StatusChangedAt:     task.StatusChangedAt,
		CompletedAt:         task.CompletedAt,
		CreatedAt:           task.CreatedAt,
		UpdatedAt:           task.UpdatedAt,
	}

	if task.Project != nil {
		dto.Project = &ProjectSummaryDTO{
			ID:     task.Project.ID,
			Name:   task.Project.Name,
			Status: task.Project.Status,
		}
	}
	if task.CompletedBy != nil {
		dto.CompletedBy = optionalUser(*task.CompletedBy)
	}
	for _, a := range task.Assignments {
		if a.User.ID == 0 {
			dto.Assignees = append(dto.Assignees, UserDTO{ID: a.UserID})
			continue
		}
		dto.Assignees = append(dto.Assignees, ToUserDTO(a.User))
	}

	return dto
}

// ToTaskDTOs converts a slice of Task models
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		dtos[i] = ToTaskDTO(task)
	}
	return dtos
}

// ToTimeLogDTO converts a TimeLog; open logs report the elapsed time up to now
func ToTimeLogDTO(log models.TimeLog, now time.Time) TimeLogDTO {
	dto := TimeLogDTO{
		ID:              log.ID,
		UserID:          log.UserID,
		TaskID:          log.TaskID,
		ClockIn:         log.ClockIn,
		ClockOut:        log.ClockOut,
		DurationMinutes: float64(log.Duration(now).Round(time.Second)) / float64(time.Minute),
	}
	if log.Task != nil {
		dto.TaskTitle = log.Task.Title
	}
	return dto
}

// ToTimeLogDTOs converts a slice of TimeLog models
func ToTimeLogDTOs(logs []models.TimeLog, now time.Time) []TimeLogDTO {
	dtos := make([]TimeLogDTO, len(logs))
	for i, log := range logs {
		dtos[i] = ToTimeLogDTO(log, now)
	}
	return dtos
}
