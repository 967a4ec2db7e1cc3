package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectNameRequired  = errors.New("project name is required")
	ErrInvalidProjectStatus = errors.New("project status must be one of active, completed, on_hold")
	ErrInvalidProjectDates  = errors.New("end date cannot be before start date")
	ErrNegativeBudget       = errors.New("budget cannot be negative")
	ErrNotProjectOwner      = errors.New("only the project creator can perform this action")
	ErrUnknownUsers         = errors.New("one or more users do not exist")
)

// ProjectService handles project business logic
type ProjectService struct {
	store *repository.Store
}

// NewProjectService creates a new ProjectService
func NewProjectService(store *repository.Store) *ProjectService {
	return &ProjectService{store: store}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name            string
	Description     string
	Status          models.ProjectStatus
	Budget          float64
	StartDate       *time.Time
	EndDate         *time.Time
	WorkerIDs       []uint64
	WorkerUsernames []string
	CreatedByID     uint64
}

// UpdateProjectInput represents input for updating a project. Nil fields are unchanged.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
	Budget      *float64
	StartDate   *time.Time
	EndDate     *time.Time
	WorkerIDs   *[]uint64
}

// ListProjects lists the projects a manager created, or the ones a worker belongs to
func (s *ProjectService) ListProjects(ctx context.Context, viewer *models.User, status *models.ProjectStatus, params utils.PaginationParams) ([]models.Project, int64, error) {
	if status != nil && !status.Valid() {
		return nil, 0, ErrInvalidProjectStatus
	}

	filter := repository.ProjectFilter{Status: status, Pagination: params}
	if viewer.IsManager() {
		filter.CreatedByID = &viewer.ID
	} else {
		filter.WorkerID = &viewer.ID
	}

	projects, total, err := s.store.Projects.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// GetProject returns a project visible to the viewer
func (s *ProjectService) GetProject(ctx context.Context, viewer *models.User, id uint64) (*models.Project, error) {
	project, err := s.findProject(ctx, s.store, id, "CreatedBy", "Workers")
	if err != nil {
		return nil, err
	}

	if project.CreatedByID == viewer.ID {
		return project, nil
	}
	for _, w := range project.Workers {
		if w.ID == viewer.ID {
			return project, nil
		}
	}
	// Hidden rather than forbidden to avoid leaking project existence
	return nil, ErrProjectNotFound
}

// CreateProject creates a project owned by the calling manager
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}
	if input.Status == "" {
		input.Status = models.ProjectStatusActive
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidProjectStatus
	}
	if input.Budget < 0 {
		return nil, ErrNegativeBudget
	}
	if err := validateDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	workers, err := resolveUsers(ctx, s.store.Users, input.WorkerIDs, input.WorkerUsernames)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
		Status:      input.Status,
		Budget:      input.Budget,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		CreatedByID: input.CreatedByID,
		Workers:     workers,
	}
	if err := s.store.Projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.findProject(ctx, s.store, project.ID, "CreatedBy", "Workers")
}

// UpdateProject updates a project; only its creator may do so
func (s *ProjectService) UpdateProject(ctx context.Context, actorID, id uint64, input UpdateProjectInput) (*models.Project, error) {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		project, err := s.findProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if project.CreatedByID != actorID {
			return ErrNotProjectOwner
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return ErrProjectNameRequired
			}
			project.Name = name
		}
		if input.Description != nil {
			project.Description = *input.Description
		}
		if input.Status != nil {
			if !input.Status.Valid() {
				return ErrInvalidProjectStatus
			}
			project.Status = *input.Status
		}
		if input.Budget != nil {
			if *input.Budget < 0 {
				return ErrNegativeBudget
			}
			project.Budget = *input.Budget
		}
		if input.StartDate != nil {
			project.StartDate = input.StartDate
		}
		if input.EndDate != nil {
			project.EndDate = input.EndDate
		}
		if err := validateDates(project.StartDate, project.EndDate); err != nil {
			return err
		}

		if err := tx.Projects.Update(ctx, project); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}

		if input.WorkerIDs != nil {
			ids := utils.UniqueUint64(*input.WorkerIDs)
			if _, err := resolveUsers(ctx, tx.Users, ids, nil); err != nil {
				return err
			}
			if err := tx.Projects.ReplaceWorkers(ctx, project, ids); err != nil {
				return fmt.Errorf("failed to update project workers: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.findProject(ctx, s.store, id, "CreatedBy", "Workers")
}

// DeleteProject deletes a project; its tasks are kept without a project
func (s *ProjectService) DeleteProject(ctx context.Context, actorID, id uint64) error {
	project, err := s.findProject(ctx, s.store, id)
	if err != nil {
		return err
	}
	if project.CreatedByID != actorID {
		return ErrNotProjectOwner
	}

	if err := s.store.Projects.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *ProjectService) findProject(ctx context.Context, store *repository.Store, id uint64, preload ...string) (*models.Project, error) {
	project, err := store.Projects.FindByID(ctx, id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func validateDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidProjectDates
	}
	return nil
}

// resolveUsers loads users named by ID or username and fails if any is missing
func resolveUsers(ctx context.Context, users repository.UserRepository, ids []uint64, usernames []string) ([]models.User, error) {
	ids = utils.UniqueUint64(ids)
	resolved := make([]models.User, 0, len(ids)+len(usernames))

	if len(ids) > 0 {
		count, err := users.CountByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to verify users: %w", err)
		}
		if int(count) != len(ids) {
			return nil, ErrUnknownUsers
		}
		for _, id := range ids {
			resolved = append(resolved, models.User{ID: id})
		}
	}

	if len(usernames) > 0 {
		names := uniqueStrings(usernames)
		found, err := users.FindByUsernames(ctx, names)
		if err != nil {
			return nil, fmt.Errorf("failed to verify users: %w", err)
		}
		if len(found) != len(names) {
			return nil, ErrUnknownUsers
		}
		seen := make(map[uint64]struct{}, len(resolved))
		for _, u := range resolved {
			seen[u.ID] = struct{}{}
		}
		for _, u := range found {
			if _, dup := seen[u.ID]; !dup {
				resolved = append(resolved, u)
			}
		}
	}

	return resolved, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
