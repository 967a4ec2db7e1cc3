package repository

import (
	"context"

	"github.com/yukikurage/workforce-management-api/internal/database"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a project and links its workers
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	workers := project.Workers
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		if len(workers) == 0 {
			return nil
		}
		return tx.Model(project).Omit("Workers.*").Association("Workers").Append(workers)
	})
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db.WithContext(ctx)
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List retrieves projects with filtering and pagination
func (r *GormProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{})

	if filter.CreatedByID != nil {
		query = query.Where("projects.created_by_id = ?", *filter.CreatedByID)
	}
	if filter.WorkerID != nil {
		membership := r.db.Table("project_workers").
			Select("1").
			Where("project_workers.project_id = projects.id").
			Where("project_workers.user_id = ?", *filter.WorkerID)
		query = query.Where("EXISTS (?)", membership)
	}
	if filter.Status != nil {
		query = query.Where("projects.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	err := query.
		Preload("CreatedBy").
		Preload("Workers").
		Order("projects.created_at DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Update saves the project's own columns
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
}

// ReplaceWorkers sets the project's workers to exactly the given users
func (r *GormProjectRepository) ReplaceWorkers(ctx context.Context, project *models.Project, workerIDs []uint64) error {
	workers := make([]models.User, len(workerIDs))
	for i, id := range workerIDs {
		workers[i] = models.User{ID: id}
	}
	return r.db.WithContext(ctx).Model(project).Omit("Workers.*").Association("Workers").Replace(workers)
}

// Delete soft deletes a project and detaches its tasks
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).Where("project_id = ?", id).Update("project_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM project_workers WHERE project_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
}

// CountByStatus counts projects per status
func (r *GormProjectRepository) CountByStatus(ctx context.Context, createdByID *uint64) (map[models.ProjectStatus]int64, error) {
	var rows []struct {
		Status models.ProjectStatus
		Count  int64
	}

	query := r.db.WithContext(ctx).Model(&models.Project{}).Select("status, COUNT(*) AS count")
	if createdByID != nil {
		query = query.Where("created_by_id = ?", *createdByID)
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.ProjectStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
