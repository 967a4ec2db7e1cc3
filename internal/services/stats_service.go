package services

import (
	"context"
	"fmt"
	"math"

	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/utils"
)

// StatsService builds reports and dashboards from the other aggregates
type StatsService struct {
	store *repository.Store
}

// NewStatsService creates a new StatsService
func NewStatsService(store *repository.Store) *StatsService {
	return &StatsService{store: store}
}

// WorkerProductivity is one row of the productivity report
type WorkerProductivity struct {
	UserID         uint64  `json:"user_id"`
	Username       string  `json:"username"`
	FullName       string  `json:"full_name"`
	AssignedTasks  int64   `json:"assigned_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	Productivity   float64 `json:"productivity"`
	HoursLogged    float64 `json:"hours_logged"`
}

// ManagerDashboard summarizes a manager's area
type ManagerDashboard struct {
	Workers            int64                          `json:"workers"`
	ActiveClockIns     int64                          `json:"active_clock_ins"`
	Projects           map[models.ProjectStatus]int64 `json:"projects"`
	Tasks              map[models.TaskStatus]int64    `json:"tasks"`
	PendingRedemptions int64                          `json:"pending_redemptions"`
}

// WorkerDashboard summarizes a worker's state
type WorkerDashboard struct {
	Tasks      map[models.TaskStatus]int64 `json:"tasks"`
	Points     *models.UserPoints          `json:"points"`
	Badges     int                         `json:"badges"`
	CurrentLog *models.TimeLog             `json:"current_log"`
}

// Productivity reports, per worker, completed over assigned tasks as a
// percentage rounded to two decimals, and closed hours logged.
func (s *StatsService) Productivity(ctx context.Context) ([]WorkerProductivity, error) {
	workers, _, err := s.store.Users.ListByGroup(ctx, models.GroupWorkers, utils.PaginationParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}

	stats, err := s.store.Tasks.AssignmentStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate assignments: %w", err)
	}
	byUser := make(map[uint64]repository.AssignmentStat, len(stats))
	for _, st := range stats {
		byUser[st.UserID] = st
	}

	durations, err := s.store.TimeLogs.LoggedDurations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate time logs: %w", err)
	}

	report := make([]WorkerProductivity, 0, len(workers))
	for _, w := range workers {
		st := byUser[w.ID]
		report = append(report, WorkerProductivity{
			UserID:         w.ID,
			Username:       w.Username,
			FullName:       w.FullName(),
			AssignedTasks:  st.Assigned,
			CompletedTasks: st.Completed,
			Productivity:   percentage(st.Completed, st.Assigned),
			HoursLogged:    round2(durations[w.ID].Hours()),
		})
	}
	return report, nil
}

// ManagerDashboard counts workers, open clock-ins and the manager's projects,
// tasks and pending redemptions.
func (s *StatsService) ManagerDashboard(ctx context.Context, managerID uint64) (*ManagerDashboard, error) {
	_, workers, err := s.store.Users.ListByGroup(ctx, models.GroupWorkers, utils.NewPaginationParams(1, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to count workers: %w", err)
	}

	open, err := s.store.TimeLogs.CountOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count clock-ins: %w", err)
	}

	projects, err := s.store.Projects.CountByStatus(ctx, &managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	tasks, err := s.store.Tasks.CountByStatus(ctx, repository.TaskFilter{AssignedByID: &managerID})
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	pending := models.RedemptionPending
	_, pendingTotal, err := s.store.Rewards.ListRedemptions(ctx, repository.RedemptionFilter{
		RewardCreatedByID: &managerID,
		Status:            &pending,
		Pagination:        utils.NewPaginationParams(1, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count redemptions: %w", err)
	}

	return &ManagerDashboard{
		Workers:            workers,
		ActiveClockIns:     open,
		Projects:           projects,
		Tasks:              tasks,
		PendingRedemptions: pendingTotal,
	}, nil
}

// WorkerDashboard gathers a worker's task counts, balance, badges and open log
func (s *StatsService) WorkerDashboard(ctx context.Context, userID uint64) (*WorkerDashboard, error) {
	tasks, err := s.store.Tasks.CountByStatus(ctx, repository.TaskFilter{AssignedUserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	points, err := NewPointsService(s.store).Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	badges, err := s.store.Points.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}

	current, err := NewTimeTrackingService(s.store).CurrentLog(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &WorkerDashboard{
		Tasks:      tasks,
		Points:     points,
		Badges:     len(badges),
		CurrentLog: current,
	}, nil
}

func percentage(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
