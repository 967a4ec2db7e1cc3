package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/workforce-management-api/internal/constants"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/testutil"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"gorm.io/gorm"
)

// zeroPage disables pagination
var zeroPage = utils.PaginationParams{}

type TimeTrackingServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *gorm.DB
	store   *repository.Store
	service *TimeTrackingService
	tasks   *TaskService
	points  *PointsService
	clock   time.Time

	manager *models.User
	alice   *models.User
	bob     *models.User
}

func (s *TimeTrackingServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	s.store = repository.NewStore(s.db)

	s.clock = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.service = NewTimeTrackingService(s.store)
	s.service.now = func() time.Time { return s.clock }
	s.tasks = NewTaskService(s.store)
	s.points = NewPointsService(s.store)

	s.manager = testutil.CreateManager(s.T(), s.db, "manager")
	s.alice = testutil.CreateWorker(s.T(), s.db, "alice")
	s.bob = testutil.CreateWorker(s.T(), s.db, "bob")
}

func (s *TimeTrackingServiceTestSuite) advance(d time.Duration) {
	s.clock = s.clock.Add(d)
}

func (s *TimeTrackingServiceTestSuite) createTask(minCycles int, assignees ...*models.User) *models.Task {
	ids := make([]uint64, len(assignees))
	for i, u := range assignees {
		ids[i] = u.ID
	}
	task, err := s.tasks.CreateTask(s.ctx, CreateTaskInput{
		Title:          "Cycle count",
		MinClockCycles: minCycles,
		AssigneeIDs:    ids,
		AssignedByID:   s.manager.ID,
	})
	s.Require().NoError(err)
	return task
}

func (s *TimeTrackingServiceTestSuite) cycle(user *models.User, task *models.Task) *ClockOutResult {
	_, err := s.service.ClockIn(s.ctx, user.ID, &task.ID)
	s.Require().NoError(err)
	s.advance(30 * time.Minute)

	result, err := s.service.ClockOut(s.ctx, user.ID, &task.ID)
	s.Require().NoError(err)
	s.advance(5 * time.Minute)
	return result
}

func (s *TimeTrackingServiceTestSuite) TestClockIn_StartsPendingTask() {
	task := s.createTask(1, s.alice)

	log, err := s.service.ClockIn(s.ctx, s.alice.ID, &task.ID)
	s.Require().NoError(err)
	s.True(log.IsOpen())
	s.True(s.clock.Equal(log.ClockIn))

	reloaded, err := s.tasks.GetTask(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusInProgress, reloaded.Status)
	s.True(s.clock.Equal(reloaded.StatusChangedAt))
}

func (s *TimeTrackingServiceTestSuite) TestClockIn_Errors() {
	task := s.createTask(1, s.alice)

	s.Run("not assigned", func() {
		_, err := s.service.ClockIn(s.ctx, s.bob.ID, &task.ID)
		s.ErrorIs(err, ErrTaskNotAssigned)
	})

	s.Run("unknown task", func() {
		missing := uint64(9999)
		_, err := s.service.ClockIn(s.ctx, s.alice.ID, &missing)
		s.ErrorIs(err, ErrTaskNotAssigned)
	})

	s.Run("already clocked in", func() {
		_, err := s.service.ClockIn(s.ctx, s.alice.ID, nil)
		s.Require().NoError(err)
		_, err = s.service.ClockIn(s.ctx, s.alice.ID, &task.ID)
		s.ErrorIs(err, ErrAlreadyClockedIn)
	})

	s.Run("completed task", func() {
		done := s.createTask(1, s.bob)
		_, err := s.tasks.CompleteTask(s.ctx, s.manager, done.ID)
		s.Require().NoError(err)

		_, err = s.service.ClockIn(s.ctx, s.bob.ID, &done.ID)
		s.ErrorIs(err, ErrTaskNotClockable)
	})
}

func (s *TimeTrackingServiceTestSuite) TestClockOut_WithoutOpenLog() {
	_, err := s.service.ClockOut(s.ctx, s.alice.ID, nil)
	s.ErrorIs(err, ErrNotClockedIn)
}

func (s *TimeTrackingServiceTestSuite) TestClockOut_GeneralLog() {
	_, err := s.service.ClockIn(s.ctx, s.alice.ID, nil)
	s.Require().NoError(err)
	s.advance(2 * time.Hour)

	result, err := s.service.ClockOut(s.ctx, s.alice.ID, nil)
	s.Require().NoError(err)
	s.False(result.TaskCompleted)
	s.Nil(result.Task)
	s.Equal(2*time.Hour, result.Log.Duration(s.clock))

	current, err := s.service.CurrentLog(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Nil(current)
}

func (s *TimeTrackingServiceTestSuite) TestCompletionWaitsForEveryAssignee() {
	task := s.createTask(2, s.alice, s.bob)

	s.False(s.cycle(s.alice, task).TaskCompleted)
	s.False(s.cycle(s.alice, task).TaskCompleted)
	s.False(s.cycle(s.bob, task).TaskCompleted)

	progress, err := s.tasks.TaskStatus(s.ctx, s.alice.ID, task.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusInProgress, progress.Status)

	cycles := map[uint64]int64{}
	for _, a := range progress.Assignees {
		cycles[a.UserID] = a.Cycles
	}
	s.Equal(int64(2), cycles[s.alice.ID])
	s.Equal(int64(1), cycles[s.bob.ID])

	balance, err := s.points.Balance(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Zero(balance.TotalPoints)

	result := s.cycle(s.bob, task)
	s.True(result.TaskCompleted)
	s.Equal(models.TaskStatusCompleted, result.Task.Status)
	s.NotNil(result.Task.CompletedAt)

	for _, u := range []*models.User{s.alice, s.bob} {
		balance, err := s.points.Balance(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(int64(constants.TaskCompletionPoints), balance.TotalPoints)
		s.Equal(int64(constants.TaskCompletionPoints), balance.AvailablePoints)

		history, total, err := s.points.History(s.ctx, u.ID, zeroPage)
		s.Require().NoError(err)
		s.Equal(int64(1), total)
		s.Equal(models.TransactionEarn, history[0].TransactionType)
		s.Equal("Completed task: Cycle count", history[0].Description)
	}
}

func (s *TimeTrackingServiceTestSuite) TestCompletionAwardsOnlyOnce() {
	task := s.createTask(1, s.alice)
	s.True(s.cycle(s.alice, task).TaskCompleted)

	// The task is completed, so the next clock-in is refused and the balance stays put.
	_, err := s.service.ClockIn(s.ctx, s.alice.ID, &task.ID)
	s.ErrorIs(err, ErrTaskNotClockable)

	balance, err := s.points.Balance(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(int64(constants.TaskCompletionPoints), balance.TotalPoints)
}

func (s *TimeTrackingServiceTestSuite) TestConcurrentClockIns() {
	const attempts = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.ClockIn(s.ctx, s.alice.ID, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrAlreadyClockedIn):
				rejected++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(attempts-1, rejected)

	var open int64
	s.Require().NoError(s.db.Model(&models.TimeLog{}).
		Where("user_id = ? AND clock_out IS NULL", s.alice.ID).
		Count(&open).Error)
	s.Equal(int64(1), open)
}

func (s *TimeTrackingServiceTestSuite) TestUnassigningLaggardCompletesTask() {
	task := s.createTask(1, s.alice, s.bob)
	s.False(s.cycle(s.alice, task).TaskCompleted)

	updated, err := s.tasks.UnassignUsers(s.ctx, task.ID, []uint64{s.bob.ID})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusCompleted, updated.Status)
	s.NotNil(updated.CompletedAt)

	alice, err := s.points.Balance(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(int64(constants.TaskCompletionPoints), alice.TotalPoints)

	bob, err := s.points.Balance(s.ctx, s.bob.ID)
	s.Require().NoError(err)
	s.Zero(bob.TotalPoints)
}

func (s *TimeTrackingServiceTestSuite) TestUnassigningEveryoneLeavesTaskOpen() {
	task := s.createTask(1, s.alice)

	updated, err := s.tasks.UnassignUsers(s.ctx, task.ID, []uint64{s.alice.ID})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusPending, updated.Status)
}

func (s *TimeTrackingServiceTestSuite) TestLoweringMinCyclesCompletesTask() {
	task := s.createTask(3, s.alice)
	s.cycle(s.alice, task)
	s.cycle(s.alice, task)

	one := 1
	title := "Renamed"
	updated, err := s.tasks.UpdateTask(s.ctx, s.manager.ID, task.ID, UpdateTaskInput{Title: &title})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusInProgress, updated.Status)

	updated, err = s.tasks.UpdateTask(s.ctx, s.manager.ID, task.ID, UpdateTaskInput{MinClockCycles: &one})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusCompleted, updated.Status)

	history, total, err := s.points.History(s.ctx, s.alice.ID, zeroPage)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("Completed task: Renamed", history[0].Description)
}

func (s *TimeTrackingServiceTestSuite) TestHistoryNewestFirst() {
	task := s.createTask(3, s.alice)
	s.cycle(s.alice, task)
	s.cycle(s.alice, task)

	logs, total, err := s.service.History(s.ctx, s.alice.ID, zeroPage)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(logs, 2)
	s.True(logs[0].ClockIn.After(logs[1].ClockIn))
}

func TestTimeTrackingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TimeTrackingServiceTestSuite))
}
