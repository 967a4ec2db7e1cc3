package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/testutil"
)

type TaskHandlerTestSuite struct {
	suite.Suite
	env *testEnv

	manager *models.User
	worker  *models.User
	other   *models.User

	managerCookies []*http.Cookie
	workerCookies  []*http.Cookie
	otherCookies   []*http.Cookie
}

func (s *TaskHandlerTestSuite) SetupTest() {
	t := s.T()
	s.env = newTestEnv(t)

	s.manager = testutil.CreateManager(t, s.env.db, "manager1")
	s.worker = testutil.CreateWorker(t, s.env.db, "worker1")
	s.other = testutil.CreateWorker(t, s.env.db, "worker2")

	s.managerCookies = s.env.login(t, "manager1")
	s.workerCookies = s.env.login(t, "worker1")
	s.otherCookies = s.env.login(t, "worker2")
}

func (s *TaskHandlerTestSuite) createTask(body gin.H) uint64 {
	w := s.env.do(s.T(), http.MethodPost, "/api/tasks", body, s.managerCookies)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return uint64(decode(s.T(), w)["id"].(float64))
}

func (s *TaskHandlerTestSuite) TestCreateTask() {
	w := s.env.do(s.T(), http.MethodPost, "/api/tasks", gin.H{
		"title":       "Stock shelves",
		"description": "Aisle 4",
		"assigned_to": []string{"worker1"},
	}, s.managerCookies)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	body := decode(s.T(), w)
	s.Equal("Stock shelves", body["title"])
	s.Equal(string(models.TaskStatusPending), body["status"])
	s.Equal(float64(1), body["min_clock_cycles"])

	assignees, ok := body["assignees"].([]interface{})
	s.Require().True(ok)
	s.Require().Len(assignees, 1)
	s.Equal("worker1", assignees[0].(map[string]interface{})["username"])
}

func (s *TaskHandlerTestSuite) TestCreateTask_Validation() {
	s.Run("missing title", func() {
		w := s.env.do(s.T(), http.MethodPost, "/api/tasks", gin.H{"description": "x"}, s.managerCookies)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown username", func() {
		w := s.env.do(s.T(), http.MethodPost, "/api/tasks", gin.H{
			"title":       "Ghost work",
			"assigned_to": []string{"nobody"},
		}, s.managerCookies)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("worker cannot create", func() {
		w := s.env.do(s.T(), http.MethodPost, "/api/tasks", gin.H{"title": "Mine"}, s.workerCookies)
		s.Equal(http.StatusForbidden, w.Code)
	})
}

func (s *TaskHandlerTestSuite) TestListTasks_ScopedByRole() {
	s.createTask(gin.H{"title": "For worker1", "assigned_to": []string{"worker1"}})
	s.createTask(gin.H{"title": "For worker2", "assigned_to": []string{"worker2"}})

	s.Run("manager sees what they assigned", func() {
		w := s.env.do(s.T(), http.MethodGet, "/api/tasks", nil, s.managerCookies)
		s.Require().Equal(http.StatusOK, w.Code)
		s.Len(decode(s.T(), w)["tasks"], 2)
	})

	s.Run("worker sees their own", func() {
		w := s.env.do(s.T(), http.MethodGet, "/api/tasks", nil, s.workerCookies)
		s.Require().Equal(http.StatusOK, w.Code)
		tasks := decode(s.T(), w)["tasks"].([]interface{})
		s.Require().Len(tasks, 1)
		s.Equal("For worker1", tasks[0].(map[string]interface{})["title"])
	})

	s.Run("invalid status filter", func() {
		w := s.env.do(s.T(), http.MethodGet, "/api/tasks?status=archived", nil, s.managerCookies)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *TaskHandlerTestSuite) TestGetTask_AccessControl() {
	taskID := s.createTask(gin.H{"title": "Private", "assigned_to": []string{"worker1"}})
	path := fmt.Sprintf("/api/tasks/%d", taskID)

	s.Equal(http.StatusOK, s.env.do(s.T(), http.MethodGet, path, nil, s.workerCookies).Code)
	s.Equal(http.StatusOK, s.env.do(s.T(), http.MethodGet, path, nil, s.managerCookies).Code)
	s.Equal(http.StatusNotFound, s.env.do(s.T(), http.MethodGet, path, nil, s.otherCookies).Code)
	s.Equal(http.StatusBadRequest, s.env.do(s.T(), http.MethodGet, "/api/tasks/abc", nil, s.workerCookies).Code)
}

func (s *TaskHandlerTestSuite) TestUpdateTask() {
	taskID := s.createTask(gin.H{"title": "Old", "assigned_to": []string{"worker1"}})
	path := fmt.Sprintf("/api/tasks/%d", taskID)

	s.Run("partial update", func() {
		w := s.env.do(s.T(), http.MethodPatch, path, gin.H{"title": "New", "min_clock_cycles": 3}, s.managerCookies)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		body := decode(s.T(), w)
		s.Equal("New", body["title"])
		s.Equal(float64(3), body["min_clock_cycles"])
	})

	s.Run("empty title", func() {
		w := s.env.do(s.T(), http.MethodPatch, path, gin.H{"title": "  "}, s.managerCookies)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("invalid status", func() {
		w := s.env.do(s.T(), http.MethodPatch, path, gin.H{"status": "done"}, s.managerCookies)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("worker cannot update", func() {
		w := s.env.do(s.T(), http.MethodPatch, path, gin.H{"title": "Hijack"}, s.workerCookies)
		s.Equal(http.StatusForbidden, w.Code)
	})
}

func (s *TaskHandlerTestSuite) TestAssignAndUnassign() {
	taskID := s.createTask(gin.H{"title": "Shared"})
	base := fmt.Sprintf("/api/tasks/%d", taskID)

	w := s.env.do(s.T(), http.MethodPost, base+"/assign", gin.H{"usernames": []string{"worker1", "worker2"}}, s.managerCookies)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Len(decode(s.T(), w)["assignees"], 2)

	w = s.env.do(s.T(), http.MethodPost, base+"/unassign", gin.H{"user_ids": []uint64{s.other.ID}}, s.managerCookies)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Len(decode(s.T(), w)["assignees"], 1)

	w = s.env.do(s.T(), http.MethodPost, base+"/assign", gin.H{}, s.managerCookies)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TaskHandlerTestSuite) TestClockCyclesCompleteTask() {
	taskID := s.createTask(gin.H{"title": "Inventory", "assigned_to": []string{"worker1"}})

	w := s.env.do(s.T(), http.MethodPost, "/api/timelogs/clock-in", gin.H{"task_id": taskID}, s.workerCookies)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.env.do(s.T(), http.MethodPost, "/api/timelogs/clock-in", gin.H{"task_id": taskID}, s.workerCookies)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.env.do(s.T(), http.MethodGet, "/api/timelogs/current", nil, s.workerCookies)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, decode(s.T(), w)["clocked_in"])

	w = s.env.do(s.T(), http.MethodPost, "/api/timelogs/clock-out", gin.H{"task_id": taskID}, s.workerCookies)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := decode(s.T(), w)
	s.Equal(true, body["task_completed"])
	s.Equal(string(models.TaskStatusCompleted), body["task_status"])

	w = s.env.do(s.T(), http.MethodGet, "/api/points", nil, s.workerCookies)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(5), decode(s.T(), w)["available_points"])

	w = s.env.do(s.T(), http.MethodPost, "/api/timelogs/clock-in", gin.H{"task_id": taskID}, s.workerCookies)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TaskHandlerTestSuite) TestClockIn_NotAssigned() {
	taskID := s.createTask(gin.H{"title": "Someone else's", "assigned_to": []string{"worker1"}})

	w := s.env.do(s.T(), http.MethodPost, "/api/timelogs/clock-in", gin.H{"task_id": taskID}, s.otherCookies)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.env.do(s.T(), http.MethodPost, "/api/timelogs/clock-out", nil, s.otherCookies)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *TaskHandlerTestSuite) TestCompleteAndDeleteTask() {
	taskID := s.createTask(gin.H{"title": "Quick", "assigned_to": []string{"worker1"}})
	base := fmt.Sprintf("/api/tasks/%d", taskID)

	w := s.env.do(s.T(), http.MethodPost, base+"/complete", nil, s.otherCookies)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.env.do(s.T(), http.MethodPost, base+"/complete", nil, s.workerCookies)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(string(models.TaskStatusCompleted), decode(s.T(), w)["status"])

	w = s.env.do(s.T(), http.MethodPost, base+"/complete", nil, s.workerCookies)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.env.do(s.T(), http.MethodDelete, base, nil, s.managerCookies)
	s.Equal(http.StatusOK, w.Code)

	_, err := s.env.svc.Tasks.GetTask(context.Background(), taskID)
	s.Error(err)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
