package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/workforce-management-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-management-api/internal/errors"
	"github.com/yukikurage/workforce-management-api/internal/middleware"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
)

type TimeLogHandler struct {
	timeService *services.TimeTrackingService
}

func NewTimeLogHandler(timeService *services.TimeTrackingService) *TimeLogHandler {
	return &TimeLogHandler{timeService: timeService}
}

type clockRequest struct {
	TaskID *uint64 `json:"task_id"`
}

// bindClockRequest accepts an empty body as "no task". Chunked requests carry
// no length, so an immediate EOF counts as empty too.
func bindClockRequest(c *gin.Context) (clockRequest, bool) {
	var req clockRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return clockRequest{}, true
		}
		respondBindError(c, err)
		return req, false
	}
	return req, true
}

// ClockIn opens a time log, optionally against an assigned task
func (h *TimeLogHandler) ClockIn(c *gin.Context) {
	req, ok := bindClockRequest(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	log, err := h.timeService.ClockIn(c.Request.Context(), userID, req.TaskID)
	if err != nil {
		respondTimeLogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Clocked in successfully",
		"time_log": dto.ToTimeLogDTO(*log, time.Now()),
	})
}

// ClockOut closes the open log and reports whether the task got completed
func (h *TimeLogHandler) ClockOut(c *gin.Context) {
	req, ok := bindClockRequest(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	result, err := h.timeService.ClockOut(c.Request.Context(), userID, req.TaskID)
	if err != nil {
		respondTimeLogError(c, err)
		return
	}

	message := "Clocked out successfully"
	if result.TaskCompleted {
		message = "Clocked out successfully. Task completed"
	}
	resp := gin.H{
		"message":        message,
		"time_log":       dto.ToTimeLogDTO(*result.Log, time.Now()),
		"task_completed": result.TaskCompleted,
	}
	if result.Task != nil {
		resp["task_status"] = result.Task.Status
	}
	c.JSON(http.StatusOK, resp)
}

// CurrentLog returns the caller's open log, or null
func (h *TimeLogHandler) CurrentLog(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	log, err := h.timeService.CurrentLog(c.Request.Context(), userID)
	if err != nil {
		respondTimeLogError(c, err)
		return
	}

	if log == nil {
		c.JSON(http.StatusOK, gin.H{"clocked_in": false, "time_log": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clocked_in": true, "time_log": dto.ToTimeLogDTO(*log, time.Now())})
}

// History lists the caller's logs newest first
func (h *TimeLogHandler) History(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)

	logs, total, err := h.timeService.History(c.Request.Context(), userID, params)
	if err != nil {
		respondTimeLogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"time_logs":  dto.ToTimeLogDTOs(logs, time.Now()),
		"pagination": params.Response(total),
	})
}

func respondTimeLogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAlreadyClockedIn),
		errors.Is(err, services.ErrTaskNotClockable):
		apierrors.InvalidOperation(c, err.Error())
	case errors.Is(err, services.ErrNotClockedIn),
		errors.Is(err, services.ErrTaskNotAssigned):
		apierrors.NotFound(c, err.Error())
	default:
		logger.From(c.Request.Context()).Error("time log request failed", "error", err)
		apierrors.InternalError(c, "")
	}
}
