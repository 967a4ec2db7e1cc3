package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/workforce-management-api/internal/errors"
	"github.com/yukikurage/workforce-management-api/internal/middleware"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
	"gorm.io/gorm"
)

// StatsHandler serves reports, dashboards and the health check
type StatsHandler struct {
	statsService *services.StatsService
	db           *gorm.DB
}

func NewStatsHandler(statsService *services.StatsService, db *gorm.DB) *StatsHandler {
	return &StatsHandler{statsService: statsService, db: db}
}

func (h *StatsHandler) Productivity(c *gin.Context) {
	report, err := h.statsService.Productivity(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workers": report})
}

func (h *StatsHandler) ManagerDashboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	dashboard, err := h.statsService.ManagerDashboard(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *StatsHandler) WorkerDashboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	dashboard, err := h.statsService.WorkerDashboard(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// Health pings the database
func (h *StatsHandler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		logger.From(c.Request.Context()).Error("health check failed", "error", err)
		apierrors.ServiceUnavailable(c, "Database unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *StatsHandler) fail(c *gin.Context, err error) {
	logger.From(c.Request.Context()).Error("stats request failed", "error", err)
	apierrors.InternalError(c, "")
}
