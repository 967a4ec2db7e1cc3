package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/workforce-management-api/internal/middleware"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"gorm.io/gorm"
)

// Services bundles everything the HTTP layer depends on
type Services struct {
	Auth     *services.AuthService
	Profiles *services.ProfileService
	Projects *services.ProjectService
	Tasks    *services.TaskService
	Time     *services.TimeTrackingService
	Points   *services.PointsService
	Rewards  *services.RewardService
	Stats    *services.StatsService
}

// NewRouter builds the gin engine with middleware and every route
func NewRouter(svc Services, db *gorm.DB, cookies CookieOptions) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())

	authHandler := NewAuthHandler(svc.Auth, cookies)
	profileHandler := NewProfileHandler(svc.Profiles)
	projectHandler := NewProjectHandler(svc.Projects)
	taskHandler := NewTaskHandler(svc.Tasks)
	timeHandler := NewTimeLogHandler(svc.Time)
	pointsHandler := NewPointsHandler(svc.Points)
	rewardHandler := NewRewardHandler(svc.Rewards)
	statsHandler := NewStatsHandler(svc.Stats, db)

	requireAuth := middleware.RequireAuth(svc.Auth)
	requireManager := middleware.RequireManager()
	requireTaskAccess := middleware.RequireTaskAccess(svc.Tasks)

	// Health check endpoint
	r.GET("/health", statsHandler.Health)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/register-manager", authHandler.RegisterManager)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/password-reset", authHandler.RequestPasswordReset)
			auth.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)
			auth.GET("/authenticated", requireAuth, authHandler.Authenticated)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		profile := api.Group("/profile")
		profile.Use(requireAuth)
		{
			profile.GET("", profileHandler.GetProfile)
			profile.PUT("", profileHandler.UpdateProfile)
		}

		api.GET("/workers", requireAuth, requireManager, profileHandler.ListWorkers)

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.POST("", requireManager, projectHandler.CreateProject)
			projects.PUT("/:id", requireManager, projectHandler.UpdateProject)
			projects.DELETE("/:id", requireManager, projectHandler.DeleteProject)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", requireManager, taskHandler.CreateTask)
			tasks.GET("/:id", requireTaskAccess, taskHandler.GetTask)
			tasks.GET("/:id/status", requireTaskAccess, taskHandler.TaskStatus)
			tasks.POST("/:id/complete", requireTaskAccess, taskHandler.CompleteTask)
			tasks.PATCH("/:id", requireManager, taskHandler.UpdateTask)
			tasks.DELETE("/:id", requireManager, taskHandler.DeleteTask)
			tasks.POST("/:id/assign", requireManager, taskHandler.AssignTask)
			tasks.POST("/:id/unassign", requireManager, taskHandler.UnassignTask)
		}

		timelogs := api.Group("/timelogs")
		timelogs.Use(requireAuth)
		{
			timelogs.POST("/clock-in", timeHandler.ClockIn)
			timelogs.POST("/clock-out", timeHandler.ClockOut)
			timelogs.GET("/current", timeHandler.CurrentLog)
			timelogs.GET("", timeHandler.History)
		}

		points := api.Group("/points")
		points.Use(requireAuth)
		{
			points.GET("", pointsHandler.Balance)
			points.GET("/history", pointsHandler.History)
			points.POST("/check-badges", pointsHandler.CheckBadges)
			points.POST("/award", requireManager, pointsHandler.AwardPoints)
			points.GET("/transactions", requireManager, pointsHandler.AllTransactions)
		}

		badges := api.Group("/badges")
		badges.Use(requireAuth)
		{
			badges.GET("", pointsHandler.ListBadges)
			badges.GET("/mine", pointsHandler.MyBadges)
			badges.POST("", requireManager, pointsHandler.CreateBadge)
		}

		rewards := api.Group("/rewards")
		rewards.Use(requireAuth)
		{
			rewards.GET("", rewardHandler.AvailableRewards)
			rewards.POST("/redeem", rewardHandler.RedeemReward)
			rewards.GET("/redemptions", rewardHandler.MyRedemptions)
			rewards.GET("/managed", requireManager, rewardHandler.ManagerRewards)
			rewards.POST("", requireManager, rewardHandler.CreateReward)
			rewards.GET("/managed/redemptions", requireManager, rewardHandler.ManagerRedemptions)
			rewards.PATCH("/redemptions/:id", requireManager, rewardHandler.ProcessRedemption)
		}

		api.GET("/stats/productivity", requireAuth, requireManager, statsHandler.Productivity)

		dashboard := api.Group("/dashboard")
		dashboard.Use(requireAuth)
		{
			dashboard.GET("/manager", requireManager, statsHandler.ManagerDashboard)
			dashboard.GET("/worker", statsHandler.WorkerDashboard)
		}
	}

	return r
}
