package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/workforce-management-api/internal/config"
	"github.com/yukikurage/workforce-management-api/internal/database"
	"github.com/yukikurage/workforce-management-api/internal/handlers"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server",
	Long:  `Migrate the schema and start the HTTP server to handle API requests`,
	RunE:  runServe,
}

// bootstrap loads configuration, initializes logging and opens the database
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Logging.Env, cfg.Logging.Level)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newServices(cfg *config.Config, store *repository.Store) handlers.Services {
	tokens := services.NewTokenService(cfg.Security.JWTSecret, cfg.Security.AccessTokenTTL, cfg.Security.RefreshTokenTTL)
	mailer := services.NewLogMailer(cfg.Mail.From)

	return handlers.Services{
		Auth:     services.NewAuthService(store.Users, tokens, mailer, cfg.Server.FrontendURL, cfg.Security.BCryptCost),
		Profiles: services.NewProfileService(store),
		Projects: services.NewProjectService(store),
		Tasks:    services.NewTaskService(store),
		Time:     services.NewTimeTrackingService(store),
		Points:   services.NewPointsService(store),
		Rewards:  services.NewRewardService(store, services.DefaultFulfillment()),
		Stats:    services.NewStatsService(store),
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	log := logger.L()

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Error("database close error", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		return err
	}

	gin.SetMode(cfg.Server.GinMode)
	store := repository.NewStore(db)
	router := handlers.NewRouter(newServices(cfg, store), db, handlers.CookieOptions{
		Secure: cfg.Server.CookieSecure,
		Domain: cfg.Server.CookieDomain,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", server.Addr)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	log.Info("server stopped")
	return nil
}
