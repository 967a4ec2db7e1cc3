package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/yukikurage/workforce-management-api/internal/database"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
)

var (
	seedManagerUsername string
	seedManagerPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed role groups, default badges and an optional manager account",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedManagerUsername, "manager-username", "", "create a manager account with this username")
	seedCmd.Flags().StringVar(&seedManagerPassword, "manager-password", "", "password for the seeded manager")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	log := logger.L()

	if err := database.Migrate(db); err != nil {
		return err
	}

	created, err := database.SeedBadges(db)
	if err != nil {
		return err
	}
	log.Info("seeded badges", "created", created)

	if seedManagerUsername == "" {
		return nil
	}

	svc := newServices(cfg, repository.NewStore(db))
	_, err = svc.Auth.RegisterManager(context.Background(), services.RegisterManagerInput{
		RegisterInput: services.RegisterInput{
			Username: seedManagerUsername,
			Password: seedManagerPassword,
		},
	})
	if errors.Is(err, services.ErrUsernameTaken) {
		log.Info("manager already exists", "username", seedManagerUsername)
		return nil
	}
	if err != nil {
		return err
	}

	log.Info("seeded manager", "username", seedManagerUsername)
	return nil
}
