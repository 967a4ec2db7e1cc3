// Package testutil sets up in-memory databases and users for tests.
package testutil

import (
	"context"

	"github.com/yukikurage/workforce-management-api/internal/database"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Password is the plain text password of every user made by CreateUser.
const Password = "password123"

// JWTSecret is long enough to pass config validation.
const JWTSecret = "test-secret-key-that-is-at-least-32-chars"

// TB is the part of testing.TB the helpers need. GinkgoT() satisfies it too.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
	Cleanup(func())
}

// NewDB opens a migrated in-memory sqlite database. A single connection keeps
// every query on the same in-memory schema.
func NewDB(t TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access connection pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// CreateUser stores an active user in the group for role and returns it with groups loaded.
func CreateUser(t TB, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	var managerProfile *models.ManagerProfile
	if role == models.RoleManager {
		managerProfile = &models.ManagerProfile{}
	}

	users := repository.NewUserRepository(db)
	ctx := context.Background()
	if err := users.CreateWithGroup(ctx, user, models.GroupForRole(role), &models.UserProfile{}, managerProfile); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}

	loaded, err := users.FindByID(ctx, user.ID, "Groups", "Profile", "ManagerProfile")
	if err != nil {
		t.Fatalf("failed to reload user %s: %v", username, err)
	}
	return loaded
}

// CreateManager is CreateUser with the manager role.
func CreateManager(t TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	return CreateUser(t, db, username, models.RoleManager)
}

// CreateWorker is CreateUser with the worker role.
func CreateWorker(t TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	return CreateUser(t, db, username, models.RoleWorker)
}
