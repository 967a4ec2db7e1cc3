package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestUserRepository_ExistsByUsername(t *testing.T) {
	query := regexp.QuoteMeta("SELECT count(*) FROM `users` WHERE username = ?")

	t.Run("taken", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(query).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))

		exists, err := NewUserRepository(db).ExistsByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("free", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(query).
			WithArgs("bob").
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))

		exists, err := NewUserRepository(db).ExistsByUsername(context.Background(), "bob")
		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := newMockDB(t)
		boom := errors.New("connection reset")
		mock.ExpectQuery(query).WithArgs("carol").WillReturnError(boom)

		_, err := NewUserRepository(db).ExistsByUsername(context.Background(), "carol")
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	update := regexp.QuoteMeta("UPDATE `users` SET `password_hash`=?")

	t.Run("updated", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(update).
			WithArgs("new-hash", sqlmock.AnyArg(), 7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewUserRepository(db).UpdatePassword(context.Background(), 7, "new-hash"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(update).
			WithArgs("new-hash", sqlmock.AnyArg(), 8).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewUserRepository(db).UpdatePassword(context.Background(), 8, "new-hash")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
