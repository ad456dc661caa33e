// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"todo/internal/database"
	"todo/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLite returns a private in-memory database with the schema applied.
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

// CreateUser stores a user with a placeholder password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()

	user := &model.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "hashed_password",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
