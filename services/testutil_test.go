package services

import (
	"context"
	"testing"

	"microblog/db"
	"microblog/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB поднимает SQLite в памяти вместо боевой базы.
// Один коннект, чтобы in-memory база не исчезала между запросами.
func setupTestDB(t *testing.T) {
	t.Helper()

	database, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database))

	prev := db.ORM
	db.ORM = database
	t.Cleanup(func() {
		db.ORM = prev
		sqlDB.Close()
	})
}

func createTestUser(t *testing.T, username string) *models.User {
	t.Helper()
	us := NewUserService()
	user, err := us.Register(context.Background(), username, gofakeit.Email(), "password123", gofakeit.Name())
	require.NoError(t, err)
	return user
}

func createTestPost(t *testing.T, userID int64, text string) *models.Post {
	t.Helper()
	ps := NewPostService()
	post, err := ps.CreatePost(context.Background(), userID, text, "/uploads/"+gofakeit.UUID()+".jpg")
	require.NoError(t, err)
	return post
}

func notificationCount(t *testing.T, toID int64, kind models.NotificationKind) int64 {
	t.Helper()
	var count int64
	err := db.ORM.Model(&models.Notification{}).
		Where("to_id = ? AND kind = ?", toID, kind).
		Count(&count).Error
	require.NoError(t, err)
	return count
}
