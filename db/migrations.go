package db

import (
	"fmt"

	"gorm.io/gorm"
)

// CreateFeedIndexes создает составные индексы под горячие запросы лент.
// AutoMigrate их не покрывает, поэтому создаем вручную (idempotent).
func CreateFeedIndexes(database *gorm.DB) error {
	indexes := []struct {
		name string
		sql  string
	}{
		{
			"idx_posts_user_created_at",
			"CREATE INDEX IF NOT EXISTS idx_posts_user_created_at ON posts (user_id, created_at DESC)",
		},
		{
			"idx_notifications_to_created_at",
			"CREATE INDEX IF NOT EXISTS idx_notifications_to_created_at ON notifications (to_id, created_at DESC)",
		},
		{
			"idx_comments_post_created_at",
			"CREATE INDEX IF NOT EXISTS idx_comments_post_created_at ON comments (post_id, created_at)",
		},
	}
	for _, idx := range indexes {
		if err := database.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}
