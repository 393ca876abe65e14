package models

import (
	"time"
)

type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username   string    `gorm:"size:60;uniqueIndex" json:"username"`
	Email      string    `gorm:"size:255;uniqueIndex" json:"email"`
	Password   string    `gorm:"size:255" json:"-"`
	FullName   string    `gorm:"size:255" json:"full_name"`
	Bio        string    `gorm:"type:text" json:"bio"`
	Link       string    `gorm:"size:255" json:"link"`
	ProfileImg string    `gorm:"size:512" json:"profile_img"`
	CoverImg   string    `gorm:"size:512" json:"cover_img"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Follow - направленное ребро подписки: user_id подписан на target_id.
// Пара (user_id, target_id) уникальна, обратное ребро не хранится.
type Follow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index:follow_edge_idx,unique" json:"user_id"`
	TargetID  int64     `gorm:"index:follow_edge_idx,unique;index" json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}

// UserView - публичное представление пользователя для API.
// Множества following/followers/liked_posts отдаются списками ID,
// чтобы клиент мог делать оптимистичные переключения членства.
type UserView struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	FullName   string    `json:"full_name"`
	Bio        string    `json:"bio"`
	Link       string    `json:"link"`
	ProfileImg string    `json:"profile_img"`
	CoverImg   string    `json:"cover_img"`
	Following  []int64   `json:"following"`
	Followers  []int64   `json:"followers"`
	LikedPosts []int64   `json:"liked_posts"`
	CreatedAt  time.Time `json:"created_at"`
}

// SuggestedUser - урезанная карточка для блока рекомендаций
type SuggestedUser struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	ProfileImg string `json:"profile_img"`
}
