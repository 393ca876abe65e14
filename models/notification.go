package models

import "time"

type NotificationKind string

const (
	NotifyLike    NotificationKind = "like"
	NotifyComment NotificationKind = "comment"
	NotifyFollow  NotificationKind = "follow"
)

// Notification - уведомление о лайке, комментарии или подписке.
// Создается только на положительное действие, unlike/unfollow не уведомляют.
type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	FromID    int64            `gorm:"index" json:"from_id"`
	ToID      int64            `gorm:"index" json:"to_id"`
	Kind      NotificationKind `gorm:"size:20" json:"kind"`
	Read      bool             `gorm:"default:false" json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationView - уведомление с карточкой отправителя
type NotificationView struct {
	ID        int64            `json:"id"`
	From      PostOwner        `json:"from"`
	Kind      NotificationKind `json:"kind"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
