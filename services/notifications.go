package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"microblog/db"
	"microblog/models"

	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotNotificationOwner = errors.New("you are not authorized to delete this notification")
)

type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// ListAndMarkRead возвращает уведомления пользователя (новые сверху)
// и помечает их все прочитанными - побочный эффект самого просмотра
func (ns *NotificationService) ListAndMarkRead(ctx context.Context, userID int64) ([]models.NotificationView, error) {
	var notifications []models.Notification
	err := db.GetReadOnlyDB(ctx).
		Where("to_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}

	views := make([]models.NotificationView, 0, len(notifications))
	if len(notifications) == 0 {
		return views, nil
	}

	fromIDs := make([]int64, 0, len(notifications))
	for _, n := range notifications {
		fromIDs = append(fromIDs, n.FromID)
	}
	var users []models.User
	if err := db.GetReadOnlyDB(ctx).Where("id IN ?", fromIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	senders := make(map[int64]models.PostOwner, len(users))
	for _, u := range users {
		senders[u.ID] = models.PostOwner{
			ID:         u.ID,
			Username:   u.Username,
			FullName:   u.FullName,
			ProfileImg: u.ProfileImg,
		}
	}

	for _, n := range notifications {
		views = append(views, models.NotificationView{
			ID:        n.ID,
			From:      senders[n.FromID],
			Kind:      n.Kind,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}

	err = db.GetWriteDB(ctx).Model(&models.Notification{}).
		Where("to_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		return nil, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return views, nil
}

// DeleteAll удаляет все уведомления пользователя
func (ns *NotificationService) DeleteAll(ctx context.Context, userID int64) error {
	err := db.GetWriteDB(ctx).Where("to_id = ?", userID).Delete(&models.Notification{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}

// DeleteOne удаляет одно уведомление; чужое удалить нельзя
func (ns *NotificationService) DeleteOne(ctx context.Context, userID, notificationID int64) error {
	var notification models.Notification
	err := db.GetReadOnlyDB(ctx).First(&notification, notificationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return err
	}
	if notification.ToID != userID {
		return ErrNotNotificationOwner
	}
	return db.GetWriteDB(ctx).Delete(&models.Notification{}, notificationID).Error
}

// PushNotification доставляет live-уведомление получателю: публикуем
// в RabbitMQ, при недоступном брокере шлем напрямую в WebSocket.
// Ошибки доставки не прерывают основную операцию.
func PushNotification(ctx context.Context, fromID, toID int64, kind models.NotificationKind) {
	event := NotificationEvent{
		FromID: fromID,
		ToID:   toID,
		Kind:   string(kind),
	}
	if err := PublishNotificationEvent(ctx, event); err != nil {
		log.Printf("DEBUG: RabbitMQ unavailable, pushing notification directly: %v", err)
		if err := SendWsNotify(toID, string(kind), fmt.Sprintf("New %s notification", kind)); err != nil {
			log.Printf("ERROR: failed to push notification to user %d: %v", toID, err)
		}
	}
}
