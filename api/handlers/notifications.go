package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"microblog/api/middleware"
	"microblog/services"

	"github.com/gin-gonic/gin"
)

var notificationService = services.NewNotificationService()

// GetNotifications отдает уведомления текущего пользователя.
// Сам просмотр помечает их прочитанными.
func GetNotifications(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	notifications, err := notificationService.ListAndMarkRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "Failed to get notifications")
		return
	}
	respondSuccess(c, http.StatusOK, "", gin.H{"notifications": notifications})
}

// DeleteNotifications удаляет все уведомления текущего пользователя
func DeleteNotifications(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	if err := notificationService.DeleteAll(c.Request.Context(), userID); err != nil {
		respondError(c, "Failed to delete notifications")
		return
	}
	respondSuccess(c, http.StatusOK, "Notifications deleted successfully", nil)
}

// DeleteNotification удаляет одно уведомление
func DeleteNotification(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid notification id")
		return
	}

	err = notificationService.DeleteOne(c.Request.Context(), userID, notificationID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotificationNotFound):
			respondFail(c, http.StatusNotFound, "Notification not found")
		case errors.Is(err, services.ErrNotNotificationOwner):
			respondFail(c, http.StatusUnauthorized, "You are not authorized to delete this notification")
		default:
			respondError(c, "Failed to delete notification")
		}
		return
	}
	respondSuccess(c, http.StatusOK, "Notification deleted successfully", nil)
}
