package handlers

import (
	"log"
	"net/http"

	"microblog/api/middleware"
	"microblog/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NotificationsWS держит WebSocket для live-уведомлений текущего пользователя
func NotificationsWS(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondFail(c, http.StatusUnauthorized, "You are not logged in")
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ERROR: websocket upgrade failed for user %d: %v", userID, err)
		return
	}

	services.GlobalWSConnManager.Add(userID, conn)
	defer func() {
		services.GlobalWSConnManager.Remove(userID, conn)
		_ = conn.Close()
	}()

	// Читаем до закрытия клиентом; входящие сообщения игнорируем
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
