package middleware

import (
	"net/http"

	"microblog/services"

	"github.com/gin-gonic/gin"
)

const SessionCookieName = "jwt"

// AuthRequired проверяет подписанный сессионный токен из httpOnly cookie
// и кладет user_id в контекст запроса. Невалидный или протухший токен - 401.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "fail",
				"message": "You are not logged in",
			})
			return
		}

		userID, err := services.GlobalTokenService.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "fail",
				"message": "Invalid or expired session",
			})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// CurrentUserID достает user_id, положенный AuthRequired
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	userID, ok := v.(int64)
	return userID, ok
}
