package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Все ответы API заворачиваются в единый конверт:
// успех  - {status:"success", message?, data:{...}}
// 4xx    - {status:"fail", message}
// 5xx    - {status:"error", message}

func respondSuccess(c *gin.Context, code int, message string, data gin.H) {
	body := gin.H{"status": "success"}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(code, body)
}

func respondFail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "fail", "message": message})
}

func respondError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": message})
}
