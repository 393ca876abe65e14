package routes

import (
	"microblog/api/handlers"
	"microblog/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func PublicApi(router *gin.Engine) *gin.RouterGroup {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1/")
	{
		api.POST("auth/signup", handlers.Signup)
		api.POST("auth/login", handlers.Login)
		api.POST("auth/logout", handlers.Logout)
		api.GET("auth/me", middleware.AuthRequired(), handlers.Me)

		// Посты
		posts := api.Group("posts/", middleware.AuthRequired())
		{
			posts.GET("", handlers.GetAllPosts)
			posts.GET("user/:username", handlers.GetUserPosts)
			posts.GET("following", handlers.GetFollowingPosts)
			posts.GET("liked/:username", handlers.GetLikedPosts)
			posts.POST("create", handlers.CreatePost)
			posts.DELETE(":id", handlers.DeletePost)
			posts.POST("comment/:id", handlers.CommentOnPost)
			posts.POST("like/:id", handlers.LikeUnlikePost)
		}

		// Пользователи
		users := api.Group("users/", middleware.AuthRequired())
		{
			users.GET("profile/:username", handlers.GetUserProfile)
			users.GET("suggested", handlers.GetSuggestedUsers)
			users.POST("follow/:id", handlers.FollowUnfollowUser)
			users.PATCH("update", handlers.UpdateUserProfile)
		}

		// Уведомления
		notifications := api.Group("notifications/", middleware.AuthRequired())
		{
			notifications.GET("", handlers.GetNotifications)
			notifications.DELETE("", handlers.DeleteNotifications)
			notifications.DELETE(":id", handlers.DeleteNotification)
		}

		api.GET("ws", middleware.AuthRequired(), handlers.NotificationsWS)
	}
	return api
}
