package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"microblog/api/middleware"
	"microblog/services"

	"github.com/gin-gonic/gin"
)

var postService = services.NewPostService()

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// GetAllPosts - общая лента с пагинацией
func GetAllPosts(c *gin.Context) {
	feedPage, err := postService.AllPosts(c.Request.Context(), pageParam(c))
	if err != nil {
		respondError(c, "Failed to get posts")
		return
	}
	respondSuccess(c, http.StatusOK, "", gin.H{
		"page":     feedPage.Page,
		"has_more": feedPage.HasMore,
		"posts":    feedPage.Posts,
	})
}

// GetUserPosts - посты пользователя по username
func GetUserPosts(c *gin.Context) {
	username := c.Param("username")
	feedPage, err := postService.UserPosts(c.Request.Context(), username, pageParam(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondFail(c, http.StatusNotFound, "User not found")
			return
		}
		respondError(c, "Failed to get posts")
		return
	}
	respondSuccess(c, http.StatusOK, "", gin.H{
		"page":     feedPage.Page,
		"has_more": feedPage.HasMore,
		"posts":    feedPage.Posts,
	})
}

// GetFollowingPosts - лента подписок текущего пользователя
func GetFollowingPosts(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	feedPage, err := postService.FollowingPosts(c.Request.Context(), userID, pageParam(c))
	if err != nil {
		respondError(c, "Failed to get posts")
		return
	}
	respondSuccess(c, http.StatusOK, "", gin.H{
		"page":     feedPage.Page,
		"has_more": feedPage.HasMore,
		"posts":    feedPage.Posts,
	})
}

// GetLikedPosts - лайкнутые посты пользователя
func GetLikedPosts(c *gin.Context) {
	username := c.Param("username")
	feedPage, err := postService.LikedPosts(c.Request.Context(), username, pageParam(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondFail(c, http.StatusNotFound, "User not found")
			return
		}
		respondError(c, "Failed to get posts")
		return
	}
	respondSuccess(c, http.StatusOK, "", gin.H{
		"page":        feedPage.Page,
		"has_more":    feedPage.HasMore,
		"liked_posts": feedPage.Posts,
	})
}

// CreatePost принимает multipart с текстом и одной картинкой.
// Оба поля обязательны.
func CreatePost(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	text := c.PostForm("text")
	fileHeader, err := c.FormFile("img")
	if text == "" || err != nil {
		respondFail(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, "Failed to read image")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, "Failed to read image")
		return
	}

	imgURL, err := services.GlobalUploader.Upload(fileHeader.Filename, data)
	if err != nil {
		respondError(c, "Failed to store image")
		return
	}

	post, err := postService.CreatePost(c.Request.Context(), userID, text, imgURL)
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) {
			respondFail(c, http.StatusBadRequest, "Missing required fields")
			return
		}
		respondError(c, "Failed to create post")
		return
	}

	view, err := postService.GetPostView(c.Request.Context(), post.ID)
	if err != nil {
		respondError(c, "Failed to create post")
		return
	}
	respondSuccess(c, http.StatusOK, "", gin.H{"post": view})
}

// DeletePost удаляет пост и его картинку из хранилища
func DeletePost(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	post, err := postService.DeletePost(c.Request.Context(), userID, postID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPostNotFound):
			respondFail(c, http.StatusNotFound, "Post not found")
		case errors.Is(err, services.ErrNotPostOwner):
			respondFail(c, http.StatusUnauthorized, "You are not the owner of this post")
		default:
			respondError(c, "Failed to delete post")
		}
		return
	}

	if post.Img != "" {
		if err := services.GlobalUploader.Remove(post.Img); err != nil {
			// Осиротевший файл не повод ломать ответ
			respondSuccess(c, http.StatusOK, "Post deleted successfully", gin.H{"post": post})
			return
		}
	}
	respondSuccess(c, http.StatusOK, "Post deleted successfully", gin.H{"post": post})
}

// CommentOnPost добавляет комментарий к посту
func CommentOnPost(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	_, err = postService.CommentOnPost(c.Request.Context(), userID, postID, req.Text)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			respondFail(c, http.StatusNotFound, "Post not found")
			return
		}
		respondError(c, "Failed to comment on post")
		return
	}
	middleware.RecordNotificationCreated("comment")

	view, err := postService.GetPostView(c.Request.Context(), postID)
	if err != nil {
		respondError(c, "Failed to comment on post")
		return
	}
	respondSuccess(c, http.StatusOK, "Post commented successfully", gin.H{"post": view})
}

// LikeUnlikePost переключает лайк текущего пользователя на посте
func LikeUnlikePost(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	liked, err := postService.ToggleLike(c.Request.Context(), userID, postID)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			respondFail(c, http.StatusNotFound, "Post not found")
			return
		}
		respondError(c, "Failed to like post")
		return
	}

	view, err := postService.GetPostView(c.Request.Context(), postID)
	if err != nil {
		respondError(c, "Failed to like post")
		return
	}

	if liked {
		middleware.RecordNotificationCreated("like")
		respondSuccess(c, http.StatusOK, "Post liked successfully", gin.H{"post": view})
		return
	}
	respondSuccess(c, http.StatusOK, "Post unliked successfully", gin.H{"post": view})
}
