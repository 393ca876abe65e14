package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"microblog/api/middleware"
	"microblog/services"

	"github.com/gin-gonic/gin"
)

// GetUserProfile - публичный профиль по username
func GetUserProfile(c *gin.Context) {
	username := c.Param("username")

	user, err := userService.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondFail(c, http.StatusNotFound, "User not found")
			return
		}
		respondError(c, "Internal server error")
		return
	}

	view, err := userService.BuildView(c.Request.Context(), user, false)
	if err != nil {
		respondError(c, "Internal server error")
		return
	}
	respondSuccess(c, http.StatusOK, "", gin.H{"profile": view})
}

// GetSuggestedUsers - случайные пользователи без себя и уже зафолловленных
func GetSuggestedUsers(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	suggested, err := userService.SuggestedUsers(c.Request.Context(), userID, 5)
	if err != nil {
		respondError(c, "Failed to get suggested users")
		return
	}
	respondSuccess(c, http.StatusOK, "", gin.H{"suggested_users": suggested})
}

// FollowUnfollowUser переключает подписку на пользователя
func FollowUnfollowUser(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	followed, err := userService.ToggleFollow(c.Request.Context(), userID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfFollow):
			respondFail(c, http.StatusBadRequest, "You cannot follow yourself")
		case errors.Is(err, services.ErrUserNotFound):
			respondFail(c, http.StatusNotFound, "User not found")
		default:
			respondError(c, "Failed to follow user")
		}
		return
	}

	if followed {
		middleware.RecordNotificationCreated("follow")
		respondSuccess(c, http.StatusOK, "User followed successfully", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "User unfollowed successfully", nil)
}

func uploadFormImage(fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	return services.GlobalUploader.Upload(fileHeader.Filename, data)
}

// UpdateUserProfile обновляет профиль. Принимает JSON либо multipart,
// когда вместе с полями загружаются картинки профиля/обложки.
func UpdateUserProfile(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var upd services.ProfileUpdate

	strPtr := func(s string) *string { return &s }

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if v, ok := c.GetPostForm("username"); ok {
			upd.Username = strPtr(v)
		}
		if v, ok := c.GetPostForm("email"); ok {
			upd.Email = strPtr(v)
		}
		if v, ok := c.GetPostForm("full_name"); ok {
			upd.FullName = strPtr(v)
		}
		if v, ok := c.GetPostForm("bio"); ok {
			upd.Bio = strPtr(v)
		}
		if v, ok := c.GetPostForm("link"); ok {
			upd.Link = strPtr(v)
		}
		if v, ok := c.GetPostForm("password"); ok {
			upd.Password = strPtr(v)
		}
		if v, ok := c.GetPostForm("current_password"); ok {
			upd.CurrentPwd = strPtr(v)
		}

		oldUser, err := userService.GetByID(c.Request.Context(), userID)
		if err != nil {
			respondError(c, "Internal server error")
			return
		}

		if fh, err := c.FormFile("profile_img"); err == nil {
			url, err := uploadFormImage(fh)
			if err != nil {
				respondError(c, "Failed to store image")
				return
			}
			if oldUser.ProfileImg != "" {
				_ = services.GlobalUploader.Remove(oldUser.ProfileImg)
			}
			upd.ProfileImg = &url
		}
		if fh, err := c.FormFile("cover_img"); err == nil {
			url, err := uploadFormImage(fh)
			if err != nil {
				respondError(c, "Failed to store image")
				return
			}
			if oldUser.CoverImg != "" {
				_ = services.GlobalUploader.Remove(oldUser.CoverImg)
			}
			upd.CoverImg = &url
		}
	} else {
		var req struct {
			Username   *string `json:"username"`
			Email      *string `json:"email"`
			FullName   *string `json:"full_name"`
			Bio        *string `json:"bio"`
			Link       *string `json:"link"`
			Password   *string `json:"password"`
			CurrentPwd *string `json:"current_password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondFail(c, http.StatusBadRequest, "Invalid request")
			return
		}
		upd.Username = req.Username
		upd.Email = req.Email
		upd.FullName = req.FullName
		upd.Bio = req.Bio
		upd.Link = req.Link
		upd.Password = req.Password
		upd.CurrentPwd = req.CurrentPwd
	}

	user, err := userService.UpdateProfile(c.Request.Context(), userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			respondFail(c, http.StatusBadRequest, "Username or email already exists")
		case errors.Is(err, services.ErrInvalidCredentials):
			respondFail(c, http.StatusBadRequest, "Incorrect current password")
		case errors.Is(err, services.ErrUserNotFound):
			respondFail(c, http.StatusNotFound, "User not found")
		default:
			respondError(c, "Failed to update profile")
		}
		return
	}

	view, err := userService.BuildView(c.Request.Context(), user, true)
	if err != nil {
		respondError(c, "Internal server error")
		return
	}
	respondSuccess(c, http.StatusOK, "Profile updated successfully", gin.H{"user": view})
}
