package handlers

import (
	"errors"
	"net/http"

	"microblog/api/middleware"
	"microblog/services"

	"github.com/gin-gonic/gin"
)

var userService = services.NewUserService()

type SignupRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// setSessionCookie выставляет httpOnly SameSite=Strict cookie с токеном
func setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookieName, token, maxAge, "/", "", false, true)
}

func Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	user, err := userService.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			respondFail(c, http.StatusBadRequest, "Username is already taken")
		case errors.Is(err, services.ErrUserExists):
			respondFail(c, http.StatusBadRequest, "User already exists")
		default:
			respondError(c, "Internal server error")
		}
		return
	}

	token, err := services.GlobalTokenService.Generate(user.ID)
	if err != nil {
		respondError(c, "Internal server error")
		return
	}
	setSessionCookie(c, token, int(services.GlobalTokenService.TTL().Seconds()))

	view, err := userService.BuildView(c.Request.Context(), user, true)
	if err != nil {
		respondError(c, "Internal server error")
		return
	}
	respondSuccess(c, http.StatusCreated, "User created successfully", gin.H{"user": view})
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Please provide email and password")
		return
	}

	user, err := userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondFail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		respondError(c, "Internal server error")
		return
	}

	token, err := services.GlobalTokenService.Generate(user.ID)
	if err != nil {
		respondError(c, "Internal server error")
		return
	}
	setSessionCookie(c, token, int(services.GlobalTokenService.TTL().Seconds()))

	view, err := userService.BuildView(c.Request.Context(), user, true)
	if err != nil {
		respondError(c, "Internal server error")
		return
	}
	respondSuccess(c, http.StatusOK, "User logged in successfully", gin.H{"user": view})
}

func Logout(c *gin.Context) {
	// Затираем cookie коротким сроком жизни
	setSessionCookie(c, "loggedout", 10)
	respondSuccess(c, http.StatusOK, "User logged out successfully", nil)
}

// Me - session probe: возвращает текущего пользователя по cookie
func Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondFail(c, http.StatusUnauthorized, "You are not logged in")
		return
	}

	user, err := userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondFail(c, http.StatusUnauthorized, "User no longer exists")
			return
		}
		respondError(c, "Internal server error")
		return
	}

	view, err := userService.BuildView(c.Request.Context(), user, true)
	if err != nil {
		respondError(c, "Internal server error")
		return
	}
	respondSuccess(c, http.StatusOK, "", gin.H{"user": view})
}
