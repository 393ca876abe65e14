package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"microblog/db"
	"microblog/models"
	"strings"

	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSelfFollow         = errors.New("you cannot follow yourself")
)

type UserService struct{}

func NewUserService() *UserService {
	return &UserService{}
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func verifyPassword(stored, password string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(hash) == parts[1]
}

// Register создает пользователя с захешированным паролем
func (us *UserService) Register(ctx context.Context, username, email, password, fullName string) (*models.User, error) {
	var count int64
	err := db.GetReadOnlyDB(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	err = db.GetReadOnlyDB(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: passwordHash,
		FullName: fullName,
	}
	if err := db.GetWriteDB(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login проверяет пароль и возвращает пользователя
func (us *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !verifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (us *UserService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (us *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// BuildView собирает публичное представление с множествами подписок и лайков
func (us *UserService) BuildView(ctx context.Context, user *models.User, includeEmail bool) (*models.UserView, error) {
	view := &models.UserView{
		ID:         user.ID,
		Username:   user.Username,
		FullName:   user.FullName,
		Bio:        user.Bio,
		Link:       user.Link,
		ProfileImg: user.ProfileImg,
		CoverImg:   user.CoverImg,
		Following:  []int64{},
		Followers:  []int64{},
		LikedPosts: []int64{},
		CreatedAt:  user.CreatedAt,
	}
	if includeEmail {
		view.Email = user.Email
	}

	err := db.GetReadOnlyDB(ctx).Model(&models.Follow{}).
		Where("user_id = ?", user.ID).Order("id").Pluck("target_id", &view.Following).Error
	if err != nil {
		return nil, err
	}
	err = db.GetReadOnlyDB(ctx).Model(&models.Follow{}).
		Where("target_id = ?", user.ID).Order("id").Pluck("user_id", &view.Followers).Error
	if err != nil {
		return nil, err
	}
	err = db.GetReadOnlyDB(ctx).Model(&models.PostLike{}).
		Where("user_id = ?", user.ID).Order("id").Pluck("post_id", &view.LikedPosts).Error
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ToggleFollow подписывает или отписывает currentUserID от targetID.
// Оба направления меняются в одной транзакции; уведомление создается
// только при подписке. Возвращает true если подписались.
func (us *UserService) ToggleFollow(ctx context.Context, currentUserID, targetID int64) (followed bool, err error) {
	if currentUserID == targetID {
		return false, ErrSelfFollow
	}

	if _, err := us.GetByID(ctx, targetID); err != nil {
		return false, err
	}

	var existing models.Follow
	err = db.GetReadOnlyDB(ctx).
		Where("user_id = ? AND target_id = ?", currentUserID, targetID).
		First(&existing).Error

	if err == nil {
		// Уже подписан - отписываем
		err = db.GetWriteDB(ctx).Delete(&models.Follow{}, existing.ID).Error
		if err != nil {
			return false, fmt.Errorf("failed to unfollow: %w", err)
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	err = db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Follow{UserID: currentUserID, TargetID: targetID}).Error; err != nil {
			return err
		}
		return tx.Create(&models.Notification{
			FromID: currentUserID,
			ToID:   targetID,
			Kind:   models.NotifyFollow,
		}).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to follow: %w", err)
	}

	PushNotification(ctx, currentUserID, targetID, models.NotifyFollow)
	return true, nil
}

// SuggestedUsers возвращает случайную выборку без себя и уже зафолловленных
func (us *UserService) SuggestedUsers(ctx context.Context, currentUserID int64, limit int) ([]models.SuggestedUser, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	var followed []int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Follow{}).
		Where("user_id = ?", currentUserID).Pluck("target_id", &followed).Error
	if err != nil {
		return nil, err
	}
	excluded := append(followed, currentUserID)

	var users []models.User
	err = db.GetReadOnlyDB(ctx).
		Where("id NOT IN ?", excluded).
		Order("RANDOM()").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get suggested users: %w", err)
	}

	suggested := make([]models.SuggestedUser, 0, len(users))
	for _, u := range users {
		suggested = append(suggested, models.SuggestedUser{
			ID:         u.ID,
			Username:   u.Username,
			FullName:   u.FullName,
			ProfileImg: u.ProfileImg,
		})
	}
	return suggested, nil
}

// ProfileUpdate - частичное обновление профиля; nil-поля не трогаем
type ProfileUpdate struct {
	Username   *string
	Email      *string
	FullName   *string
	Bio        *string
	Link       *string
	ProfileImg *string
	CoverImg   *string
	Password   *string
	CurrentPwd *string
}

// UpdateProfile обновляет профиль. Смена пароля требует текущий пароль,
// новые username/email проверяются на занятость другими пользователями.
func (us *UserService) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*models.User, error) {
	user, err := us.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil || upd.Email != nil {
		username := user.Username
		if upd.Username != nil {
			username = *upd.Username
		}
		email := user.Email
		if upd.Email != nil {
			email = *upd.Email
		}
		var count int64
		err = db.GetReadOnlyDB(ctx).Model(&models.User{}).
			Where("(username = ? OR email = ?) AND id != ?", username, email, userID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrUsernameTaken
		}
		user.Username = username
		user.Email = email
	}

	if upd.Password != nil {
		if upd.CurrentPwd == nil || !verifyPassword(user.Password, *upd.CurrentPwd) {
			return nil, ErrInvalidCredentials
		}
		hash, err := hashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if upd.FullName != nil {
		user.FullName = *upd.FullName
	}
	if upd.Bio != nil {
		user.Bio = *upd.Bio
	}
	if upd.Link != nil {
		user.Link = *upd.Link
	}
	if upd.ProfileImg != nil {
		user.ProfileImg = *upd.ProfileImg
	}
	if upd.CoverImg != nil {
		user.CoverImg = *upd.CoverImg
	}

	if err := db.GetWriteDB(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}
