package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"microblog/db"
	"microblog/models"
	"time"

	"gorm.io/gorm"
)

const (
	PAGE_SIZE            = 10              // Размер страницы ленты
	FEED_CACHE_TTL       = 5 * time.Minute // TTL кеша страниц ленты
	FEED_PAGE_KEY_PREFIX = "feed_page:"    // Префикс ключей страниц в Redis
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrMissingFields = errors.New("missing required fields")
	ErrNotPostOwner  = errors.New("you are not the owner of this post")
)

type PostService struct{}

func NewPostService() *PostService {
	return &PostService{}
}

// CreatePost создает пост. Текст и картинка обязательны (как и на клиенте,
// который режет пустые посты до сети).
func (ps *PostService) CreatePost(ctx context.Context, userID int64, text, imgURL string) (*models.Post, error) {
	if text == "" || imgURL == "" {
		return nil, ErrMissingFields
	}

	post := &models.Post{
		UserID: userID,
		Text:   text,
		Img:    imgURL,
	}
	if err := db.GetWriteDB(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	ps.invalidateFeedCache(ctx)
	return post, nil
}

// DeletePost удаляет пост вместе с лайками и комментариями.
// Возвращает удаленный пост, чтобы хендлер мог убрать картинку из хранилища.
func (ps *PostService) DeletePost(ctx context.Context, userID, postID int64) (*models.Post, error) {
	var post models.Post
	err := db.GetWriteDB(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrNotPostOwner
	}

	err = db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, postID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete post: %w", err)
	}

	ps.invalidateFeedCache(ctx)
	return &post, nil
}

// ToggleLike ставит или снимает лайк. Членство user в likes поста
// зеркалится в liked_posts пользователя одной парой записей post_likes.
// Уведомление создается только при лайке.
func (ps *PostService) ToggleLike(ctx context.Context, userID, postID int64) (liked bool, err error) {
	var post models.Post
	err = db.GetReadOnlyDB(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrPostNotFound
	}
	if err != nil {
		return false, err
	}

	var existing models.PostLike
	err = db.GetReadOnlyDB(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&existing).Error

	if err == nil {
		if err := db.GetWriteDB(ctx).Delete(&models.PostLike{}, existing.ID).Error; err != nil {
			return false, fmt.Errorf("failed to unlike post: %w", err)
		}
		ps.invalidateFeedCache(ctx)
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	err = db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
			return err
		}
		return tx.Create(&models.Notification{
			FromID: userID,
			ToID:   post.UserID,
			Kind:   models.NotifyLike,
		}).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to like post: %w", err)
	}

	PushNotification(ctx, userID, post.UserID, models.NotifyLike)
	ps.invalidateFeedCache(ctx)
	return true, nil
}

// CommentOnPost добавляет комментарий и уведомляет владельца поста
func (ps *PostService) CommentOnPost(ctx context.Context, userID, postID int64, text string) (*models.Comment, error) {
	if text == "" {
		return nil, ErrMissingFields
	}

	var post models.Post
	err := db.GetReadOnlyDB(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, UserID: userID, Text: text}
	err = db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Create(&models.Notification{
			FromID: userID,
			ToID:   post.UserID,
			Kind:   models.NotifyComment,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to comment on post: %w", err)
	}

	PushNotification(ctx, userID, post.UserID, models.NotifyComment)
	ps.invalidateFeedCache(ctx)
	return comment, nil
}

// GetPostView возвращает пост с автором, лайками и комментариями
func (ps *PostService) GetPostView(ctx context.Context, postID int64) (*models.PostView, error) {
	var post models.Post
	err := db.GetReadOnlyDB(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	views, err := ps.buildPostViews(ctx, []models.Post{post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// AllPosts - общая лента, новые сверху
func (ps *PostService) AllPosts(ctx context.Context, page int) (*models.FeedPage, error) {
	return ps.cachedPage(ctx, fmt.Sprintf("all:%d", page), page, func() ([]models.Post, error) {
		var posts []models.Post
		err := ps.pageQuery(ctx, page).Find(&posts).Error
		return posts, err
	})
}

// UserPosts - посты одного пользователя
func (ps *PostService) UserPosts(ctx context.Context, username string, page int) (*models.FeedPage, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return ps.cachedPage(ctx, fmt.Sprintf("user:%s:%d", username, page), page, func() ([]models.Post, error) {
		var posts []models.Post
		err := ps.pageQuery(ctx, page).Where("user_id = ?", user.ID).Find(&posts).Error
		return posts, err
	})
}

// FollowingPosts - посты тех, на кого подписан текущий пользователь
func (ps *PostService) FollowingPosts(ctx context.Context, userID int64, page int) (*models.FeedPage, error) {
	var followed []int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Follow{}).
		Where("user_id = ?", userID).Pluck("target_id", &followed).Error
	if err != nil {
		return nil, err
	}
	if len(followed) == 0 {
		return &models.FeedPage{Page: page, HasMore: false, Posts: []models.PostView{}}, nil
	}

	return ps.cachedPage(ctx, fmt.Sprintf("following:%d:%d", userID, page), page, func() ([]models.Post, error) {
		var posts []models.Post
		err := ps.pageQuery(ctx, page).Where("user_id IN ?", followed).Find(&posts).Error
		return posts, err
	})
}

// LikedPosts - посты, лайкнутые пользователем
func (ps *PostService) LikedPosts(ctx context.Context, username string, page int) (*models.FeedPage, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var likedIDs []int64
	err = db.GetReadOnlyDB(ctx).Model(&models.PostLike{}).
		Where("user_id = ?", user.ID).Pluck("post_id", &likedIDs).Error
	if err != nil {
		return nil, err
	}
	if len(likedIDs) == 0 {
		return &models.FeedPage{Page: page, HasMore: false, Posts: []models.PostView{}}, nil
	}

	return ps.cachedPage(ctx, fmt.Sprintf("liked:%s:%d", username, page), page, func() ([]models.Post, error) {
		var posts []models.Post
		err := ps.pageQuery(ctx, page).Where("id IN ?", likedIDs).Find(&posts).Error
		return posts, err
	})
}

func (ps *PostService) pageQuery(ctx context.Context, page int) *gorm.DB {
	if page < 1 {
		page = 1
	}
	return db.GetReadOnlyDB(ctx).
		Model(&models.Post{}).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * PAGE_SIZE).
		Limit(PAGE_SIZE)
}

// cachedPage отдает страницу из Redis или строит из БД и кеширует.
// has_more истинен тогда и только тогда, когда страница непустая.
func (ps *PostService) cachedPage(ctx context.Context, cacheSuffix string, page int, query func() ([]models.Post, error)) (*models.FeedPage, error) {
	cacheKey := FEED_PAGE_KEY_PREFIX + cacheSuffix

	if RedisClient != nil {
		if raw, err := RedisClient.Get(ctx, cacheKey).Result(); err == nil {
			var cached models.FeedPage
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	posts, err := query()
	if err != nil {
		return nil, fmt.Errorf("failed to get feed posts: %w", err)
	}

	views, err := ps.buildPostViews(ctx, posts)
	if err != nil {
		return nil, err
	}

	feedPage := &models.FeedPage{
		Page:    page,
		HasMore: len(views) > 0,
		Posts:   views,
	}

	if RedisClient != nil {
		if data, err := json.Marshal(feedPage); err == nil {
			RedisClient.Set(ctx, cacheKey, data, FEED_CACHE_TTL)
		}
	}
	return feedPage, nil
}

// invalidateFeedCache сбрасывает все закешированные страницы лент.
// Любая запись меняет несколько лент сразу, поэтому сбрасываем префиксом.
func (ps *PostService) invalidateFeedCache(ctx context.Context) {
	if RedisClient == nil {
		return
	}
	keys, err := RedisClient.Keys(ctx, FEED_PAGE_KEY_PREFIX+"*").Result()
	if err != nil {
		log.Printf("ERROR: failed to list feed cache keys: %v", err)
		return
	}
	if len(keys) > 0 {
		RedisClient.Del(ctx, keys...)
	}
}

// buildPostViews дособирает к постам авторов, лайки и комментарии батчами
func (ps *PostService) buildPostViews(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	views := make([]models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]int64, 0, len(posts))
	ownerIDs := make([]int64, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		ownerIDs = append(ownerIDs, p.UserID)
	}

	var likes []models.PostLike
	if err := db.GetReadOnlyDB(ctx).Where("post_id IN ?", postIDs).Order("id").Find(&likes).Error; err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := db.GetReadOnlyDB(ctx).Where("post_id IN ?", postIDs).Order("created_at, id").Find(&comments).Error; err != nil {
		return nil, err
	}
	for _, c := range comments {
		ownerIDs = append(ownerIDs, c.UserID)
	}

	var users []models.User
	if err := db.GetReadOnlyDB(ctx).Where("id IN ?", ownerIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	owners := make(map[int64]models.PostOwner, len(users))
	for _, u := range users {
		owners[u.ID] = models.PostOwner{
			ID:         u.ID,
			Username:   u.Username,
			FullName:   u.FullName,
			ProfileImg: u.ProfileImg,
		}
	}

	likesByPost := make(map[int64][]int64)
	for _, l := range likes {
		likesByPost[l.PostID] = append(likesByPost[l.PostID], l.UserID)
	}
	commentsByPost := make(map[int64][]models.CommentView)
	for _, c := range comments {
		commentsByPost[c.PostID] = append(commentsByPost[c.PostID], models.CommentView{
			ID:        c.ID,
			Text:      c.Text,
			User:      owners[c.UserID],
			CreatedAt: c.CreatedAt,
		})
	}

	for _, p := range posts {
		view := models.PostView{
			ID:        p.ID,
			User:      owners[p.UserID],
			Text:      p.Text,
			Img:       p.Img,
			Likes:     likesByPost[p.ID],
			Comments:  commentsByPost[p.ID],
			CreatedAt: p.CreatedAt,
		}
		if view.Likes == nil {
			view.Likes = []int64{}
		}
		if view.Comments == nil {
			view.Comments = []models.CommentView{}
		}
		views = append(views, view)
	}
	return views, nil
}
