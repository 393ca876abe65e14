package models

import "time"

// Post - модель поста пользователя
type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index" json:"user_id"`
	Text      string    `gorm:"type:text" json:"text"`
	Img       string    `gorm:"size:512" json:"img"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

// PostLike - лайк поста. Пара (post_id, user_id) уникальна,
// зеркалит множество liked_posts пользователя.
type PostLike struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"index:post_like_idx,unique" json:"post_id"`
	UserID    int64     `gorm:"index:post_like_idx,unique;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string {
	return "post_likes"
}

// Comment - комментарий, принадлежит ровно одному посту
type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"index" json:"post_id"`
	UserID    int64     `gorm:"index" json:"user_id"`
	Text      string    `gorm:"type:text" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

// CommentView - комментарий с автором для выдачи в ленту
type CommentView struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	User      PostOwner `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// PostOwner - карточка автора внутри поста/комментария
type PostOwner struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	ProfileImg string `json:"profile_img"`
}

// PostView - пост с автором, лайками и комментариями
type PostView struct {
	ID        int64         `json:"id"`
	User      PostOwner     `json:"user"`
	Text      string        `json:"text"`
	Img       string        `json:"img"`
	Likes     []int64       `json:"likes"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"created_at"`
}

// FeedPage - страница ленты. has_more истинен тогда и только тогда,
// когда страница непустая: признаком конца ленты служит пустая страница.
type FeedPage struct {
	Page    int        `json:"page"`
	HasMore bool       `json:"has_more"`
	Posts   []PostView `json:"posts"`
}
