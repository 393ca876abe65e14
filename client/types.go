package client

import "time"

// Типы ответов сервера, как их видит клиент. Имена полей повторяют
// JSON сервера один в один.

type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	FullName   string    `json:"full_name"`
	Bio        string    `json:"bio"`
	Link       string    `json:"link"`
	ProfileImg string    `json:"profile_img"`
	CoverImg   string    `json:"cover_img"`
	Following  []int64   `json:"following"`
	Followers  []int64   `json:"followers"`
	LikedPosts []int64   `json:"liked_posts"`
	CreatedAt  time.Time `json:"created_at"`
}

type PostOwner struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	ProfileImg string `json:"profile_img"`
}

type Comment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	User      PostOwner `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// Post - пост в ленте. TempID заполняется только у оптимистичных постов,
// созданных локально до ответа сервера, и наружу не сериализуется.
type Post struct {
	ID        int64     `json:"id"`
	TempID    string    `json:"-"`
	User      PostOwner `json:"user"`
	Text      string    `json:"text"`
	Img       string    `json:"img"`
	Likes     []int64   `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedPage - одна страница ленты. HasMore истинен тогда и только тогда,
// когда страница непустая.
type FeedPage struct {
	Page    int    `json:"page"`
	HasMore bool   `json:"has_more"`
	Posts   []Post `json:"posts"`
}

// PageSeq - накопленная последовательность страниц одной параметризации
type PageSeq struct {
	Pages []FeedPage
}

// Items возвращает посты всех загруженных страниц в порядке страниц
func (s *PageSeq) Items() []Post {
	if s == nil {
		return nil
	}
	var items []Post
	for _, page := range s.Pages {
		items = append(items, page.Posts...)
	}
	return items
}

// HasNextPage: есть ли смысл запрашивать следующую страницу
func (s *PageSeq) HasNextPage() bool {
	if s == nil || len(s.Pages) == 0 {
		return true
	}
	return s.Pages[len(s.Pages)-1].HasMore
}

type SuggestedUser struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	ProfileImg string `json:"profile_img"`
}

type Notification struct {
	ID        int64     `json:"id"`
	From      PostOwner `json:"from"`
	Kind      string    `json:"kind"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
