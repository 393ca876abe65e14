package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// requestLog копит пути запросов, чтобы тесты могли утверждать
// "запроса не было"
type requestLog struct {
	mu    sync.Mutex
	paths []string
}

func (l *requestLog) add(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, path)
}

func (l *requestLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.paths)
}

func (l *requestLog) countPrefix(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, p := range l.paths {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *requestLog) {
	t.Helper()
	log := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r.Method + " " + r.URL.Path)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c, log
}

// Хелперы конверта в формате сервера

func writeSuccess(w http.ResponseWriter, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "message": message, "data": data})
}

func writeFail(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": "fail", "message": message})
}

func writeServerError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": message})
}

func feedData(page int, posts []Post) map[string]any {
	return map[string]any{"page": page, "has_more": len(posts) > 0, "posts": posts}
}

// seedSession логинит клиента локально, минуя сеть
func seedSession(c *Client, user *User) {
	c.Session.Dispatch(SessionAction{Type: ActionLogin, User: user})
}

// seedFeed кладет в кеш односраничную ленту
func seedFeed(c *Client, key Key, posts ...Post) {
	pagePosts := make([]Post, len(posts))
	copy(pagePosts, posts)
	c.Cache.Write(key, &PageSeq{Pages: []FeedPage{{Page: 1, HasMore: true, Posts: pagePosts}}})
}

func mkUser(id int64, username string) *User {
	return &User{
		ID:         id,
		Username:   username,
		FullName:   "User " + username,
		Following:  []int64{},
		Followers:  []int64{},
		LikedPosts: []int64{},
	}
}

func mkPost(id int64, owner *User, text string) Post {
	return Post{
		ID:       id,
		User:     ownerOf(owner),
		Text:     text,
		Img:      "/uploads/img.jpg",
		Likes:    []int64{},
		Comments: []Comment{},
	}
}
