package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"strings"
)

// Виды ошибок API: fail/error приходят от сервера в конверте,
// network означает, что ответа не было вовсе.
const (
	ErrKindFail    = "fail"
	ErrKindError   = "error"
	ErrKindNetwork = "network"
)

// APIError - типизированная ошибка ресурсного клиента
type APIError struct {
	Kind    string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsAuthError: сервер отверг сессию, нужен re-probe
func (e *APIError) IsAuthError() bool {
	return e.Code == http.StatusUnauthorized
}

// envelope - конверт всех ответов сервера
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// API - тонкие обертки над HTTP, по методу на операцию сервера.
// Cookie jar возит сессионную cookie автоматически.
type API struct {
	baseURL string
	http    *http.Client
}

func NewAPI(baseURL string) (*API, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
	}, nil
}

// do выполняет запрос и возвращает data из конверта.
// Не-2xx превращается в APIError с серверным сообщением.
func (a *API) do(ctx context.Context, method, path string, body io.Reader, contentType string) (json.RawMessage, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, "", &APIError{Kind: ErrKindNetwork, Message: err.Error()}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, "", &APIError{Kind: ErrKindNetwork, Message: "Network error"}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, "", &APIError{Kind: ErrKindNetwork, Code: resp.StatusCode, Message: "Invalid server response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := env.Status
		if kind != ErrKindFail && kind != ErrKindError {
			kind = ErrKindError
		}
		message := env.Message
		if message == "" {
			message = "An unknown error occurred"
		}
		return nil, "", &APIError{Kind: kind, Code: resp.StatusCode, Message: message}
	}
	return env.Data, env.Message, nil
}

func (a *API) getJSON(ctx context.Context, path string, out any) error {
	data, _, err := a.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (a *API) postJSON(ctx context.Context, path string, payload any, out any) (string, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return "", err
		}
		body = bytes.NewReader(raw)
	}
	data, message, err := a.do(ctx, http.MethodPost, path, body, "application/json")
	if err != nil {
		return "", err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return "", err
		}
	}
	return message, nil
}

// --- auth ---

type SignupParams struct {
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) Signup(ctx context.Context, params SignupParams) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if _, err := a.postJSON(ctx, "/api/v1/auth/signup", params, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (a *API) Login(ctx context.Context, email, password string) (*User, error) {
	payload := map[string]string{"email": email, "password": password}
	var out struct {
		User *User `json:"user"`
	}
	if _, err := a.postJSON(ctx, "/api/v1/auth/login", payload, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (a *API) Logout(ctx context.Context) error {
	_, err := a.postJSON(ctx, "/api/v1/auth/logout", nil, nil)
	return err
}

// Me - session probe по транспортной cookie
func (a *API) Me(ctx context.Context) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := a.getJSON(ctx, "/api/v1/auth/me", &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// --- posts ---

func (a *API) decodeFeedPage(ctx context.Context, path string) (*FeedPage, error) {
	var out struct {
		Page    int    `json:"page"`
		HasMore bool   `json:"has_more"`
		Posts   []Post `json:"posts"`
		// Лента лайков приходит под другим ключом
		LikedPosts []Post `json:"liked_posts"`
	}
	if err := a.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	posts := out.Posts
	if posts == nil {
		posts = out.LikedPosts
	}
	if posts == nil {
		posts = []Post{}
	}
	return &FeedPage{Page: out.Page, HasMore: out.HasMore, Posts: posts}, nil
}

func (a *API) Posts(ctx context.Context, page int) (*FeedPage, error) {
	return a.decodeFeedPage(ctx, fmt.Sprintf("/api/v1/posts?page=%d", page))
}

func (a *API) UserPosts(ctx context.Context, username string, page int) (*FeedPage, error) {
	return a.decodeFeedPage(ctx, fmt.Sprintf("/api/v1/posts/user/%s?page=%d", username, page))
}

func (a *API) FollowingPosts(ctx context.Context, page int) (*FeedPage, error) {
	return a.decodeFeedPage(ctx, fmt.Sprintf("/api/v1/posts/following?page=%d", page))
}

func (a *API) LikedPosts(ctx context.Context, username string, page int) (*FeedPage, error) {
	return a.decodeFeedPage(ctx, fmt.Sprintf("/api/v1/posts/liked/%s?page=%d", username, page))
}

// CreatePost шлет multipart с текстом и картинкой
func (a *API) CreatePost(ctx context.Context, text, filename string, img []byte) (*Post, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("text", text); err != nil {
		return nil, err
	}
	fw, err := mw.CreateFormFile("img", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(img); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	data, _, err := a.do(ctx, http.MethodPost, "/api/v1/posts/create", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var out struct {
		Post *Post `json:"post"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

func (a *API) DeletePost(ctx context.Context, postID int64) (string, error) {
	_, message, err := a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", postID), nil, "")
	return message, err
}

func (a *API) CommentOnPost(ctx context.Context, postID int64, text string) (*Post, error) {
	payload := map[string]string{"text": text}
	var out struct {
		Post *Post `json:"post"`
	}
	if _, err := a.postJSON(ctx, fmt.Sprintf("/api/v1/posts/comment/%d", postID), payload, &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

// LikeUnlikePost переключает лайк; сервер отвечает авторитетным постом
func (a *API) LikeUnlikePost(ctx context.Context, postID int64) (*Post, string, error) {
	var out struct {
		Post *Post `json:"post"`
	}
	message, err := a.postJSON(ctx, fmt.Sprintf("/api/v1/posts/like/%d", postID), nil, &out)
	if err != nil {
		return nil, "", err
	}
	return out.Post, message, nil
}

// --- users ---

func (a *API) Profile(ctx context.Context, username string) (*User, error) {
	var out struct {
		Profile *User `json:"profile"`
	}
	if err := a.getJSON(ctx, "/api/v1/users/profile/"+username, &out); err != nil {
		return nil, err
	}
	return out.Profile, nil
}

func (a *API) SuggestedUsers(ctx context.Context) ([]SuggestedUser, error) {
	var out struct {
		SuggestedUsers []SuggestedUser `json:"suggested_users"`
	}
	if err := a.getJSON(ctx, "/api/v1/users/suggested", &out); err != nil {
		return nil, err
	}
	return out.SuggestedUsers, nil
}

func (a *API) FollowUser(ctx context.Context, targetID int64) (string, error) {
	return a.postJSON(ctx, fmt.Sprintf("/api/v1/users/follow/%d", targetID), nil, nil)
}

type ProfileUpdateParams struct {
	Username   *string `json:"username,omitempty"`
	Email      *string `json:"email,omitempty"`
	FullName   *string `json:"full_name,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	Link       *string `json:"link,omitempty"`
	Password   *string `json:"password,omitempty"`
	CurrentPwd *string `json:"current_password,omitempty"`
}

func (a *API) UpdateProfile(ctx context.Context, params ProfileUpdateParams) (*User, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	data, _, err := a.do(ctx, http.MethodPatch, "/api/v1/users/update", bytes.NewReader(raw), "application/json")
	if err != nil {
		return nil, err
	}
	var out struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// UpdateProfileWithImages - multipart-вариант, когда меняются картинки
func (a *API) UpdateProfileWithImages(ctx context.Context, params ProfileUpdateParams, profileImg, coverImg []byte) (*User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	writeField := func(name string, v *string) error {
		if v == nil {
			return nil
		}
		return mw.WriteField(name, *v)
	}
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"username", params.Username},
		{"email", params.Email},
		{"full_name", params.FullName},
		{"bio", params.Bio},
		{"link", params.Link},
		{"password", params.Password},
		{"current_password", params.CurrentPwd},
	} {
		if err := writeField(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if len(profileImg) > 0 {
		fw, err := mw.CreateFormFile("profile_img", "profile.jpg")
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(profileImg); err != nil {
			return nil, err
		}
	}
	if len(coverImg) > 0 {
		fw, err := mw.CreateFormFile("cover_img", "cover.jpg")
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(coverImg); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	data, _, err := a.do(ctx, http.MethodPatch, "/api/v1/users/update", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var out struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// --- notifications ---

// Notifications возвращает уведомления; на сервере просмотр помечает
// их прочитанными
func (a *API) Notifications(ctx context.Context) ([]Notification, error) {
	var out struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := a.getJSON(ctx, "/api/v1/notifications", &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

func (a *API) DeleteNotifications(ctx context.Context) (string, error) {
	_, message, err := a.do(ctx, http.MethodDelete, "/api/v1/notifications", nil, "")
	return message, err
}

func (a *API) DeleteNotification(ctx context.Context, id int64) (string, error) {
	_, message, err := a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/notifications/%d", id), nil, "")
	return message, err
}
