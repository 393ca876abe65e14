package routes

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"microblog/client"
	"microblog/db"
	"microblog/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupServer поднимает полный HTTP-стек поверх SQLite в памяти
func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database))

	prev := db.ORM
	db.ORM = database
	t.Cleanup(func() {
		db.ORM = prev
		sqlDB.Close()
	})

	require.NoError(t, services.InitTokenService("integration-test-secret-key", time.Hour))
	require.NoError(t, services.InitUploader(t.TempDir(), "/uploads"))

	router := gin.New()
	PublicApi(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func signupClient(t *testing.T, srv *httptest.Server, username string) *client.Client {
	t.Helper()
	c, err := client.New(srv.URL)
	require.NoError(t, err)
	_, err = c.Mut.Signup(context.Background(), client.SignupParams{
		FullName: "User " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return c
}

func TestSignupLoginAndSessionProbe(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	alice := signupClient(t, srv, "alice")
	require.NotNil(t, alice.Session.Current())
	require.Equal(t, "alice", alice.Session.Current().Username)

	// Новый клиент с тем же аккаунтом: логин и проба сессии
	c, err := client.New(srv.URL)
	require.NoError(t, err)

	decision, err := c.Guard.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, client.DecisionRedirect, decision, "guest gets redirected")

	user, err := c.Mut.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)

	me, err := c.API.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, user.ID, me.ID)
	require.Equal(t, "alice@example.com", me.Email, "own probe includes email")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := setupServer(t)
	signupClient(t, srv, "alice")

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	_, err = c.Mut.Login(context.Background(), "alice@example.com", "wrongpass")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 401, apiErr.Code)
	require.Equal(t, "Invalid email or password", apiErr.Message)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	srv := setupServer(t)

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	_, err = c.API.Posts(context.Background(), 1)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.IsAuthError())
	require.Equal(t, "You are not logged in", apiErr.Message)
}

func TestFollowScenarioEndToEnd(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	alice := signupClient(t, srv, "alice")
	bob := signupClient(t, srv, "bob")
	bobID := bob.Session.Current().ID
	aliceID := alice.Session.Current().ID

	message, err := alice.Mut.FollowUser(ctx, bobID, "bob")
	require.NoError(t, err)
	require.Equal(t, "User followed successfully", message)

	// Подписка видна с обеих сторон
	bobProfile, err := alice.API.Profile(ctx, "bob")
	require.NoError(t, err)
	require.Contains(t, bobProfile.Followers, aliceID)
	me, err := alice.API.Me(ctx)
	require.NoError(t, err)
	require.Contains(t, me.Following, bobID)

	// Бобу пришло уведомление о подписке
	notifications, err := bob.API.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, "follow", notifications[0].Kind)
	require.Equal(t, aliceID, notifications[0].From.ID)

	// Повторный вызов отписывает и не шлет нового уведомления
	message, err = alice.Mut.FollowUser(ctx, bobID, "bob")
	require.NoError(t, err)
	require.Equal(t, "User unfollowed successfully", message)

	bobProfile, err = alice.API.Profile(ctx, "bob")
	require.NoError(t, err)
	require.NotContains(t, bobProfile.Followers, aliceID)

	notifications, err = bob.API.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1, "unfollow must not notify")
}

func TestSelfFollowRejected(t *testing.T) {
	srv := setupServer(t)
	alice := signupClient(t, srv, "alice")

	_, err := alice.Mut.FollowUser(context.Background(), alice.Session.Current().ID, "alice")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "You cannot follow yourself", apiErr.Message)
}

func TestLikeMirrorEndToEnd(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	alice := signupClient(t, srv, "alice")
	bob := signupClient(t, srv, "bob")
	aliceID := alice.Session.Current().ID

	post, err := bob.Mut.CreatePost(ctx, "hello world", "pic.jpg", []byte{0xFF, 0xD8, 0xFF})
	require.NoError(t, err)
	require.NotZero(t, post.ID)

	message, err := alice.Mut.LikePost(ctx, post.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, "Post liked successfully", message)

	// Лайк виден в посте и зеркалится в liked_posts профиля
	page, err := alice.API.Posts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	require.Equal(t, []int64{aliceID}, page.Posts[0].Likes)

	profile, err := bob.API.Profile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []int64{post.ID}, profile.LikedPosts)

	liked, err := alice.API.LikedPosts(ctx, "alice", 1)
	require.NoError(t, err)
	require.Len(t, liked.Posts, 1)
	require.Equal(t, post.ID, liked.Posts[0].ID)

	// Повторный лайк снимает все зеркала
	message, err = alice.Mut.LikePost(ctx, post.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, "Post unliked successfully", message)

	profile, err = bob.API.Profile(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, profile.LikedPosts)
}

func TestCreatePostValidationOnServer(t *testing.T) {
	srv := setupServer(t)
	alice := signupClient(t, srv, "alice")

	// Пустой текст уходит мимо клиентской проверки прямо на сервер
	_, err := alice.API.CreatePost(context.Background(), "", "pic.jpg", []byte{1})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.Code)
	require.Equal(t, "Missing required fields", apiErr.Message)
}

func TestCommentEndToEnd(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	alice := signupClient(t, srv, "alice")
	bob := signupClient(t, srv, "bob")

	post, err := bob.Mut.CreatePost(ctx, "hello", "pic.jpg", []byte{1, 2})
	require.NoError(t, err)

	updated, err := alice.Mut.CommentPost(ctx, post.ID, "great post", "bob")
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)
	require.Equal(t, "great post", updated.Comments[0].Text)
	require.Equal(t, "alice", updated.Comments[0].User.Username)

	notifications, err := bob.API.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, "comment", notifications[0].Kind)
}

func TestDeletePostOwnershipEndToEnd(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	alice := signupClient(t, srv, "alice")
	bob := signupClient(t, srv, "bob")

	post, err := bob.Mut.CreatePost(ctx, "mine", "pic.jpg", []byte{1})
	require.NoError(t, err)

	_, err = alice.API.DeletePost(ctx, post.ID)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "You are not the owner of this post", apiErr.Message)

	message, err := bob.API.DeletePost(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, "Post deleted successfully", message)

	page, err := bob.API.Posts(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, page.Posts)
}

func TestFeedPaginationEndToEnd(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	alice := signupClient(t, srv, "alice")
	for i := 0; i < 11; i++ {
		_, err := alice.Mut.CreatePost(ctx, "post", "pic.jpg", []byte{byte(i + 1)})
		require.NoError(t, err)
	}

	page1, err := alice.API.Posts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page1.Posts, 10)
	require.True(t, page1.HasMore)

	page2, err := alice.API.Posts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, page2.Posts, 1)
	require.True(t, page2.HasMore)

	page3, err := alice.API.Posts(ctx, 3)
	require.NoError(t, err)
	require.Empty(t, page3.Posts)
	require.False(t, page3.HasMore)
}

func TestNotificationsMarkReadAndClear(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	alice := signupClient(t, srv, "alice")
	bob := signupClient(t, srv, "bob")

	post, err := bob.Mut.CreatePost(ctx, "hello", "pic.jpg", []byte{1})
	require.NoError(t, err)
	_, err = alice.Mut.LikePost(ctx, post.ID, "bob")
	require.NoError(t, err)

	// Первый просмотр отдает непрочитанные и помечает их
	notifications, err := bob.API.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.False(t, notifications[0].Read)

	notifications, err = bob.API.Notifications(ctx)
	require.NoError(t, err)
	require.True(t, notifications[0].Read)

	message, err := bob.API.DeleteNotifications(ctx)
	require.NoError(t, err)
	require.Equal(t, "Notifications deleted successfully", message)

	notifications, err = bob.API.Notifications(ctx)
	require.NoError(t, err)
	require.Empty(t, notifications)
}

func TestUpdateProfileEndToEnd(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	alice := signupClient(t, srv, "alice")
	signupClient(t, srv, "bob")

	bio := "hello there"
	user, err := alice.Mut.UpdateProfile(ctx, client.ProfileUpdateParams{Bio: &bio}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "hello there", user.Bio)

	taken := "bob"
	_, err = alice.Mut.UpdateProfile(ctx, client.ProfileUpdateParams{Username: &taken}, nil, nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Username or email already exists", apiErr.Message)
}

func TestSuggestedUsersEndToEnd(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	alice := signupClient(t, srv, "alice")
	bob := signupClient(t, srv, "bob")
	signupClient(t, srv, "carol")

	_, err := alice.Mut.FollowUser(ctx, bob.Session.Current().ID, "bob")
	require.NoError(t, err)

	suggested, err := alice.API.SuggestedUsers(ctx)
	require.NoError(t, err)
	require.Len(t, suggested, 1)
	require.Equal(t, "carol", suggested[0].Username)
}
