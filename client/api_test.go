package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIFailEnvelopeBecomesTypedError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusBadRequest, "Username is already taken")
	}))

	_, err := c.API.Signup(context.Background(), SignupParams{Username: "taken"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, ErrKindFail, apiErr.Kind)
	require.Equal(t, http.StatusBadRequest, apiErr.Code)
	require.Equal(t, "Username is already taken", apiErr.Message)
	require.Equal(t, "Username is already taken", err.Error())
}

func TestAPIServerErrorKind(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeServerError(w, "Internal Server Error")
	}))

	_, err := c.API.Profile(context.Background(), "alice")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, ErrKindError, apiErr.Kind)
	require.Equal(t, http.StatusInternalServerError, apiErr.Code)
}

func TestAPINetworkErrorUniformMessage(t *testing.T) {
	api, err := NewAPI("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = api.Me(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, ErrKindNetwork, apiErr.Kind)
	require.Equal(t, "Network error", apiErr.Message)
}

func TestAPIAuthErrorDetection(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
	}))

	_, err := c.API.Me(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.IsAuthError())
}

func TestAPILikedFeedAlternateDataKey(t *testing.T) {
	owner := mkUser(1, "alice")
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Лента лайков приходит под ключом liked_posts
		writeSuccess(w, "", map[string]any{
			"page":        1,
			"has_more":    true,
			"liked_posts": []Post{mkPost(4, owner, "liked")},
		})
	}))

	page, err := c.API.LikedPosts(context.Background(), "alice", 1)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	require.Equal(t, int64(4), page.Posts[0].ID)
}

func TestAPIEmptyPageHasMoreFalse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, "", feedData(3, nil))
	}))

	page, err := c.API.Posts(context.Background(), 3)
	require.NoError(t, err)
	require.False(t, page.HasMore)
	require.NotNil(t, page.Posts)
	require.Empty(t, page.Posts)
}
