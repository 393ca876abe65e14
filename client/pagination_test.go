package client

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// pagedHandler отдает заранее разложенные по страницам посты
func pagedHandler(pages map[int][]Post) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		posts := pages[page]
		if posts == nil {
			posts = []Post{}
		}
		writeSuccess(w, "", feedData(page, posts))
	}
}

func TestPagerAccumulatesPagesInOrder(t *testing.T) {
	owner := mkUser(1, "alice")
	c, _ := newTestClient(t, pagedHandler(map[int][]Post{
		1: {mkPost(3, owner, "third"), mkPost(2, owner, "second")},
		2: {mkPost(1, owner, "first")},
	}))

	pager := c.Posts()
	ctx := context.Background()

	seq, err := pager.Load(ctx)
	require.NoError(t, err)
	require.Len(t, seq.Items(), 2)
	require.True(t, pager.HasNextPage())

	seq, err = pager.FetchNext(ctx)
	require.NoError(t, err)

	items := seq.Items()
	require.Len(t, items, 3)
	// Порядок страниц сохраняется: сперва страница 1, потом 2
	require.Equal(t, int64(3), items[0].ID)
	require.Equal(t, int64(2), items[1].ID)
	require.Equal(t, int64(1), items[2].ID)
}

func TestPagerStopsAtEmptyPage(t *testing.T) {
	owner := mkUser(1, "alice")
	c, log := newTestClient(t, pagedHandler(map[int][]Post{
		1: {mkPost(2, owner, "b")},
		2: {mkPost(1, owner, "a")},
		3: {},
	}))

	pager := c.Posts()
	ctx := context.Background()

	_, err := pager.Load(ctx)
	require.NoError(t, err)
	_, err = pager.FetchNext(ctx)
	require.NoError(t, err)
	require.True(t, pager.HasNextPage())

	// Третья страница пустая: подгрузка останавливается
	seq, err := pager.FetchNext(ctx)
	require.NoError(t, err)
	require.False(t, pager.HasNextPage())
	require.Len(t, seq.Items(), 2)

	before := log.count()
	seq, err = pager.FetchNext(ctx)
	require.NoError(t, err)
	require.Len(t, seq.Items(), 2)
	require.Equal(t, before, log.count(), "no request after the sequence ended")
}

func TestPagerLoadServesFreshCacheWithoutNetwork(t *testing.T) {
	owner := mkUser(1, "alice")
	c, log := newTestClient(t, pagedHandler(map[int][]Post{
		1: {mkPost(1, owner, "a")},
	}))

	ctx := context.Background()
	_, err := c.Posts().Load(ctx)
	require.NoError(t, err)

	before := log.count()
	// Новый пейджер той же параметризации видит ту же последовательность
	seq, err := c.Posts().Load(ctx)
	require.NoError(t, err)
	require.Len(t, seq.Items(), 1)
	require.Equal(t, before, log.count())
}

func TestPagerParameterizationsAreIndependent(t *testing.T) {
	alice := mkUser(1, "alice")
	bob := mkUser(2, "bob")
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/posts/user/alice":
			writeSuccess(w, "", feedData(1, []Post{mkPost(1, alice, "from alice")}))
		case "/api/v1/posts/user/bob":
			writeSuccess(w, "", feedData(1, []Post{mkPost(2, bob, "from bob"), mkPost(3, bob, "more bob")}))
		default:
			writeFail(w, http.StatusNotFound, "not found")
		}
	}))

	ctx := context.Background()
	aliceSeq, err := c.UserPosts("alice").Load(ctx)
	require.NoError(t, err)
	bobSeq, err := c.UserPosts("bob").Load(ctx)
	require.NoError(t, err)

	require.Len(t, aliceSeq.Items(), 1)
	require.Len(t, bobSeq.Items(), 2)
}

func TestFollowingFeedTwoPages(t *testing.T) {
	friend := mkUser(2, "friend")
	c, _ := newTestClient(t, pagedHandler(map[int][]Post{
		1: {mkPost(20, friend, "newest"), mkPost(19, friend, "older")},
		2: {mkPost(18, friend, "oldest")},
		3: {},
	}))

	pager := c.FollowingPosts()
	ctx := context.Background()

	_, err := pager.Load(ctx)
	require.NoError(t, err)
	seq, err := pager.FetchNext(ctx)
	require.NoError(t, err)

	items := seq.Items()
	require.Len(t, items, 3)
	require.Equal(t, int64(20), items[0].ID)
	require.Equal(t, int64(18), items[2].ID)
}

func TestPagerErrorKeepsLoadedPages(t *testing.T) {
	owner := mkUser(1, "alice")
	failNext := false
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failNext {
			writeServerError(w, "boom")
			return
		}
		writeSuccess(w, "", feedData(1, []Post{mkPost(1, owner, "a")}))
	}))

	pager := c.Posts()
	ctx := context.Background()

	_, err := pager.Load(ctx)
	require.NoError(t, err)

	failNext = true
	seq, err := pager.FetchNext(ctx)
	require.Error(t, err)
	require.NotNil(t, seq, "loaded pages survive a failed fetch")
	require.Len(t, seq.Items(), 1)
}
