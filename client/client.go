// Package client - программный клиент сервера: ресурсные вызовы,
// кеш серверного состояния, оптимистичные мутации, пагинация лент,
// сессия и охрана закрытых экранов.
package client

// Client собирает слой целиком. Все части делят один кеш и одну
// сессию, поэтому мутация из любого места видна всем чтениям.
type Client struct {
	API     *API
	Cache   *Cache
	Session *Session
	Guard   *Guard
	Queries *Queries
	Mut     *Mutator
}

func New(baseURL string) (*Client, error) {
	api, err := NewAPI(baseURL)
	if err != nil {
		return nil, err
	}
	cache := NewCache()
	session := NewSession(api)
	return &Client{
		API:     api,
		Cache:   cache,
		Session: session,
		Guard:   NewGuard(session),
		Queries: NewQueries(api, cache),
		Mut:     NewMutator(api, cache, session),
	}, nil
}

// Posts и остальные ленты: пейджер на каждую параметризацию

func (c *Client) Posts() *Pager {
	return NewPostsPager(c.Cache, c.API)
}

func (c *Client) FollowingPosts() *Pager {
	return NewFollowingPager(c.Cache, c.API)
}

func (c *Client) UserPosts(username string) *Pager {
	return NewUserPostsPager(c.Cache, c.API, username)
}

func (c *Client) LikedPosts(username string) *Pager {
	return NewLikedPostsPager(c.Cache, c.API, username)
}
