package client

import "context"

// Queries - кешируемые чтения. Каждое чтение идет через Read кеша:
// свежее значение отдается без сети, протухшее освежается в фоне.
type Queries struct {
	api   *API
	cache *Cache
}

func NewQueries(api *API, cache *Cache) *Queries {
	return &Queries{api: api, cache: cache}
}

func (q *Queries) Me(ctx context.Context) (*User, Status, error) {
	value, status, err := q.cache.Read(ctx, KeyMe(), func(ctx context.Context) (any, error) {
		return q.api.Me(ctx)
	})
	user, _ := value.(*User)
	return user, status, err
}

func (q *Queries) Profile(ctx context.Context, username string) (*User, Status, error) {
	value, status, err := q.cache.Read(ctx, KeyProfile(username), func(ctx context.Context) (any, error) {
		return q.api.Profile(ctx, username)
	})
	user, _ := value.(*User)
	return user, status, err
}

func (q *Queries) SuggestedUsers(ctx context.Context) ([]SuggestedUser, Status, error) {
	value, status, err := q.cache.Read(ctx, KeySuggested(), func(ctx context.Context) (any, error) {
		return q.api.SuggestedUsers(ctx)
	})
	users, _ := value.([]SuggestedUser)
	return users, status, err
}

// Notifications: сервер помечает уведомления прочитанными при выдаче,
// поэтому список кешируется как есть
func (q *Queries) Notifications(ctx context.Context) ([]Notification, Status, error) {
	value, status, err := q.cache.Read(ctx, KeyNotifications(), func(ctx context.Context) (any, error) {
		return q.api.Notifications(ctx)
	})
	list, _ := value.([]Notification)
	return list, status, err
}
