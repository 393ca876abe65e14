package client

import "context"

// pageFetch грузит одну страницу ленты с сервера
type pageFetch func(ctx context.Context, page int) (*FeedPage, error)

// Pager - постраничная подгрузка одной параметризации ленты.
// Последовательность страниц живет в кеше под одним ключом: лайк из
// любого места видит ее целиком, а инвалидация сбрасывает разом.
type Pager struct {
	cache *Cache
	key   Key
	fetch pageFetch
}

func NewPager(cache *Cache, key Key, fetch pageFetch) *Pager {
	return &Pager{cache: cache, key: key, fetch: fetch}
}

// Готовые пейджеры на каждую ленту. Разные username дают разные ключи
// и, значит, независимые последовательности страниц.

func NewPostsPager(cache *Cache, api *API) *Pager {
	return NewPager(cache, KeyPosts(), api.Posts)
}

func NewFollowingPager(cache *Cache, api *API) *Pager {
	return NewPager(cache, KeyFollowingPosts(), api.FollowingPosts)
}

func NewUserPostsPager(cache *Cache, api *API, username string) *Pager {
	return NewPager(cache, KeyUserPosts(username), func(ctx context.Context, page int) (*FeedPage, error) {
		return api.UserPosts(ctx, username, page)
	})
}

func NewLikedPostsPager(cache *Cache, api *API, username string) *Pager {
	return NewPager(cache, KeyLikedPosts(username), func(ctx context.Context, page int) (*FeedPage, error) {
		return api.LikedPosts(ctx, username, page)
	})
}

func (p *Pager) Key() Key {
	return p.key
}

func (p *Pager) current() *PageSeq {
	value, _, ok := p.cache.Get(p.key)
	if !ok {
		return nil
	}
	seq, _ := value.(*PageSeq)
	return seq
}

// Load возвращает последовательность страниц, грузя первую страницу,
// если кеш пуст или протух. Протухшая последовательность сбрасывается
// до первой страницы заново.
func (p *Pager) Load(ctx context.Context) (*PageSeq, error) {
	seq := p.current()
	if seq != nil && !p.cache.Stale(p.key) {
		return seq, nil
	}

	page, err := p.fetch(ctx, 1)
	if err != nil {
		// При ошибке отдаем что было: протухшее лучше пустого
		return seq, err
	}
	fresh := &PageSeq{Pages: []FeedPage{*page}}
	p.cache.Write(p.key, fresh)
	return fresh, nil
}

// FetchNext догружает следующую страницу и дописывает ее к
// последовательности. Если последняя страница была пустой, подгрузка
// останавливается без запроса.
func (p *Pager) FetchNext(ctx context.Context) (*PageSeq, error) {
	seq := p.current()
	if seq == nil {
		return p.Load(ctx)
	}
	if !seq.HasNextPage() {
		return seq, nil
	}

	next := len(seq.Pages) + 1
	page, err := p.fetch(ctx, next)
	if err != nil {
		return seq, err
	}

	// Copy-on-write: снятые до этого слепки не должны увидеть дописанную
	// страницу
	pages := make([]FeedPage, len(seq.Pages), len(seq.Pages)+1)
	copy(pages, seq.Pages)
	grown := &PageSeq{Pages: append(pages, *page)}
	p.cache.Write(p.key, grown)
	return grown, nil
}

// Items - все загруженные посты в порядке страниц
func (p *Pager) Items() []Post {
	return p.current().Items()
}

// HasNextPage: стоит ли звать FetchNext
func (p *Pager) HasNextPage() bool {
	return p.current().HasNextPage()
}
