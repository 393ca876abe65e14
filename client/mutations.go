package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/xid"
)

var (
	ErrMissingFields = errors.New("Missing required fields")
	ErrNotLoggedIn   = errors.New("Not logged in")
)

// Mutator выполняет все мутации с оптимистичным обновлением кеша.
// Общая схема: слепок затронутых ключей, локальная правка, запрос,
// при ошибке откат всего слепка целиком.
type Mutator struct {
	api     *API
	cache   *Cache
	session *Session
}

func NewMutator(api *API, cache *Cache, session *Session) *Mutator {
	return &Mutator{api: api, cache: cache, session: session}
}

// --- вспомогательные трансформации (все copy-on-write) ---

func (m *Mutator) seq(key Key) *PageSeq {
	value, _, ok := m.cache.Get(key)
	if !ok {
		return nil
	}
	seq, _ := value.(*PageSeq)
	return seq
}

// mapPosts применяет fn к постам, копируя только измененное.
// Возвращает nil, если ни один пост не изменился.
func mapPosts(seq *PageSeq, fn func(Post) (Post, bool)) *PageSeq {
	if seq == nil {
		return nil
	}
	changed := false
	pages := make([]FeedPage, len(seq.Pages))
	copy(pages, seq.Pages)
	for i := range pages {
		var posts []Post
		for j, post := range pages[i].Posts {
			next, ok := fn(post)
			if !ok {
				continue
			}
			if posts == nil {
				posts = make([]Post, len(pages[i].Posts))
				copy(posts, pages[i].Posts)
			}
			posts[j] = next
		}
		if posts != nil {
			pages[i].Posts = posts
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return &PageSeq{Pages: pages}
}

// filterPosts выкидывает посты, не прошедшие keep
func filterPosts(seq *PageSeq, keep func(Post) bool) *PageSeq {
	if seq == nil {
		return nil
	}
	changed := false
	pages := make([]FeedPage, len(seq.Pages))
	copy(pages, seq.Pages)
	for i := range pages {
		kept := make([]Post, 0, len(pages[i].Posts))
		for _, post := range pages[i].Posts {
			if keep(post) {
				kept = append(kept, post)
			}
		}
		if len(kept) != len(pages[i].Posts) {
			pages[i].Posts = kept
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return &PageSeq{Pages: pages}
}

// prependPost ставит пост в начало первой страницы
func prependPost(seq *PageSeq, post Post) *PageSeq {
	if seq == nil || len(seq.Pages) == 0 {
		return &PageSeq{Pages: []FeedPage{{Page: 1, HasMore: true, Posts: []Post{post}}}}
	}
	pages := make([]FeedPage, len(seq.Pages))
	copy(pages, seq.Pages)
	first := make([]Post, 0, len(pages[0].Posts)+1)
	first = append(first, post)
	first = append(first, pages[0].Posts...)
	pages[0].Posts = first
	return &PageSeq{Pages: pages}
}

func (m *Mutator) patchFeeds(keys []Key, fn func(Post) (Post, bool)) {
	for _, key := range keys {
		if next := mapPosts(m.seq(key), fn); next != nil {
			m.cache.Write(key, next)
		}
	}
}

func (m *Mutator) filterFeeds(keys []Key, keep func(Post) bool) {
	for _, key := range keys {
		if next := filterPosts(m.seq(key), keep); next != nil {
			m.cache.Write(key, next)
		}
	}
}

func (m *Mutator) patchUser(key Key, fn func(User) (User, bool)) {
	value, _, ok := m.cache.Get(key)
	if !ok {
		return
	}
	user, _ := value.(*User)
	if user == nil {
		return
	}
	next, changed := fn(*user)
	if !changed {
		return
	}
	m.cache.Write(key, &next)
}

// withToggledID переключает членство id в списке, не трогая исходный слайс
func withToggledID(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids)+1)
	found := false
	for _, v := range ids {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

func ownerOf(user *User) PostOwner {
	return PostOwner{
		ID:         user.ID,
		Username:   user.Username,
		FullName:   user.FullName,
		ProfileImg: user.ProfileImg,
	}
}

// feedRadius - ключи лент, которые может задеть мутация поста.
// profileUsername - чей профиль сейчас открыт; пустая строка значит
// собственный.
func (m *Mutator) feedRadius(profileUsername string) []Key {
	username := profileUsername
	if username == "" {
		if me := m.session.Current(); me != nil {
			username = me.Username
		}
	}
	keys := []Key{KeyPosts(), KeyFollowingPosts()}
	if username != "" {
		keys = append(keys, KeyUserPosts(username), KeyLikedPosts(username))
	}
	return keys
}

// --- посты ---

// LikePost переключает лайк. Лайк сначала появляется (или исчезает)
// во всех загруженных лентах, затем подтверждается авторитетным постом
// из ответа сервера; при ошибке все ленты радиуса откатываются разом.
func (m *Mutator) LikePost(ctx context.Context, postID int64, profileUsername string) (string, error) {
	me := m.session.Current()
	if me == nil {
		return "", ErrNotLoggedIn
	}
	radius := m.feedRadius(profileUsername)
	snap := m.cache.Snapshot(radius...)

	m.patchFeeds(radius, func(p Post) (Post, bool) {
		if p.ID != postID {
			return p, false
		}
		p.Likes = withToggledID(p.Likes, me.ID)
		return p, true
	})

	post, message, err := m.api.LikeUnlikePost(ctx, postID)
	if err != nil {
		m.cache.Restore(snap)
		return "", err
	}
	if post != nil {
		m.patchFeeds(radius, func(p Post) (Post, bool) {
			if p.ID != post.ID {
				return p, false
			}
			return *post, true
		})
	}
	// Патч чинит счетчики, но не состав и порядок лент: в ленту лайков
	// пост входит или выходит целиком. Весь радиус на пересинхронизацию.
	m.cache.InvalidateKeys(radius...)
	return message, nil
}

// CommentPost добавляет комментарий: оптимистично дописывает его к
// посту, после ответа сервера подменяет пост авторитетной версией
func (m *Mutator) CommentPost(ctx context.Context, postID int64, text string, profileUsername string) (*Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrMissingFields
	}
	me := m.session.Current()
	if me == nil {
		return nil, ErrNotLoggedIn
	}
	radius := m.feedRadius(profileUsername)
	snap := m.cache.Snapshot(radius...)

	draft := Comment{User: ownerOf(me), Text: text, CreatedAt: time.Now()}
	m.patchFeeds(radius, func(p Post) (Post, bool) {
		if p.ID != postID {
			return p, false
		}
		comments := make([]Comment, 0, len(p.Comments)+1)
		comments = append(comments, p.Comments...)
		p.Comments = append(comments, draft)
		return p, true
	})

	post, err := m.api.CommentOnPost(ctx, postID, text)
	if err != nil {
		m.cache.Restore(snap)
		return nil, err
	}
	if post != nil {
		m.patchFeeds(radius, func(p Post) (Post, bool) {
			if p.ID != post.ID {
				return p, false
			}
			return *post, true
		})
	}
	m.cache.InvalidateKeys(radius...)
	return post, nil
}

// CreatePost создает пост. Черновик с временным ID встает в начало
// загруженных лент немедленно; ответ сервера заменяет черновик по
// временному ID, а не дописывается рядом, поэтому дублей не бывает.
func (m *Mutator) CreatePost(ctx context.Context, text, filename string, img []byte) (*Post, error) {
	if strings.TrimSpace(text) == "" || len(img) == 0 {
		// Ту же проверку делает сервер; локальный отказ экономит запрос
		return nil, ErrMissingFields
	}
	me := m.session.Current()
	if me == nil {
		return nil, ErrNotLoggedIn
	}

	draft := Post{
		TempID:    "tmp_" + xid.New().String(),
		User:      ownerOf(me),
		Text:      text,
		Likes:     []int64{},
		Comments:  []Comment{},
		CreatedAt: time.Now(),
	}
	radius := []Key{KeyPosts(), KeyUserPosts(me.Username)}
	snap := m.cache.Snapshot(radius...)
	for _, key := range radius {
		if seq := m.seq(key); seq != nil {
			m.cache.Write(key, prependPost(seq, draft))
		}
	}

	post, err := m.api.CreatePost(ctx, text, filename, img)
	if err != nil {
		m.cache.Restore(snap)
		return nil, err
	}
	m.patchFeeds(radius, func(p Post) (Post, bool) {
		if p.TempID != draft.TempID {
			return p, false
		}
		return *post, true
	})
	m.cache.InvalidateKeys(KeyFollowingPosts())
	return post, nil
}

// DeletePost удаляет пост из всех загруженных лент до ответа сервера
func (m *Mutator) DeletePost(ctx context.Context, postID int64, profileUsername string) (string, error) {
	if m.session.Current() == nil {
		return "", ErrNotLoggedIn
	}
	radius := m.feedRadius(profileUsername)
	snap := m.cache.Snapshot(radius...)

	m.filterFeeds(radius, func(p Post) bool { return p.ID != postID })

	message, err := m.api.DeletePost(ctx, postID)
	if err != nil {
		m.cache.Restore(snap)
		return "", err
	}
	m.cache.InvalidateKeys(radius...)
	return message, nil
}

// --- подписки ---

// FollowUser переключает подписку. Правятся сразу три ключа: свой
// пользователь, свой профиль и просматриваемый профиль; слепок
// снимается и откатывается для всех трех как одно целое.
func (m *Mutator) FollowUser(ctx context.Context, targetID int64, viewedUsername string) (string, error) {
	me := m.session.Current()
	if me == nil {
		return "", ErrNotLoggedIn
	}
	keys := []Key{KeyMe(), KeyProfile(me.Username)}
	if viewedUsername != "" && viewedUsername != me.Username {
		keys = append(keys, KeyProfile(viewedUsername))
	}
	snap := m.cache.Snapshot(keys...)

	toggleFollowing := func(u User) (User, bool) {
		if u.ID != me.ID {
			return u, false
		}
		u.Following = withToggledID(u.Following, targetID)
		return u, true
	}
	m.patchUser(KeyMe(), toggleFollowing)
	m.patchUser(KeyProfile(me.Username), toggleFollowing)
	if viewedUsername != "" {
		m.patchUser(KeyProfile(viewedUsername), func(u User) (User, bool) {
			if u.ID != targetID {
				return u, false
			}
			u.Followers = withToggledID(u.Followers, me.ID)
			return u, true
		})
	}

	message, err := m.api.FollowUser(ctx, targetID)
	if err != nil {
		m.cache.Restore(snap)
		return "", err
	}
	m.cache.InvalidateKeys(append(keys, KeySuggested())...)
	return message, nil
}

// --- сессия ---

func (m *Mutator) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.session.Dispatch(SessionAction{Type: ActionLogin, User: user})
	m.cache.Write(KeyMe(), user)
	return user, nil
}

// Signup регистрирует и сразу логинит: сервер выставляет сессионную
// cookie в том же ответе
func (m *Mutator) Signup(ctx context.Context, params SignupParams) (*User, error) {
	user, err := m.api.Signup(ctx, params)
	if err != nil {
		return nil, err
	}
	m.session.Dispatch(SessionAction{Type: ActionLogin, User: user})
	m.cache.Write(KeyMe(), user)
	return user, nil
}

// Logout разлогинивает и сбрасывает весь кеш: следующий пользователь
// не должен увидеть чужие данные
func (m *Mutator) Logout(ctx context.Context) error {
	if err := m.api.Logout(ctx); err != nil {
		return err
	}
	m.session.Dispatch(SessionAction{Type: ActionLogout})
	m.cache.Clear()
	return nil
}

// --- профиль ---

// UpdateProfile сохраняет изменения профиля и кладет ответ сервера в
// кеш. Имя и аватар вшиты в посты, поэтому ленты помечаются протухшими.
func (m *Mutator) UpdateProfile(ctx context.Context, params ProfileUpdateParams, profileImg, coverImg []byte) (*User, error) {
	if m.session.Current() == nil {
		return nil, ErrNotLoggedIn
	}

	var (
		user *User
		err  error
	)
	if len(profileImg) > 0 || len(coverImg) > 0 {
		user, err = m.api.UpdateProfileWithImages(ctx, params, profileImg, coverImg)
	} else {
		user, err = m.api.UpdateProfile(ctx, params)
	}
	if err != nil {
		return nil, err
	}

	m.session.Dispatch(SessionAction{Type: ActionLogin, User: user})
	for _, prefix := range []string{"posts", "following_posts", "user_posts", "liked_posts", "profile"} {
		m.cache.Invalidate(prefix)
	}
	m.cache.Write(KeyMe(), user)
	m.cache.Write(KeyProfile(user.Username), user)
	return user, nil
}

// --- уведомления ---

func (m *Mutator) notifications() []Notification {
	value, _, ok := m.cache.Get(KeyNotifications())
	if !ok {
		return nil
	}
	list, _ := value.([]Notification)
	return list
}

// DeleteNotification убирает уведомление из списка до ответа сервера
func (m *Mutator) DeleteNotification(ctx context.Context, id int64) (string, error) {
	snap := m.cache.Snapshot(KeyNotifications())
	if list := m.notifications(); list != nil {
		kept := make([]Notification, 0, len(list))
		for _, n := range list {
			if n.ID != id {
				kept = append(kept, n)
			}
		}
		m.cache.Write(KeyNotifications(), kept)
	}

	message, err := m.api.DeleteNotification(ctx, id)
	if err != nil {
		m.cache.Restore(snap)
		return "", err
	}
	return message, nil
}

// DeleteNotifications очищает список целиком
func (m *Mutator) DeleteNotifications(ctx context.Context) (string, error) {
	snap := m.cache.Snapshot(KeyNotifications())
	m.cache.Write(KeyNotifications(), []Notification{})

	message, err := m.api.DeleteNotifications(ctx)
	if err != nil {
		m.cache.Restore(snap)
		return "", err
	}
	return message, nil
}
