package client

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Ключ кеша: ресурс плюс параметризация (username, и т.п.).
// Страница в ключ не входит - последовательность страниц лежит
// под одним ключом целиком.
type Key struct {
	Resource string
	Param    string
}

func (k Key) String() string {
	if k.Param == "" {
		return k.Resource
	}
	return k.Resource + ":" + k.Param
}

func KeyMe() Key                         { return Key{Resource: "me"} }
func KeyProfile(username string) Key     { return Key{Resource: "profile", Param: username} }
func KeyPosts() Key                      { return Key{Resource: "posts"} }
func KeyFollowingPosts() Key             { return Key{Resource: "following_posts"} }
func KeyUserPosts(username string) Key   { return Key{Resource: "user_posts", Param: username} }
func KeyLikedPosts(username string) Key  { return Key{Resource: "liked_posts", Param: username} }
func KeySuggested() Key                  { return Key{Resource: "suggested_users"} }
func KeyNotifications() Key              { return Key{Resource: "notifications"} }

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Options - политика свежести: через StaleTTL значение считается
// протухшим (stale-while-revalidate), через GCTTL ненаблюдаемая
// запись выселяется целиком.
type Options struct {
	StaleTTL time.Duration
	GCTTL    time.Duration
}

// Профили долговечнее лент - те же значения, что были в продакшене
var resourceOptions = map[string]Options{
	"me":              {StaleTTL: 30 * time.Minute, GCTTL: 30 * time.Minute},
	"profile":         {StaleTTL: 10 * time.Minute, GCTTL: 10 * time.Minute},
	"posts":           {StaleTTL: 5 * time.Minute, GCTTL: 10 * time.Minute},
	"following_posts": {StaleTTL: 10 * time.Minute, GCTTL: 30 * time.Minute},
	"user_posts":      {StaleTTL: 10 * time.Minute, GCTTL: 30 * time.Minute},
	"liked_posts":     {StaleTTL: 10 * time.Minute, GCTTL: 30 * time.Minute},
}

func OptionsFor(resource string) Options {
	if opts, ok := resourceOptions[resource]; ok {
		return opts
	}
	return Options{StaleTTL: 5 * time.Minute, GCTTL: 10 * time.Minute}
}

type FetchFunc func(ctx context.Context) (any, error)

type cacheEntry struct {
	value   any
	status  Status
	err     error
	staleAt time.Time
	gcAt    time.Time
	opts    Options

	// gen - поколение значения. Результат загрузки, стартовавшей при
	// другом поколении, отбрасывается: так отменяются перегнанные
	// write/invalidate запросы в полете.
	gen      uint64
	fetching bool
	fetchGen uint64
}

// Cache - кеш серверного состояния: единственный разделяемый
// мутабельный ресурс клиентского слоя. Write синхронен и виден
// немедленно; чтение протухшего значения отдает его сразу и
// запускает фоновую перезагрузку.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*cacheEntry
	now      func() time.Time
	inflight sync.WaitGroup
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[Key]*cacheEntry),
		now:     time.Now,
	}
}

func (c *Cache) ensureLocked(key Key) *cacheEntry {
	e, ok := c.entries[key]
	if !ok {
		opts := OptionsFor(key.Resource)
		e = &cacheEntry{status: StatusIdle, opts: opts, gcAt: c.now().Add(opts.GCTTL)}
		c.entries[key] = e
	}
	return e
}

// sweepLocked выселяет записи, пережившие свой GC-дедлайн
func (c *Cache) sweepLocked() {
	now := c.now()
	for key, e := range c.entries {
		if !e.fetching && !e.gcAt.IsZero() && now.After(e.gcAt) {
			delete(c.entries, key)
		}
	}
}

// Read возвращает закешированное значение и статус. Отсутствующая
// запись получает загрузку в фоне; протухшая отдается сразу, а фоном
// уходит revalidate. Повторный Read во время полета новую загрузку
// не начинает.
func (c *Cache) Read(ctx context.Context, key Key, fetch FetchFunc) (any, Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()

	e, ok := c.entries[key]
	if !ok {
		e = c.ensureLocked(key)
		if fetch != nil {
			e.status = StatusLoading
			c.startFetchLocked(ctx, key, e, fetch)
		}
		return nil, e.status, nil
	}

	stale := e.staleAt.IsZero() || c.now().After(e.staleAt)
	if stale && fetch != nil && !e.fetching {
		c.startFetchLocked(ctx, key, e, fetch)
	}
	// Продлеваем GC-дедлайн: запись наблюдают
	if e.opts.GCTTL > 0 {
		e.gcAt = c.now().Add(e.opts.GCTTL)
	}
	return e.value, e.status, e.err
}

func (c *Cache) startFetchLocked(ctx context.Context, key Key, e *cacheEntry, fetch FetchFunc) {
	token := e.gen
	e.fetching = true
	e.fetchGen = token

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		value, err := fetch(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		cur, ok := c.entries[key]
		if !ok || cur != e {
			return
		}
		if e.fetchGen == token {
			e.fetching = false
		}
		if e.gen != token {
			// Значение успели перезаписать или инвалидировать - результат
			// устарел еще в полете
			return
		}
		now := c.now()
		if err != nil {
			e.err = err
			e.status = StatusError
		} else {
			e.value = value
			e.err = nil
			e.status = StatusSuccess
			e.staleAt = now.Add(e.opts.StaleTTL)
		}
		e.gcAt = now.Add(e.opts.GCTTL)
		e.gen++
	}()
}

// Write синхронно перезаписывает значение; следующий Read в том же
// тике уже видит его. Летящая загрузка этого ключа отбрасывается.
func (c *Cache) Write(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.ensureLocked(key)
	now := c.now()
	e.value = value
	e.err = nil
	e.status = StatusSuccess
	e.staleAt = now.Add(e.opts.StaleTTL)
	e.gcAt = now.Add(e.opts.GCTTL)
	e.gen++
}

// Stale отвечает, пора ли перезагружать значение ключа
func (c *Cache) Stale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return true
	}
	return e.staleAt.IsZero() || c.now().After(e.staleAt)
}

// Get читает без триггера загрузки
func (c *Cache) Get(key Key) (any, Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, StatusIdle, false
	}
	return e.value, e.status, true
}

// Invalidate помечает протухшими все записи, чей строковый ключ
// начинается с prefix. Протухание видно в том же тике: следующий Read
// перезагрузит значение, но само оно остается читаемым. Идемпотентно.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if strings.HasPrefix(key.String(), prefix) {
			e.staleAt = time.Time{}
			e.gen++
			e.fetching = false
		}
	}
}

// InvalidateKeys инвалидирует точные ключи
func (c *Cache) InvalidateKeys(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			e.staleAt = time.Time{}
			e.gen++
			e.fetching = false
		}
	}
}

// savedEntry - слепок записи для отката; отсутствие записи тоже слепок
type savedEntry struct {
	present bool
	value   any
	status  Status
	err     error
	staleAt time.Time
	gcAt    time.Time
}

type Snapshot map[Key]savedEntry

// Snapshot снимает слепок значений по ключам. Значения в кеше
// считаются неизменяемыми (все трансформации copy-on-write), поэтому
// слепок хранит их по ссылке.
func (c *Cache) Snapshot(keys ...Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := make(Snapshot, len(keys))
	for _, key := range keys {
		if _, dup := snap[key]; dup {
			continue
		}
		e, ok := c.entries[key]
		if !ok {
			snap[key] = savedEntry{present: false}
			continue
		}
		snap[key] = savedEntry{
			present: true,
			value:   e.value,
			status:  e.status,
			err:     e.err,
			staleAt: e.staleAt,
			gcAt:    e.gcAt,
		}
	}
	return snap
}

// Restore возвращает все ключи слепка к прежнему состоянию как одно
// целое: либо весь слепок, либо ничего. Записи, которых не было,
// удаляются.
func (c *Cache) Restore(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, saved := range snap {
		if !saved.present {
			delete(c.entries, key)
			continue
		}
		e := c.ensureLocked(key)
		e.value = saved.value
		e.status = saved.status
		e.err = saved.err
		e.staleAt = saved.staleAt
		e.gcAt = saved.gcAt
		e.gen++
		e.fetching = false
	}
}

// Clear полностью очищает кеш. Вызывается при смене пользователя,
// чтобы чужие данные не пережили сессию.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*cacheEntry)
}

// Drain дожидается всех фоновых загрузок (тесты, shutdown)
func (c *Cache) Drain() {
	c.inflight.Wait()
}
