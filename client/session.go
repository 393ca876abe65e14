package client

import (
	"context"
	"errors"
	"sync"
)

type ActionType string

const (
	ActionLogin  ActionType = "LOGIN"
	ActionLogout ActionType = "LOGOUT"
)

// SessionAction - событие для редьюсера сессии. User заполняется
// только у LOGIN.
type SessionAction struct {
	Type ActionType
	User *User
}

// Session - текущий пользователь приложения. Меняется только через
// Dispatch, читается через Current; остальной код состояние сессии
// напрямую не трогает.
type Session struct {
	mu     sync.Mutex
	api    *API
	user   *User
	probed bool
}

func NewSession(api *API) *Session {
	return &Session{api: api}
}

// Dispatch применяет действие к состоянию. Неизвестные действия
// игнорируются.
func (s *Session) Dispatch(action SessionAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch action.Type {
	case ActionLogin:
		s.user = action.User
	case ActionLogout:
		s.user = nil
	}
}

// Current возвращает пользователя сессии, nil если не залогинен
func (s *Session) Current() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Probed: был ли уже получен определенный ответ от сервера о сессии
func (s *Session) Probed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probed
}

// Probe спрашивает сервер, чья это сессия, и применяет ответ. Проба
// выполняется один раз: любой исход, включая сетевую ошибку, ее
// закрывает. Отказ в авторизации - штатный ответ "гость", не ошибка.
func (s *Session) Probe(ctx context.Context) (*User, error) {
	s.mu.Lock()
	if s.probed {
		user := s.user
		s.mu.Unlock()
		return user, nil
	}
	s.mu.Unlock()

	user, err := s.api.Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.probed = true
	if err != nil {
		s.user = nil
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsAuthError() {
			return nil, nil
		}
		return nil, err
	}
	s.user = user
	return user, nil
}
