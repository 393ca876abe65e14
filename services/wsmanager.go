package services

import (
	"log"
	"sync"
)

// wsConn - минимальный контракт соединения для реестра; настоящий
// *websocket.Conn ему удовлетворяет
type wsConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// WSConnManager - реестр живых WebSocket-соединений получателей
// уведомлений. Один пользователь может держать несколько вкладок,
// каждая со своим соединением; рассылка идет во все сразу.
type WSConnManager struct {
	mu    sync.Mutex
	users map[int64][]wsConn
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		users: make(map[int64][]wsConn),
	}
}

func (m *WSConnManager) Add(userID int64, conn wsConn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = append(m.users[userID], conn)
}

func (m *WSConnManager) Remove(userID int64, conn wsConn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns := m.users[userID]
	for i, c := range conns {
		if c == conn {
			m.users[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(m.users[userID]) == 0 {
		delete(m.users, userID)
	}
}

// Send сериализует payload в JSON и рассылает во все соединения
// пользователя. Соединение, не принявшее запись, мертвое: оно
// закрывается и выбывает из реестра. Возвращает число доставок.
func (m *WSConnManager) Send(userID int64, payload interface{}) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns := m.users[userID]
	if len(conns) == 0 {
		return 0
	}
	alive := make([]wsConn, 0, len(conns))
	delivered := 0
	for _, conn := range conns {
		if err := conn.WriteJSON(payload); err != nil {
			log.Printf("DEBUG: dropping dead websocket for user %d: %v", userID, err)
			_ = conn.Close()
			continue
		}
		alive = append(alive, conn)
		delivered++
	}
	if len(alive) == 0 {
		delete(m.users, userID)
	} else {
		m.users[userID] = alive
	}
	return delivered
}

// Connections - сколько соединений держит пользователь
func (m *WSConnManager) Connections(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users[userID])
}

var GlobalWSConnManager = NewWSConnManager()
