package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeWSConn подменяет настоящий websocket в тестах реестра
type fakeWSConn struct {
	mu      sync.Mutex
	written []interface{}
	failErr error
	closed  bool
}

func (c *fakeWSConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return c.failErr
	}
	c.written = append(c.written, v)
	return nil
}

func (c *fakeWSConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeWSConn) sent() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, len(c.written))
	copy(out, c.written)
	return out
}

func (c *fakeWSConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestWSManagerSendDeliversToEveryConnection(t *testing.T) {
	m := NewWSConnManager()
	// Две вкладки одного пользователя
	tab1 := &fakeWSConn{}
	tab2 := &fakeWSConn{}
	m.Add(42, tab1)
	m.Add(42, tab2)

	delivered := m.Send(42, wsNotify{NotifyType: "like", Message: "hi"})
	require.Equal(t, 2, delivered)
	require.Len(t, tab1.sent(), 1)
	require.Len(t, tab2.sent(), 1)

	require.Zero(t, m.Send(7, wsNotify{NotifyType: "like", Message: "hi"}),
		"users without connections get nothing")
}

func TestWSManagerSendPrunesDeadConnections(t *testing.T) {
	m := NewWSConnManager()
	dead := &fakeWSConn{failErr: errors.New("broken pipe")}
	live := &fakeWSConn{}
	m.Add(42, dead)
	m.Add(42, live)

	require.Equal(t, 1, m.Send(42, wsNotify{NotifyType: "info", Message: "x"}))
	require.True(t, dead.isClosed(), "dead connection must be closed")
	require.Equal(t, 1, m.Connections(42), "dead connection must leave the registry")

	// Следующая рассылка идет только в живое соединение
	require.Equal(t, 1, m.Send(42, wsNotify{NotifyType: "info", Message: "y"}))
	require.Len(t, live.sent(), 2)
}

func TestWSManagerRemoveDropsConnection(t *testing.T) {
	m := NewWSConnManager()
	conn := &fakeWSConn{}
	m.Add(42, conn)
	m.Remove(42, conn)

	require.Zero(t, m.Connections(42))
	require.Zero(t, m.Send(42, wsNotify{NotifyType: "info", Message: "x"}))
	require.Empty(t, conn.sent())
}
