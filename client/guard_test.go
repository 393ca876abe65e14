package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardAllowsAuthenticatedUser(t *testing.T) {
	c, log := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/me", r.URL.Path)
		writeSuccess(w, "", map[string]any{"user": mkUser(1, "me")})
	}))

	require.Equal(t, DecisionLoading, c.Guard.Check())

	decision, err := c.Guard.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, DecisionAllow, decision)
	require.NotNil(t, c.Session.Current())

	// Повторные решения не ходят в сеть
	before := log.count()
	decision, err = c.Guard.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, DecisionAllow, decision)
	require.Equal(t, before, log.count())
}

func TestGuardRedirectsGuestAfterSingleProbe(t *testing.T) {
	c, log := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusUnauthorized, "Unauthorized: No token provided")
	}))

	decision, err := c.Guard.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, DecisionRedirect, decision)
	require.Equal(t, "/login", c.Guard.RedirectTo())

	// Отказ сервера - определенный ответ: второй пробы не будет
	before := log.count()
	decision, err = c.Guard.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, DecisionRedirect, decision)
	require.Equal(t, before, log.count(), "guard must probe at most once")
}

func TestGuardRedirectsWhenServerUnreachable(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusUnauthorized, "Unauthorized")
	}))
	// Роняем сервер до первой пробы
	brokenAPI, err := NewAPI("http://127.0.0.1:1")
	require.NoError(t, err)
	c.Session.api = brokenAPI

	decision, err := c.Guard.Resolve(context.Background())
	require.Error(t, err)
	require.Equal(t, DecisionRedirect, decision, "guest without a confirmed session goes to login")
	require.True(t, c.Session.Probed(), "failed session check still closes the probe")

	// Повторное решение не ходит в сеть и остается Redirect
	decision, err = c.Guard.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, DecisionRedirect, decision)
}

func TestSessionReducer(t *testing.T) {
	session := NewSession(nil)
	user := mkUser(1, "me")

	session.Dispatch(SessionAction{Type: ActionLogin, User: user})
	require.Equal(t, user, session.Current())

	// Неизвестное действие состояние не меняет
	session.Dispatch(SessionAction{Type: "NOISE"})
	require.Equal(t, user, session.Current())

	session.Dispatch(SessionAction{Type: ActionLogout})
	require.Nil(t, session.Current())
}

func TestSessionProbeAdoptsServerUser(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, "", map[string]any{"user": mkUser(7, "alice")})
	}))

	user, err := c.Session.Probe(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(7), user.ID)
	require.True(t, c.Session.Probed())
}
