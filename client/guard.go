package client

import "context"

type Decision string

const (
	DecisionAllow    Decision = "allow"
	DecisionLoading  Decision = "loading"
	DecisionRedirect Decision = "redirect"
)

// Guard - охрана закрытых экранов. Пока сессия не опрошена, решение
// Loading; гость получает Redirect на страницу входа.
type Guard struct {
	session  *Session
	redirect string
}

func NewGuard(session *Session) *Guard {
	return &Guard{session: session, redirect: "/login"}
}

// Check решает мгновенно, без похода в сеть
func (g *Guard) Check() Decision {
	if g.session.Current() != nil {
		return DecisionAllow
	}
	if !g.session.Probed() {
		return DecisionLoading
	}
	return DecisionRedirect
}

// Resolve доводит решение до Allow или Redirect, при необходимости
// опрашивая сервер. Проба выполняется не больше одного раза на сессию;
// если она упала или не вернула пользователя, гость едет на вход.
func (g *Guard) Resolve(ctx context.Context) (Decision, error) {
	if g.session.Current() != nil {
		return DecisionAllow, nil
	}
	if !g.session.Probed() {
		user, err := g.session.Probe(ctx)
		if err != nil {
			return DecisionRedirect, err
		}
		if user != nil {
			return DecisionAllow, nil
		}
	}
	return DecisionRedirect, nil
}

// RedirectTo - куда отправлять гостя
func (g *Guard) RedirectTo() string {
	return g.redirect
}
