package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/and161185/ecotour/internal/model"
	"github.com/and161185/ecotour/internal/session"
)

func signedIn(typ model.UserType) session.State {
	return session.State{Session: model.Session{
		Token: "t",
		User:  &model.UserRecord{URI: "u", Email: "e@x", Type: typ},
	}}
}

func TestDecide_Table(t *testing.T) {
	t.Parallel()

	g := New(Paths{})
	loading := session.State{Loading: true}
	anon := session.State{}
	guarded := Route{Path: "/reservations", Access: Guarded}
	guideOnly := Route{Path: "/dashboard", Access: Guarded, AllowedRoles: []string{"Guide"}}
	signin := Route{Path: "/signin", Access: GuestOnly}

	cases := []struct {
		name  string
		st    session.State
		route Route
		want  Decision
	}{
		{"loading guarded", loading, guarded, Decision{Action: Wait}},
		{"loading guest", loading, signin, Decision{Action: Wait}},
		{"anon guarded", anon, guarded, Decision{Action: Redirect, Target: "/signin"}},
		{"anon guest", anon, signin, Decision{Action: Render}},
		{"user guarded", signedIn(model.UserTouriste), guarded, Decision{Action: Render}},
		{"tourist on signin", signedIn(model.UserTouriste), signin, Decision{Action: Redirect, Target: "/"}},
		{"guide on signin", signedIn("guide"), signin, Decision{Action: Redirect, Target: "/dashboard"}},
		{"role lowercase", signedIn("guide"), guideOnly, Decision{Action: Render}},
		{"role uppercase", signedIn("GUIDE"), guideOnly, Decision{Action: Render}},
		{"role denied", signedIn(model.UserTouriste), guideOnly, Decision{Action: Redirect, Target: "/unauthorized"}},
		{"public", loading, Route{Path: "/about"}, Decision{Action: Render}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, g.Decide(c.st, c.route), c.name)
	}
}

func TestDecide_HalfSessionIsAnonymous(t *testing.T) {
	t.Parallel()

	g := New(Paths{})
	st := session.State{Session: model.Session{User: &model.UserRecord{URI: "u", Type: model.UserGuide}}}
	got := g.Decide(st, Route{Access: Guarded})
	assert.Equal(t, Decision{Action: Redirect, Target: "/signin"}, got)
}

func TestNew_CustomPaths(t *testing.T) {
	t.Parallel()

	g := New(Paths{SignIn: "/login"})
	got := g.Decide(session.State{}, Route{Access: Guarded})
	assert.Equal(t, "/login", got.Target)
	assert.Equal(t, "/unauthorized", g.Decide(signedIn(model.UserTouriste), Route{Access: Guarded, AllowedRoles: []string{"Guide"}}).Target)
	assert.Equal(t, "redirect", Redirect.String())
}
