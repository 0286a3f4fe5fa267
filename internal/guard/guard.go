// Package guard decides whether a navigation may proceed for the current
// session state.
package guard

import (
	"strings"

	"github.com/and161185/ecotour/internal/model"
	"github.com/and161185/ecotour/internal/session"
)

// Access is the kind of page being entered.
type Access int

const (
	Public    Access = iota // always rendered
	Guarded                 // needs a signed-in user
	GuestOnly               // only for signed-out visitors, e.g. sign-in
)

// Route describes one navigable target.
type Route struct {
	Path         string
	Access       Access
	AllowedRoles []string // optional, Guarded only
}

// Action is what the caller should do.
type Action int

const (
	Render Action = iota
	Wait          // session still loading; show a placeholder and ask again
	Redirect
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the outcome of Decide. Target is set for Redirect.
type Decision struct {
	Action Action
	Target string
}

// Paths are the redirect targets.
type Paths struct {
	SignIn       string
	Home         string
	GuideHome    string
	Unauthorized string
}

// DefaultPaths returns the standard redirect targets.
func DefaultPaths() Paths {
	return Paths{SignIn: "/signin", Home: "/", GuideHome: "/dashboard", Unauthorized: "/unauthorized"}
}

// Guard applies the decision table with a fixed set of targets.
type Guard struct {
	paths Paths
}

// New fills empty targets from DefaultPaths.
func New(p Paths) *Guard {
	d := DefaultPaths()
	if p.SignIn == "" {
		p.SignIn = d.SignIn
	}
	if p.Home == "" {
		p.Home = d.Home
	}
	if p.GuideHome == "" {
		p.GuideHome = d.GuideHome
	}
	if p.Unauthorized == "" {
		p.Unauthorized = d.Unauthorized
	}
	return &Guard{paths: p}
}

// Decide returns what to do when entering r in state st.
// Roles are compared case-insensitively.
func (g *Guard) Decide(st session.State, r Route) Decision {
	if r.Access == Public {
		return Decision{Action: Render}
	}
	if st.Loading {
		return Decision{Action: Wait}
	}
	user := st.Session.User
	if !st.Session.Authenticated() {
		user = nil
	}

	switch r.Access {
	case GuestOnly:
		if user == nil {
			return Decision{Action: Render}
		}
		if user.Type.Is(string(model.UserGuide)) {
			return Decision{Action: Redirect, Target: g.paths.GuideHome}
		}
		return Decision{Action: Redirect, Target: g.paths.Home}
	default:
		if user == nil {
			return Decision{Action: Redirect, Target: g.paths.SignIn}
		}
		if len(r.AllowedRoles) == 0 || hasRole(user.Type, r.AllowedRoles) {
			return Decision{Action: Render}
		}
		return Decision{Action: Redirect, Target: g.paths.Unauthorized}
	}
}

func hasRole(t model.UserType, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(string(t), a) {
			return true
		}
	}
	return false
}
