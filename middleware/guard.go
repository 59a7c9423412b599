package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/exitpass/session"
)

// Authorizer decides whether the current session may open a view.
// *session.Manager and *exitpass.Client both satisfy it.
type Authorizer interface {
	Authorize(ctx context.Context, roles ...session.Role) session.Decision
}

// ViewPaths maps each view to the local URL path that serves it.
type ViewPaths map[session.View]string

// DefaultViewPaths is used by [RequireRoles] and [RequireView].
var DefaultViewPaths = ViewPaths{
	session.ViewLogin:   "/",
	session.ViewRequest: "/request",
	session.ViewApprove: "/approve",
	session.ViewGuard:   "/guard",
}

// Path returns the path of view, falling back to the login path and then "/".
func (p ViewPaths) Path(view session.View) string {
	if path, ok := p[view]; ok && path != "" {
		return path
	}
	if path, ok := p[session.ViewLogin]; ok && path != "" {
		return path
	}
	return "/"
}

type sessionContextKey struct{}

// SessionFromContext returns the session admitted by the guard.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(session.Session)
	return s, ok
}

// RequireRoles admits requests whose session role is in roles; an empty list
// admits any valid session. Denied requests are answered with 303 See Other
// to the view the session should be on.
func RequireRoles(auth Authorizer, roles ...session.Role) func(http.Handler) http.Handler {
	return Guard(auth, DefaultViewPaths, roles...)
}

// RequireView gates a handler with the roles [session.ViewRoles] assigns to
// view.
func RequireView(auth Authorizer, view session.View) func(http.Handler) http.Handler {
	return Guard(auth, DefaultViewPaths, session.ViewRoles(view)...)
}

// Guard is RequireRoles with a custom path table.
func Guard(auth Authorizer, paths ViewPaths, roles ...session.Role) func(http.Handler) http.Handler {
	if paths == nil {
		paths = DefaultViewPaths
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				http.Redirect(w, r, paths.Path(session.ViewLogin), http.StatusSeeOther)
				return
			}

			d := auth.Authorize(r.Context(), roles...)
			if !d.Allowed {
				target := paths.Path(d.Redirect)
				// a view that redirects to itself would loop
				if target == r.URL.Path {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, d.Session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
