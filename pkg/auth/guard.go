// Copyright (C) 2025 Joshua Goldstein

package auth

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SergeyMarcum/crm-app/pkg/httputil"
	"github.com/SergeyMarcum/crm-app/pkg/logger"
)

// Verifier resolves the user behind a request's session.
type Verifier func(r *http.Request) (*User, error)

// Guard protects routes: unauthenticated requests go to the login page and
// users whose role is not allowed go to the landing page. API and AJAX
// requests get 401/403 JSON instead of redirects.
type Guard struct {
	verify Verifier

	LoginPath   string
	LandingPath string
	// OnUnauthenticated runs before the login redirect, typically to drop
	// the stale session.
	OnUnauthenticated func(w http.ResponseWriter, r *http.Request, err error)

	log *logger.Logger
}

func NewGuard(verify Verifier) *Guard {
	return &Guard{
		verify:      verify,
		LoginPath:   "/login",
		LandingPath: "/",
		log:         logger.NewLogger("auth.guard"),
	}
}

// Protect returns middleware admitting authenticated users whose role is in
// roles. No roles means any authenticated user.
func (g *Guard) Protect(roles ...Role) func(http.Handler) http.Handler {
	allowed := Roles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b := NewBootstrap()
			state := b.Run(r.Context(), func(ctx context.Context) (*User, error) {
				return g.verify(r.WithContext(ctx))
			})

			if state != StateAuthenticated {
				g.denyUnauthenticated(w, r, b.Err())
				return
			}

			user := b.User()
			if !allowed.Allows(user.Role()) {
				g.denyRole(w, r, user)
				return
			}
			next.ServeHTTP(w, SetUserContext(r, user))
		})
	}
}

// Wrap is Protect for a single handler function.
func (g *Guard) Wrap(h http.HandlerFunc, roles ...Role) http.Handler {
	return g.Protect(roles...)(h)
}

func (g *Guard) denyUnauthenticated(w http.ResponseWriter, r *http.Request, err error) {
	details := map[string]interface{}{"path": r.URL.Path}
	if err != nil {
		details["reason"] = err.Error()
	}
	g.log.Security("guard_unauthenticated", details)

	if g.OnUnauthenticated != nil {
		g.OnUnauthenticated(w, r, err)
	}
	if httputil.IsAjaxRequest(r) {
		httputil.WriteJSONError(w, "User not authenticated", http.StatusUnauthorized)
		return
	}

	target := g.LoginPath
	if r.Method == http.MethodGet && r.URL.Path != g.LandingPath {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (g *Guard) denyRole(w http.ResponseWriter, r *http.Request, user *User) {
	g.log.Security("guard_forbidden", map[string]interface{}{
		"path":     r.URL.Path,
		"username": user.Username,
		"role_id":  strconv.Itoa(user.RoleID),
	})
	if httputil.IsAjaxRequest(r) {
		httputil.WriteJSONError(w, "Insufficient role", http.StatusForbidden)
		return
	}
	http.Redirect(w, r, g.LandingPath, http.StatusSeeOther)
}

// SafeNext returns next when it is a local absolute path, otherwise fallback.
func SafeNext(next, fallback string) string {
	if next == "" {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || len(u.Path) == 0 || u.Path[0] != '/' {
		return fallback
	}
	if len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return fallback
	}
	return u.RequestURI()
}
