// Copyright (C) 2025 Joshua Goldstein

// auth.go
package main

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strings"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/attempts"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/cache"
	"github.com/SergeyMarcum/crm-app/pkg/httputil"
	"github.com/SergeyMarcum/crm-app/pkg/logger"
	"github.com/SergeyMarcum/crm-app/pkg/session"
	"github.com/SergeyMarcum/crm-app/pkg/validation"
)

var errNoSession = errors.New("no session credentials")

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for proxies)
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func verifyKey(d session.Data) string {
	return cache.Key("verify", d.Domain, d.Username, d.Token)
}

// verify resolves the session user. A successful backend check is trusted
// for the configured verify TTL.
func (a *App) verify(r *http.Request) (*auth.User, error) {
	d := a.sessions.Load(r)
	if !d.Authenticated() {
		return nil, errNoSession
	}
	creds := api.Credentials{Domain: d.Domain, Username: d.Username, Token: d.Token}

	u, err := cache.Fetch(r.Context(), a.verified, verifyKey(d), func(ctx context.Context) (api.User, error) {
		return a.client.CheckSession(ctx, creds)
	})
	if err != nil {
		return nil, err
	}

	user := &auth.User{
		ID:       u.ID,
		Username: d.Username,
		Name:     u.Name,
		RoleID:   u.RoleID,
		Domain:   d.Domain,
		Token:    d.Token,
	}
	// Some backends answer the check with an empty body.
	if user.ID == 0 {
		user.ID = d.UserID
	}
	if user.Name == "" {
		user.Name = d.Name
	}
	if user.RoleID == 0 {
		user.RoleID = d.RoleID
	}
	return user, nil
}

// dropSession is the guard's hook for requests that failed verification.
func (a *App) dropSession(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errNoSession) {
		return
	}
	a.forgetSession(w, r)
	if !httputil.IsAjaxRequest(r) {
		a.toast(w, r, session.ToastInfo, "Your session has expired. Please sign in again.")
	}
}

// forgetSession clears credentials, the cached verification and the
// session's table filters. The session id survives.
func (a *App) forgetSession(w http.ResponseWriter, r *http.Request) {
	d := a.sessions.Load(r)
	if d.Authenticated() {
		a.verified.Invalidate(verifyKey(d))
	}
	if d.ID != "" {
		a.filters.ResetScope(d.ID)
	}
	if err := a.sessions.Clear(w, r); err != nil {
		a.log.Error("Failed to clear session", err)
	}
}

func (a *App) renderLogin(w http.ResponseWriter, r *http.Request, status int, view loginView) {
	domains, err := a.domains(r.Context())
	if err != nil {
		a.log.Warning("Could not load domains", "error", err.Error())
	}
	view.Domains = domains
	view.Next = auth.SafeNext(view.Next, "")
	view.Toasts = a.sessions.PopToasts(w, r)

	if err := a.views.Render(w, status, "login.html", false, view); err != nil {
		httputil.InternalServerError(w, "Could not render page", err)
	}
}

// loginPageHandler serves the sign-in form.
func (a *App) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	if a.sessions.Load(r).Authenticated() {
		http.Redirect(w, r, auth.SafeNext(r.URL.Query().Get("next"), "/"), http.StatusSeeOther)
		return
	}
	a.renderLogin(w, r, http.StatusOK, loginView{Next: r.URL.Query().Get("next")})
}

func cooldownSeconds(d interface{ Seconds() float64 }) int {
	return int(math.Ceil(d.Seconds()))
}

// loginHandler signs in against the backend, throttling repeated failures.
func (a *App) loginHandler(w http.ResponseWriter, r *http.Request) {
	view := loginView{
		Domain:   strings.TrimSpace(r.FormValue("domain")),
		Username: strings.TrimSpace(r.FormValue("username")),
		Next:     r.FormValue("next"),
	}
	password := r.FormValue("password")

	v := validation.NewValidator()
	v.Required("domain", view.Domain).
		Required("username", view.Username).
		Required("password", password)
	if v.HasErrors() {
		view.Error = v.FirstError()
		a.renderLogin(w, r, http.StatusUnprocessableEntity, view)
		return
	}

	ctx := r.Context()
	login := attempts.Login(view.Domain, view.Username)
	ip := getClientIP(r)

	limited, remaining, err := a.attempts.Limited(ctx, login)
	if err != nil {
		httputil.InternalServerError(w, "", err)
		return
	}
	if limited {
		logger.Security("login_throttled", map[string]interface{}{
			"login": login, "ip": ip, "remaining": remaining.String(),
		})
		view.Cooldown = cooldownSeconds(remaining)
		a.renderLogin(w, r, http.StatusTooManyRequests, view)
		return
	}

	res, err := a.client.Login(ctx, view.Domain, view.Username, password)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			if recErr := a.attempts.Record(ctx, login, ip, false); recErr != nil {
				a.log.Error("Failed to record login attempt", recErr)
			}
			logger.Security("login_failed", map[string]interface{}{"login": login, "ip": ip})
			view.Error = "Invalid credentials"
			a.renderLogin(w, r, http.StatusUnauthorized, view)
			return
		}
		a.log.Error("Login request failed", err, "login", login)
		view.Error = backendMessage(err)
		a.renderLogin(w, r, http.StatusBadGateway, view)
		return
	}

	if err := a.attempts.Record(ctx, login, ip, true); err != nil {
		a.log.Error("Failed to record login attempt", err)
	}
	logger.Security("login_success", map[string]interface{}{"login": login, "ip": ip})

	old := a.sessions.Load(r)
	if old.ID != "" {
		a.filters.ResetScope(old.ID)
	}
	d, err := a.sessions.Save(w, r, session.Data{
		ID:       old.ID,
		Domain:   view.Domain,
		Username: view.Username,
		Token:    res.Token,
		UserID:   res.User.ID,
		Name:     res.User.Name,
		RoleID:   res.User.RoleID,
	})
	if err != nil {
		httputil.InternalServerError(w, "Could not start session", err)
		return
	}
	// The login answer already proves the token.
	a.verified.Set(verifyKey(d), res.User)

	name := res.User.Name
	if name == "" {
		name = view.Username
	}
	a.toast(w, r, session.ToastSuccess, "Welcome, "+name+".")
	http.Redirect(w, r, auth.SafeNext(view.Next, "/"), http.StatusSeeOther)
}

// logoutHandler ends the backend session and forgets it locally.
func (a *App) logoutHandler(w http.ResponseWriter, r *http.Request) {
	d := a.sessions.Load(r)
	if d.Authenticated() {
		creds := api.Credentials{Domain: d.Domain, Username: d.Username, Token: d.Token}
		if err := a.client.Logout(r.Context(), creds); err != nil {
			a.log.Warning("Backend logout failed", "error", err.Error())
		}
		logger.Security("logout", map[string]interface{}{"login": attempts.Login(d.Domain, d.Username)})
	}
	a.forgetSession(w, r)
	a.toast(w, r, session.ToastInfo, "You have been signed out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// loginStatusHandler reports the cooldown for a domain/username pair so the
// sign-in form can disable itself.
func (a *App) loginStatusHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	domain, username := strings.TrimSpace(q.Get("domain")), strings.TrimSpace(q.Get("username"))
	if domain == "" || username == "" {
		api.WriteErrorResponse(w, http.StatusBadRequest, "domain and username are required")
		return
	}

	limited, remaining, err := a.attempts.Limited(r.Context(), attempts.Login(domain, username))
	if err != nil {
		a.log.Error("Failed to check login throttle", err)
		api.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	api.WriteRateLimitResponse(w, limited, cooldownSeconds(remaining))
}
