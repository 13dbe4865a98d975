// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyMarcum/crm-app/pkg/api"
)

func loginForm(username, password, next string) url.Values {
	return url.Values{
		"domain":   {testDomain},
		"username": {username},
		"password": {password},
		"next":     {next},
	}
}

func TestAnonymousRequestsRedirectToLogin(t *testing.T) {
	env := newTestEnv(t)

	res := env.get("/objects?sort=name")
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/login?next="+url.QueryEscape("/objects?sort=name"), res.Location)

	res = env.get("/")
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/login", res.Location)

	res = env.get("/api/tables/tasks")
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Contains(t, res.Body, "User not authenticated")

	assert.Zero(t, env.backend.callCount(http.MethodGet, "/auth/check"), "no credentials, no backend check")
}

func TestLoginPageListsDomains(t *testing.T) {
	env := newTestEnv(t)

	res := env.get("/login?next=/tasks")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, `<option value="acme"`)
	assert.Contains(t, res.Body, `name="next" value="/tasks"`)
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.login("admin")

	res := env.get("/")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "Welcome, Anna Admin.")
	assert.Contains(t, res.Body, "Administrator")
	assert.Zero(t, env.backend.callCount(http.MethodGet, "/auth/check"), "login seeds the verification")

	res = env.get("/login")
	assert.Equal(t, http.StatusSeeOther, res.Status, "signed-in users skip the login form")
	assert.Equal(t, "/", res.Location)
}

func TestLoginRedirectsOnlyToLocalPaths(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "/tasks?page=2", want: "/tasks?page=2"},
		{next: "//evil.example/x", want: "/"},
		{next: "https://evil.example/", want: "/"},
		{next: "", want: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			env := newTestEnv(t)
			res := env.post("/login", loginForm("master", testPassword, tt.next))
			assert.Equal(t, http.StatusSeeOther, res.Status)
			assert.Equal(t, tt.want, res.Location)
		})
	}
}

func TestLoginRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	res := env.post("/login", loginForm("admin", "", ""))
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, res.Body, "password: ")
	assert.Zero(t, env.backend.callCount(http.MethodPost, "/auth/login"))

	res = env.post("/login", loginForm("admin", "wrong", ""))
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Contains(t, res.Body, "Invalid credentials")
	assert.Contains(t, res.Body, `value="admin"`, "username is kept")
}

func TestLoginThrottling(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		res := env.post("/login", loginForm("operator", "wrong", ""))
		require.Equal(t, http.StatusUnauthorized, res.Status)
	}

	res := env.post("/login", loginForm("operator", testPassword, ""))
	assert.Equal(t, http.StatusTooManyRequests, res.Status)
	assert.Contains(t, res.Body, "Try again in")
	assert.Equal(t, 3, env.backend.callCount(http.MethodPost, "/auth/login"), "throttled logins never reach the backend")

	status := env.get("/api/login/status?domain=acme&username=operator")
	require.Equal(t, http.StatusOK, status.Status)
	var rl api.RateLimitResponse
	require.NoError(t, json.Unmarshal([]byte(status.Body), &rl))
	assert.True(t, rl.IsLimited)
	assert.InDelta(t, 30, rl.RemainingTime, 2)

	// Another user of the same domain is unaffected.
	status = env.get("/api/login/status?domain=acme&username=master")
	require.NoError(t, json.Unmarshal([]byte(status.Body), &rl))
	assert.False(t, rl.IsLimited)
	assert.Zero(t, rl.RemainingTime)
}

func TestLoginStatusRequiresParameters(t *testing.T) {
	env := newTestEnv(t)
	res := env.get("/api/login/status?domain=acme")
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Contains(t, res.Body, "domain and username are required")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.login("master")

	res := env.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/login", res.Location)
	assert.Equal(t, 1, env.backend.callCount(http.MethodPost, "/auth/logout"))

	res = env.get("/login")
	assert.Contains(t, res.Body, "You have been signed out.")

	res = env.get("/tasks")
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.Contains(t, res.Location, "/login")
}

func TestRevokedTokenEndsSession(t *testing.T) {
	env := newTestEnv(t)
	env.login("admin")
	env.backend.revoke("admin")

	// The verification is still cached; the data call is refused.
	res := env.get("/objects")
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/login", res.Location)

	res = env.get("/login")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "Your session has expired")

	res = env.get("/objects")
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.Contains(t, res.Location, "/login?next=")
}

func TestVerificationFailureDropsSession(t *testing.T) {
	env := newTestEnv(t)
	env.login("admin")
	env.backend.revoke("admin")
	env.app.verified.Invalidate("")

	res := env.get("/tasks")
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/login?next=%2Ftasks", res.Location)
	assert.Equal(t, 1, env.backend.callCount(http.MethodGet, "/auth/check"))

	res = env.get("/login")
	assert.Contains(t, res.Body, "Your session has expired")
}

func TestRoleGuard(t *testing.T) {
	env := newTestEnv(t)
	env.login("operator")

	res := env.get("/users")
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/", res.Location)

	res = env.get("/objects/new")
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/", res.Location)

	res = env.get("/api/tables/users")
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = env.get("/tasks")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.NotContains(t, res.Body, "+ New", "operators cannot create tasks")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, remote: "1.1.1.1:80", want: "10.0.0.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "10.0.0.3"}, remote: "1.1.1.1:80", want: "10.0.0.3"},
		{name: "remote addr", remote: "192.168.1.5:4321", want: "192.168.1.5"},
		{name: "remote without port", remote: "192.168.1.6", want: "192.168.1.6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}
