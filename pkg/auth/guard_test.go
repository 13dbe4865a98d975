// Copyright (C) 2025 Joshua Goldstein

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifierFor(user *User, err error) Verifier {
	return func(*http.Request) (*User, error) { return user, err }
}

func contentHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := MustGetCurrentUser(r)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("content for " + u.Username))
	})
}

func TestGuardRoleMatrix(t *testing.T) {
	tests := []struct {
		name         string
		user         *User
		roles        []Role
		wantStatus   int
		wantLocation string
	}{
		{name: "admin sees admin page", user: &User{Username: "a", RoleID: 1}, roles: []Role{RoleAdmin}, wantStatus: 200},
		{name: "master redirected from admin page", user: &User{Username: "m", RoleID: 2}, roles: []Role{RoleAdmin}, wantStatus: 303, wantLocation: "/"},
		{name: "operator redirected from admin or master page", user: &User{Username: "o", RoleID: 3}, roles: []Role{RoleAdmin, RoleMaster}, wantStatus: 303, wantLocation: "/"},
		{name: "master sees admin or master page", user: &User{Username: "m", RoleID: 2}, roles: []Role{RoleAdmin, RoleMaster}, wantStatus: 200},
		{name: "operator sees open page", user: &User{Username: "o", RoleID: 3}, roles: nil, wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(verifierFor(tt.user, nil))
			rr := httptest.NewRecorder()
			g.Protect(tt.roles...)(contentHandler(t)).ServeHTTP(rr, httptest.NewRequest("GET", "/users", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantLocation, rr.Header().Get("Location"))
			if tt.wantStatus == 200 {
				assert.Equal(t, "content for "+tt.user.Username, rr.Body.String())
			} else {
				assert.NotContains(t, rr.Body.String(), "content for")
			}
		})
	}
}

func TestGuardUnauthenticatedRedirectsToLogin(t *testing.T) {
	var hookErr error
	hookCalled := false
	g := NewGuard(verifierFor(nil, errors.New("token expired")))
	g.OnUnauthenticated = func(w http.ResponseWriter, r *http.Request, err error) {
		hookCalled = true
		hookErr = err
	}

	rr := httptest.NewRecorder()
	g.Protect()(contentHandler(t)).ServeHTTP(rr, httptest.NewRequest("GET", "/objects/3?tab=tasks", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fobjects%2F3%3Ftab%3Dtasks", rr.Header().Get("Location"))
	assert.True(t, hookCalled)
	assert.EqualError(t, hookErr, "token expired")
}

func TestGuardUnauthenticatedLanding(t *testing.T) {
	g := NewGuard(verifierFor(nil, nil))
	rr := httptest.NewRecorder()
	g.Protect()(contentHandler(t)).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestGuardUnauthenticatedPost(t *testing.T) {
	g := NewGuard(verifierFor(nil, errors.New("no session")))
	rr := httptest.NewRecorder()
	g.Protect()(contentHandler(t)).ServeHTTP(rr, httptest.NewRequest("POST", "/users/1/delete", nil))

	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestGuardAjaxResponses(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		g := NewGuard(verifierFor(nil, errors.New("expired")))
		rr := httptest.NewRecorder()
		g.Protect()(contentHandler(t)).ServeHTTP(rr, httptest.NewRequest("GET", "/api/tables/users", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Empty(t, rr.Header().Get("Location"))
	})

	t.Run("forbidden", func(t *testing.T) {
		g := NewGuard(verifierFor(&User{RoleID: 3}, nil))
		req := httptest.NewRequest("GET", "/users", nil)
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		rr := httptest.NewRecorder()
		g.Protect(RoleAdmin)(contentHandler(t)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestGuardWrap(t *testing.T) {
	g := NewGuard(verifierFor(&User{Username: "o", RoleID: 3}, nil))
	g.LandingPath = "/home"

	rr := httptest.NewRecorder()
	g.Wrap(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}, RoleAdmin).ServeHTTP(rr, httptest.NewRequest("GET", "/object-types", nil))

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/home", rr.Header().Get("Location"))
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/objects/3?tab=tasks", "/objects/3?tab=tasks"},
		{"https://evil.example/", "/"},
		{"//evil.example/x", "/"},
		{"/\\evil.example", "/"},
		{"relative/path", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeNext(tt.in, "/"), tt.in)
	}
}
