// Copyright (C) 2025 Joshua Goldstein

package auth

import (
	"net/http/httptest"
	"testing"
)

func TestGetCurrentUser(t *testing.T) {
	tests := []struct {
		name       string
		user       *User
		expectUser bool
	}{
		{
			name:       "user exists in request context",
			user:       &User{ID: 1, Username: "ivan", RoleID: 3},
			expectUser: true,
		},
		{
			name:       "no user in request context",
			user:       nil,
			expectUser: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.user != nil {
				req = SetUserContext(req, tt.user)
			}

			user, ok := GetCurrentUser(req)
			if ok != tt.expectUser {
				t.Errorf("Expected ok=%t, got %t", tt.expectUser, ok)
			}
			if tt.expectUser {
				if user == nil {
					t.Fatal("Expected user, got nil")
				}
				if user.ID != tt.user.ID || user.Username != tt.user.Username || user.RoleID != tt.user.RoleID {
					t.Errorf("Expected %+v, got %+v", tt.user, user)
				}
			}
		})
	}
}

func TestSetUserContextNilUser(t *testing.T) {
	req := SetUserContext(httptest.NewRequest("GET", "/", nil), nil)
	if _, ok := GetCurrentUser(req); ok {
		t.Error("a nil user must not count as authenticated")
	}
}

func TestUserHelpers(t *testing.T) {
	u := &User{Username: "ivan", RoleID: 2}
	if u.DisplayName() != "ivan" {
		t.Errorf("DisplayName() = %q, expected login fallback", u.DisplayName())
	}
	u.Name = "Ivan Petrov"
	if u.DisplayName() != "Ivan Petrov" {
		t.Errorf("DisplayName() = %q", u.DisplayName())
	}
	if u.Role() != RoleMaster {
		t.Errorf("Role() = %v, expected Master", u.Role())
	}
}

func TestMustGetCurrentUser(t *testing.T) {
	t.Run("user present", func(t *testing.T) {
		req := SetUserContext(httptest.NewRequest("GET", "/", nil), &User{ID: 7})
		if got := MustGetCurrentUser(req); got.ID != 7 {
			t.Errorf("Expected ID 7, got %d", got.ID)
		}
	})

	t.Run("user missing panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic")
			}
		}()
		MustGetCurrentUser(httptest.NewRequest("GET", "/", nil))
	})
}
