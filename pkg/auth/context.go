// Package auth provides authentication and authorization utilities
// Copyright (C) 2025 Joshua Goldstein

package auth

import (
	"context"
	"net/http"
)

// User is the signed-in console user as resolved by the backend.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	RoleID   int    `json:"role_id"`
	Domain   string `json:"domain"`
	Token    string `json:"-"`
}

// Role returns the user's role.
func (u *User) Role() Role {
	return Role(u.RoleID)
}

// DisplayName prefers the full name over the login.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Define a custom type for context keys to avoid collisions
type contextKey string

const userContextKey contextKey = "user"

// GetCurrentUser extracts the user from the request context
func GetCurrentUser(r *http.Request) (*User, bool) {
	return UserFromContext(r.Context())
}

// UserFromContext extracts the user from ctx
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok && user != nil
}

// SetUserContext adds a user to the request context
func SetUserContext(r *http.Request, user *User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

// MustGetCurrentUser panics if user is not in context (for use after auth middleware)
func MustGetCurrentUser(r *http.Request) *User {
	user, ok := GetCurrentUser(r)
	if !ok {
		panic("user not found in context - ensure auth middleware is applied")
	}
	return user
}
