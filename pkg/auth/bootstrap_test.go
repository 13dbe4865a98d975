// Copyright (C) 2025 Joshua Goldstein

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBootstrapInitialState(t *testing.T) {
	b := NewBootstrap()
	assert.Equal(t, StateChecking, b.State())
	assert.Nil(t, b.User())
	assert.NoError(t, b.Err())
}

func TestBootstrapTransitions(t *testing.T) {
	boom := errors.New("session expired")

	tests := []struct {
		name      string
		verify    VerifyFunc
		wantState State
		wantUser  bool
		wantErr   error
	}{
		{
			name:      "success",
			verify:    func(context.Context) (*User, error) { return &User{ID: 1, RoleID: 1}, nil },
			wantState: StateAuthenticated,
			wantUser:  true,
		},
		{
			name:      "failure",
			verify:    func(context.Context) (*User, error) { return nil, boom },
			wantState: StateUnauthenticated,
			wantErr:   boom,
		},
		{
			name:      "no user",
			verify:    func(context.Context) (*User, error) { return nil, nil },
			wantState: StateUnauthenticated,
			wantErr:   ErrNoUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBootstrap()
			assert.Equal(t, tt.wantState, b.Run(context.Background(), tt.verify))
			assert.Equal(t, tt.wantState, b.State())
			assert.Equal(t, tt.wantUser, b.User() != nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, b.Err(), tt.wantErr)
			}
		})
	}
}

func TestBootstrapSettlesOnce(t *testing.T) {
	b := NewBootstrap()
	calls := 0
	fail := func(context.Context) (*User, error) {
		calls++
		return nil, errors.New("down")
	}
	succeed := func(context.Context) (*User, error) {
		calls++
		return &User{ID: 1}, nil
	}

	assert.Equal(t, StateUnauthenticated, b.Run(context.Background(), fail))
	assert.Equal(t, StateUnauthenticated, b.Run(context.Background(), succeed), "no retry after failure")
	assert.Equal(t, 1, calls)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "checking", StateChecking.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "unknown", State(9).String())
}
