// Copyright (C) 2025 Joshua Goldstein

package auth

import (
	"context"
	"errors"
	"sync"
)

// State is the session bootstrap state.
type State int

const (
	StateChecking State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// ErrNoUser is recorded when verification succeeds without resolving a user.
var ErrNoUser = errors.New("auth: verification returned no user")

// VerifyFunc resolves the session's user or fails.
type VerifyFunc func(ctx context.Context) (*User, error)

// Bootstrap starts in StateChecking and settles exactly once. A failed
// verification is terminal: later Run calls do not verify again.
type Bootstrap struct {
	mu    sync.Mutex
	state State
	user  *User
	err   error
}

func NewBootstrap() *Bootstrap {
	return &Bootstrap{state: StateChecking}
}

// Run verifies the session if it has not settled yet and returns the
// resulting state.
func (b *Bootstrap) Run(ctx context.Context, verify VerifyFunc) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateChecking {
		return b.state
	}

	user, err := verify(ctx)
	switch {
	case err != nil:
		b.state, b.err = StateUnauthenticated, err
	case user == nil:
		b.state, b.err = StateUnauthenticated, ErrNoUser
	default:
		b.state, b.user = StateAuthenticated, user
	}
	return b.state
}

func (b *Bootstrap) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// User returns the resolved user, nil unless authenticated.
func (b *Bootstrap) User() *User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.user
}

// Err returns why verification failed.
func (b *Bootstrap) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}
