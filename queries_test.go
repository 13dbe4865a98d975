// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/cache"
)

func TestQueryKeySeparatesTenants(t *testing.T) {
	a := queryKey(entityUsers, api.Credentials{Domain: "a|b", Username: "c"}, "list")
	b := queryKey(entityUsers, api.Credentials{Domain: "a", Username: "b|c"}, "list")
	assert.NotEqual(t, a, b)

	q := &queries{cache: cache.New(time.Minute)}
	q.cache.Set(a, []string{"tenant a|b"})
	q.cache.Set(b, []string{"tenant a"})
	assert.Equal(t, 1, q.invalidate(entityUsers, api.Credentials{Domain: "a"}))
	_, ok := q.cache.Get(a)
	assert.True(t, ok, "another domain keeps its entries")
}

func TestInvalidateDuringListFetch(t *testing.T) {
	q := &queries{cache: cache.New(time.Minute)}
	creds := api.Credentials{Domain: testDomain, Username: "admin"}
	key := queryKey(entityUsers, creds, "list")

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Fetch(context.Background(), q.cache, key, func(context.Context) ([]string, error) {
			close(started)
			<-release
			return []string{"old"}, nil
		})
	}()
	<-started

	q.invalidate(entityUsers, creds)
	close(release)
	<-done

	got, err := cache.Fetch(context.Background(), q.cache, key, func(context.Context) ([]string, error) {
		return []string{"new"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, got)
}
