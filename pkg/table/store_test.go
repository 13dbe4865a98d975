// Copyright (C) 2025 Joshua Goldstein

package table

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilterStoreDraftIsNotApplied(t *testing.T) {
	s := NewFilterStore()
	s.SetDraft("email", "ivan")

	assert.Equal(t, map[string]string{"email": "ivan"}, s.Draft())
	assert.Empty(t, s.Applied())
	assert.False(t, s.Active())

	visible := Apply(sampleRows(), s.Applied())
	assert.Len(t, visible, 3, "draft filters must not narrow rows")
}

func TestFilterStoreApplyAndClear(t *testing.T) {
	rows := sampleRows()
	s := NewFilterStore()

	s.SetDraft("email", "ivan")
	applied := s.Apply()
	assert.Equal(t, map[string]string{"email": "ivan"}, applied)
	assert.True(t, s.Active())
	assert.Len(t, Apply(rows, s.Applied()), 1)

	s.Clear()
	assert.False(t, s.Active())
	assert.Empty(t, s.Draft())
	assert.Equal(t, rows, Apply(rows, s.Applied()), "clearing restores the full row-set")
}

func TestFilterStoreSetDraftEmptyRemoves(t *testing.T) {
	s := NewFilterStore()
	s.SetDraft("email", "ivan")
	s.SetDraft("email", "")
	assert.Empty(t, s.Draft())
}

func TestFilterStoreReplace(t *testing.T) {
	s := NewFilterStore()
	s.SetDraft("name", "old")
	got := s.Replace(map[string]string{"email": "petr", "name": ""})

	assert.Equal(t, map[string]string{"email": "petr"}, got)
	assert.Equal(t, got, s.Draft())
}

func TestFilterStoreReturnsCopies(t *testing.T) {
	s := NewFilterStore()
	s.SetDraft("email", "ivan")
	s.Apply()

	applied := s.Applied()
	applied["email"] = "mutated"
	assert.Equal(t, "ivan", s.Applied()["email"])
}

func TestRegistryScopes(t *testing.T) {
	r := NewRegistry()

	a := r.Store(Key("sess-a", "users"))
	a.Replace(map[string]string{"email": "ivan"})
	r.Store(Key("sess-a", "objects"))
	r.Store(Key("sess-b", "users"))

	assert.Same(t, a, r.Store(Key("sess-a", "users")))
	assert.Equal(t, map[string]string{"email": "ivan"}, r.Applied(Key("sess-a", "users")))
	assert.Empty(t, r.Applied(Key("sess-b", "users")))
	assert.Empty(t, r.Applied(Key("sess-c", "users")))
	assert.Equal(t, 3, r.Len())

	assert.Equal(t, 2, r.ResetScope("sess-a"))
	assert.Equal(t, 1, r.Len())

	r.Reset(Key("sess-b", "users"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryPrune(t *testing.T) {
	r := NewRegistry()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Store(Key("old", "users"))
	now = now.Add(3 * time.Hour)
	r.Store(Key("new", "users"))

	assert.Equal(t, 1, r.Prune(2*time.Hour))
	assert.Equal(t, 1, r.Len())
	assert.Empty(t, r.Applied(Key("old", "users")))
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := r.Store(Key("sess", "users"))
			s.SetDraft("email", "x")
			s.Apply()
			_ = r.Applied(Key("sess", "users"))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, r.Len())
}
