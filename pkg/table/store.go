// Copyright (C) 2025 Joshua Goldstein

package table

import (
	"strings"
	"sync"
	"time"
)

// FilterStore holds the filter state of one table instance. Values typed into
// the filter form are drafts; they only affect visible rows after Apply.
type FilterStore struct {
	mu      sync.RWMutex
	draft   map[string]string
	applied map[string]string
}

// NewFilterStore creates an empty store.
func NewFilterStore() *FilterStore {
	return &FilterStore{
		draft:   make(map[string]string),
		applied: make(map[string]string),
	}
}

// SetDraft records a pending filter value. An empty value removes the field.
func (s *FilterStore) SetDraft(field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.draft, field)
		return
	}
	s.draft[field] = value
}

// Draft returns a copy of the pending values.
func (s *FilterStore) Draft() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.draft)
}

// Apply commits the draft and returns the applied values.
func (s *FilterStore) Apply() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = copyMap(s.draft)
	return copyMap(s.applied)
}

// Replace sets the draft to values and applies it in one step.
func (s *FilterStore) Replace(values map[string]string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = make(map[string]string, len(values))
	for k, v := range values {
		if v != "" {
			s.draft[k] = v
		}
	}
	s.applied = copyMap(s.draft)
	return copyMap(s.applied)
}

// Applied returns a copy of the committed values.
func (s *FilterStore) Applied() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.applied)
}

// Active reports whether any filter is applied.
func (s *FilterStore) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.applied) > 0
}

// Clear drops draft and applied values.
func (s *FilterStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = make(map[string]string)
	s.applied = make(map[string]string)
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type registryEntry struct {
	store    *FilterStore
	lastUsed time.Time
}

// Registry owns the filter stores of all live table instances, keyed by
// "<scope>/<table>" where scope identifies the browser session.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*registryEntry
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]*registryEntry),
		now:    time.Now,
	}
}

// Key builds the registry key for a table within a scope.
func Key(scope, table string) string {
	return scope + "/" + table
}

// Store returns the store for key, creating it on first use.
func (r *Registry) Store(key string) *FilterStore {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.stores[key]
	if !ok {
		e = &registryEntry{store: NewFilterStore()}
		r.stores[key] = e
	}
	e.lastUsed = r.now()
	return e.store
}

// Applied returns the applied filters for key without creating a store.
func (r *Registry) Applied(key string) map[string]string {
	r.mu.Lock()
	e, ok := r.stores[key]
	if ok {
		e.lastUsed = r.now()
	}
	r.mu.Unlock()
	if !ok {
		return map[string]string{}
	}
	return e.store.Applied()
}

// Reset forgets the store for key.
func (r *Registry) Reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, key)
}

// ResetScope forgets every store of a scope and returns how many were dropped.
func (r *Registry) ResetScope(scope string) int {
	prefix := scope + "/"
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.stores {
		if strings.HasPrefix(k, prefix) {
			delete(r.stores, k)
			n++
		}
	}
	return n
}

// Prune forgets stores unused for longer than idle.
func (r *Registry) Prune(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, e := range r.stores {
		if e.lastUsed.Before(cutoff) {
			delete(r.stores, k)
			n++
		}
	}
	return n
}

// Len returns the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
