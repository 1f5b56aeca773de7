// Package statestore keeps the latest known state of every host entity.
package statestore

import (
	"errors"
	"maps"
	"sync"

	"github.com/couchcryptid/fire-danger-card/internal/domain"
)

// ErrNotFound is returned when an entity has no recorded state.
var ErrNotFound = errors.New("entity not found")

// MemoryStore is a concurrency-safe in-memory entity state store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]domain.EntityState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]domain.EntityState)}
}

// Apply records each change in order and returns how many entities were
// written or removed. Later changes to the same entity win.
func (s *MemoryStore) Apply(changes ...domain.StateChange) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for _, c := range changes {
		if c.EntityID == "" {
			continue
		}
		if c.Removed() {
			if _, ok := s.states[c.EntityID]; ok {
				delete(s.states, c.EntityID)
				applied++
			}
			continue
		}
		s.states[c.EntityID] = domain.EntityState{
			State:      *c.State,
			Attributes: maps.Clone(c.Attributes),
		}
		applied++
	}
	return applied
}

// Get returns the current state of one entity.
func (s *MemoryStore) Get(entityID string) (domain.EntityState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[entityID]
	if !ok {
		return domain.EntityState{}, ErrNotFound
	}
	return state, nil
}

// Snapshot returns a copy of every entity state. The copy is safe to hand to
// a render pass while further changes are applied.
func (s *MemoryStore) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(domain.Snapshot, len(s.states))
	for id, state := range s.states {
		snap[id] = domain.EntityState{
			State:      state.State,
			Attributes: maps.Clone(state.Attributes),
		}
	}
	return snap
}

// Len returns the number of entities in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
