// Package catalog is the host's registry of card types available to dashboards.
package catalog

import (
	"errors"
	"sync"
)

// Entry describes a card type as shown in the dashboard's card picker.
type Entry struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Preview     bool   `json:"preview"`
}

// Registry holds card definitions in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Define registers a card type. Defining a type that already exists is a
// no-op and reports false, so repeated registration on reload is harmless.
func (r *Registry) Define(e Entry) (bool, error) {
	if e.Type == "" {
		return false, errors.New("catalog: entry type is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[e.Type]; ok {
		return false, nil
	}
	r.entries[e.Type] = e
	r.order = append(r.order, e.Type)
	return true, nil
}

// Get returns the entry registered under typ.
func (r *Registry) Get(typ string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[typ]
	return e, ok
}

// Entries returns every registered entry in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.order))
	for _, typ := range r.order {
		out = append(out, r.entries[typ])
	}
	return out
}
