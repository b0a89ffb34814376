package snapshot

import (
	"sync"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/geo"
)

// Store holds the route set of the last render pass.
// Values are deep-copied on the way in and on the way out, so callers can
// never mutate the stored routes.
type Store struct {
	mu         sync.RWMutex
	lastRoutes [][]geo.NodeID
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Get returns a copy of the stored routes.
func (s *Store) Get() [][]geo.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.lastRoutes)
}

// At returns a copy of route i, or false when no route is stored at i.
func (s *Store) At(i int) ([]geo.NodeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.lastRoutes) {
		return nil, false
	}
	return append([]geo.NodeID(nil), s.lastRoutes[i]...), true
}

// Len returns the number of stored routes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lastRoutes)
}

// Set replaces the stored routes wholesale.
func (s *Store) Set(routes [][]geo.NodeID) {
	c := clone(routes)
	s.mu.Lock()
	s.lastRoutes = c
	s.mu.Unlock()
}

func clone(routes [][]geo.NodeID) [][]geo.NodeID {
	out := make([][]geo.NodeID, len(routes))
	for i, r := range routes {
		out[i] = append([]geo.NodeID(nil), r...)
	}
	return out
}
