package grid

import "sync"

// memoryLayoutStore keeps layouts in process memory.
type memoryLayoutStore struct {
	mu      sync.Mutex
	layouts map[string]Layout
}

// newMemoryLayoutStore constructs an empty in-memory store.
func newMemoryLayoutStore() *memoryLayoutStore {
	return &memoryLayoutStore{layouts: map[string]Layout{}}
}

// LoadLayout returns the saved layout for gridID.
func (s *memoryLayoutStore) LoadLayout(gridID string) (Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layouts[gridID]
	if !ok {
		return Layout{}, ErrLayoutNotFound
	}
	return l.Clone(), nil
}

// SaveLayout stores a copy of layout under gridID.
func (s *memoryLayoutStore) SaveLayout(gridID string, layout Layout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts[gridID] = layout.Clone()
	return nil
}
