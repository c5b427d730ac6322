package permissions

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu sync.RWMutex

	// grants maps subject -> set of nodes
	grants map[string]map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[string]map[string]struct{})}
}

// Grant implements Store.
func (s *MemoryStore) Grant(ctx context.Context, subject, node string) error {
	if err := validate(subject, node); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.grants[subject]
	if !ok {
		set = make(map[string]struct{})
		s.grants[subject] = set
	}
	set[normalize(node)] = struct{}{}
	return nil
}

// Revoke implements Store.
func (s *MemoryStore) Revoke(ctx context.Context, subject, node string) error {
	if err := validate(subject, node); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.grants[subject]; ok {
		delete(set, normalize(node))
		if len(set) == 0 {
			delete(s.grants, subject)
		}
	}
	return nil
}

// Nodes implements Store.
func (s *MemoryStore) Nodes(ctx context.Context, subject string) ([]string, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, ErrEmptySubject
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.grants[subject]), nil
}

// Subjects returns every subject with at least one grant.
func (s *MemoryStore) Subjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string]struct{}, len(s.grants))
	for subject := range s.grants {
		set[subject] = struct{}{}
	}
	return sortedKeys(set)
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
