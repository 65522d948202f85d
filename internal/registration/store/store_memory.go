package store

import (
	"context"
	"sync"

	"confsite/internal/registration/models"
)

// InMemoryStore keeps registrations in process memory. It is used when no
// CMS project is configured.
type InMemoryStore struct {
	mu            sync.RWMutex
	registrations map[string]*models.Submission
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{registrations: make(map[string]*models.Submission)}
}

// Create stores sub under sub.ID.
func (s *InMemoryStore) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.registrations[sub.ID]; exists {
		return ErrDuplicateEmail
	}
	stored := *sub
	s.registrations[sub.ID] = &stored
	return nil
}

// FindByID returns a copy of the stored registration.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Submission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.registrations[id]
	if !ok {
		return nil, false
	}
	found := *sub
	return &found, true
}

// Count returns the number of stored registrations.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registrations)
}
