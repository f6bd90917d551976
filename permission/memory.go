package permission

import (
	"context"
	"sync"

	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrGrantNotFound is returned by DeleteGrant when id doesn't exist.
var ErrGrantNotFound = errors.MustNewCode("permission.grant_not_found")

// MemoryStore is an in-process Store for tests and single-process
// development use.
type MemoryStore struct {
	mu     sync.RWMutex
	grants map[string]Grant
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[string]Grant)}
}

func (s *MemoryStore) GrantsForPrincipal(_ context.Context, principal Principal) ([]Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Grant
	for _, g := range s.grants {
		if g.PrincipalType == principal.Type && g.PrincipalID == principal.ID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *MemoryStore) GrantsForResource(_ context.Context, resourceType ResourceType, resourceID string) ([]Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Grant
	for _, g := range s.grants {
		if g.ResourceType == resourceType && g.ResourceID == resourceID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateGrant(_ context.Context, g Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g.ID] = g
	return nil
}

func (s *MemoryStore) DeleteGrant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[id]; !ok {
		return errors.New(ErrGrantNotFound, "grant not found", nil).AddContext("id", id)
	}
	delete(s.grants, id)
	return nil
}

func (s *MemoryStore) DeleteGrantsForResource(_ context.Context, resourceType ResourceType, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, g := range s.grants {
		if g.ResourceType == resourceType && g.ResourceID == resourceID {
			delete(s.grants, id)
		}
	}
	return nil
}

// AllGrants returns every grant currently stored, for EffectiveLevel
// callers that load the whole set once per request rather than
// issuing a resource-scoped query.
func (s *MemoryStore) AllGrants(_ context.Context) ([]Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Grant, 0, len(s.grants))
	for _, g := range s.grants {
		out = append(out, g)
	}
	return out, nil
}
