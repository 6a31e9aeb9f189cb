package auth

import (
	"context"
	"sort"
	"sync"
)

// PermissionStore looks up the permissions assigned to a user for a source
// type. Implementations must treat an unknown user as "no permissions", not
// as an error; only infrastructure failures are errors.
type PermissionStore interface {
	UserPermissions(ctx context.Context, userID, sourceType string) ([]string, error)
	Ping(ctx context.Context) error
}

// StaticStore is an in-memory permission store keyed by (source type, user).
// Used in development and tests; production deployments use the Redis or
// Postgres stores.
type StaticStore struct {
	mu    sync.RWMutex
	perms map[string][]string
}

func NewStaticStore() *StaticStore {
	return &StaticStore{perms: make(map[string][]string)}
}

func staticKey(userID, sourceType string) string {
	return sourceType + "/" + userID
}

// Grant replaces the permissions for a user on a source type.
func (s *StaticStore) Grant(userID, sourceType string, perms []string) {
	cp := make([]string, len(perms))
	copy(cp, perms)
	sort.Strings(cp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.perms[staticKey(userID, sourceType)] = cp
}

func (s *StaticStore) UserPermissions(ctx context.Context, userID, sourceType string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perms, ok := s.perms[staticKey(userID, sourceType)]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out, nil
}

func (s *StaticStore) Ping(ctx context.Context) error {
	return nil
}
