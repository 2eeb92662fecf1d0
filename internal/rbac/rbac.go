// Package rbac answers "may the current identity perform this action on this
// resource" synchronously, from state refreshed out-of-band via the backend
// identity endpoint.
//
// The store is deliberately fail-open: while unloaded, when the identity
// fetch fails, and for legacy or superadmin roles every check passes. That
// availability-over-enforcement tradeoff mirrors the backend's own
// authoritative checks; flipping it to fail-closed is a product decision,
// not a bug fix.
package rbac

import (
	"context"
	"sync"
)

// Grant is one allowed (resource, action) pair.
type Grant struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

// Identity is the backend's resolved view of the authenticated account.
type Identity struct {
	Role   string
	RoleID *int64
	Grants []Grant
}

// Fetcher issues the identity call. Satisfied by client.Client.
type Fetcher interface {
	Identity(ctx context.Context) (Identity, error)
}

// Store holds the authorization state for the process lifetime.
type Store struct {
	mu      sync.RWMutex
	role    string
	roleID  *int64
	grants  map[Grant]struct{}
	loaded  bool
	fetcher Fetcher
}

// NewStore returns a store in the unloaded state.
func NewStore(fetcher Fetcher) *Store {
	return &Store{
		grants:  map[Grant]struct{}{},
		fetcher: fetcher,
	}
}

// Load issues one identity fetch and replaces the authorization state. A
// fetch failure still marks the store loaded but with the maximally
// permissive role, so the UI never sits in an indeterminate state. The error
// is swallowed under that contract; callers decide whether to re-invoke.
func (s *Store) Load(ctx context.Context) {
	identity, err := s.fetcher.Identity(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.role = RoleSuperadmin
		s.roleID = nil
		s.grants = map[Grant]struct{}{}
		s.loaded = true
		return
	}
	grants := make(map[Grant]struct{}, len(identity.Grants))
	for _, g := range identity.Grants {
		grants[g] = struct{}{}
	}
	s.role = identity.Role
	s.roleID = identity.RoleID
	s.grants = grants
	s.loaded = true
}

// Has reports whether the current identity may perform action on resource.
// Pure and synchronous; never consults the network.
func (s *Store) Has(resource Resource, action Action) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.role {
	case "", RoleAdmin, RoleSuperadmin:
		return true
	}
	_, ok := s.grants[Grant{Resource: resource, Action: action}]
	return ok
}

// Loaded reports whether an identity fetch has completed since the last
// Clear.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Role returns the current role name; empty until loaded.
func (s *Store) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// RoleID returns the numeric role identifier when the backend provided one.
func (s *Store) RoleID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.roleID == nil {
		return 0, false
	}
	return *s.roleID, true
}

// Grants returns a copy of the current grant set.
func (s *Store) Grants() []Grant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Grant, 0, len(s.grants))
	for g := range s.grants {
		out = append(out, g)
	}
	return out
}

// Clear resets to the unloaded state. Idempotent; called on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = ""
	s.roleID = nil
	s.grants = map[Grant]struct{}{}
	s.loaded = false
}
