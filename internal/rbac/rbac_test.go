package rbac

import (
	"context"
	"errors"
	"testing"
)

type stubFetcher struct {
	identity Identity
	err      error
	calls    int
}

func (f *stubFetcher) Identity(ctx context.Context) (Identity, error) {
	f.calls++
	return f.identity, f.err
}

func TestUnloadedStateIsPermissive(t *testing.T) {
	s := NewStore(&stubFetcher{})
	if s.Loaded() {
		t.Fatalf("fresh store must be unloaded")
	}
	if !s.Has(ResourceUsers, ActionDelete) {
		t.Fatalf("unloaded store must allow")
	}
}

func TestPermissiveRoles(t *testing.T) {
	checks := []struct {
		resource Resource
		action   Action
	}{
		{ResourceUsers, ActionRead},
		{ResourceNodes, ActionDelete},
		{Resource("unknown"), Action("whatever")},
	}
	for _, role := range []string{"", RoleAdmin, RoleSuperadmin} {
		s := NewStore(&stubFetcher{identity: Identity{Role: role}})
		s.Load(context.Background())
		for _, c := range checks {
			if !s.Has(c.resource, c.action) {
				t.Fatalf("role %q must allow %s:%s", role, c.resource, c.action)
			}
		}
	}
}

func TestRestrictedRoleEnforcesExactGrants(t *testing.T) {
	roleID := int64(3)
	s := NewStore(&stubFetcher{identity: Identity{
		Role:   "operator",
		RoleID: &roleID,
		Grants: []Grant{
			{Resource: ResourceUsers, Action: ActionRead},
			{Resource: ResourceUsers, Action: ActionUpdate},
			// duplicates are harmless
			{Resource: ResourceUsers, Action: ActionRead},
		},
	}})
	s.Load(context.Background())

	if !s.Loaded() {
		t.Fatalf("expected loaded state")
	}
	if !s.Has(ResourceUsers, ActionRead) {
		t.Fatalf("granted pair must be allowed")
	}
	if !s.Has(ResourceUsers, ActionUpdate) {
		t.Fatalf("granted pair must be allowed")
	}
	if s.Has(ResourceUsers, ActionDelete) {
		t.Fatalf("ungranted action must be denied")
	}
	if s.Has(ResourceNodes, ActionRead) {
		t.Fatalf("ungranted resource must be denied")
	}
	if id, ok := s.RoleID(); !ok || id != 3 {
		t.Fatalf("unexpected role id: %d, %v", id, ok)
	}
}

func TestLoadFailureFallsOpen(t *testing.T) {
	s := NewStore(&stubFetcher{err: errors.New("backend down")})
	s.Load(context.Background())

	if !s.Loaded() {
		t.Fatalf("failed load must still mark the store loaded")
	}
	if s.Role() != RoleSuperadmin {
		t.Fatalf("expected superadmin fallback, got %q", s.Role())
	}
	if !s.Has(ResourceBackups, ActionManage) {
		t.Fatalf("fallback state must allow everything")
	}
	if len(s.Grants()) != 0 {
		t.Fatalf("fallback state must carry no grants")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	s := NewStore(&stubFetcher{identity: Identity{
		Role:   "operator",
		Grants: []Grant{{Resource: ResourceUsers, Action: ActionRead}},
	}})
	s.Load(context.Background())

	s.Clear()
	s.Clear()

	if s.Loaded() {
		t.Fatalf("cleared store must be unloaded")
	}
	if s.Role() != "" {
		t.Fatalf("cleared store must have no role")
	}
	if _, ok := s.RoleID(); ok {
		t.Fatalf("cleared store must have no role id")
	}
	if len(s.Grants()) != 0 {
		t.Fatalf("cleared store must have no grants")
	}
	// back to the initial permissive state
	if !s.Has(ResourceUsers, ActionRead) {
		t.Fatalf("unloaded store must allow")
	}
}

func TestReloadReplacesState(t *testing.T) {
	f := &stubFetcher{identity: Identity{
		Role:   "operator",
		Grants: []Grant{{Resource: ResourceUsers, Action: ActionRead}},
	}}
	s := NewStore(f)
	s.Load(context.Background())

	f.identity = Identity{
		Role:   "auditor",
		Grants: []Grant{{Resource: ResourceStats, Action: ActionRead}},
	}
	s.Load(context.Background())

	if s.Has(ResourceUsers, ActionRead) {
		t.Fatalf("stale grant survived reload")
	}
	if !s.Has(ResourceStats, ActionRead) {
		t.Fatalf("new grant missing after reload")
	}
	if f.calls != 2 {
		t.Fatalf("expected exactly 2 identity fetches, got %d", f.calls)
	}
}
