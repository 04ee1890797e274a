package orgcache

import (
	"testing"

	"github.com/eden-redis/loadengine/internal/ids"
)

func TestNewFabricatesOrgs(t *testing.T) {
	c := New(5, 10)
	ids := c.IDs()
	if len(ids) != 5 {
		t.Fatalf("len(IDs()) = %d, want 5", len(ids))
	}
	for _, org := range ids {
		users := c.Users(org)
		if len(users) == 0 {
			t.Fatalf("org %v has no users, want at least 1", org)
		}
		if len(users) > maxUsersPerOrg {
			t.Fatalf("org %v has %d users, want <= %d", org, len(users), maxUsersPerOrg)
		}
	}
}

func TestRandomOrgEmptyCache(t *testing.T) {
	c := New(0, 10)
	if _, ok := c.RandomOrg(); ok {
		t.Fatalf("RandomOrg() on empty cache returned ok=true")
	}
}

func TestRandomOrgReturnsKnownOrg(t *testing.T) {
	c := New(3, 10)
	known := make(map[string]bool)
	for _, org := range c.IDs() {
		known[org.String()] = true
	}
	org, ok := c.RandomOrg()
	if !ok {
		t.Fatalf("RandomOrg() ok = false, want true")
	}
	if !known[org.String()] {
		t.Fatalf("RandomOrg() returned unknown org %v", org)
	}
}

func TestUsersUnknownOrgReturnsNil(t *testing.T) {
	c := New(1, 10)
	unknown := ids.NewOrgID()
	if users := c.Users(unknown); users != nil {
		t.Fatalf("Users(unknown) = %v, want nil", users)
	}
}

func TestUsersReturnsClone(t *testing.T) {
	c := New(1, 10)
	org := c.IDs()[0]
	a := c.Users(org)
	_ = a[0] // no-op, just ensure it's addressable
	b := c.Users(org)
	if len(a) != len(b) {
		t.Fatalf("two Users() calls returned different lengths: %d vs %d", len(a), len(b))
	}
	// mutating the returned slice must not affect the cache's internal copy
	if len(a) > 0 {
		orig := a[0]
		a[0] = ids.NewUserID()
		c2 := c.Users(org)
		if c2[0] != orig {
			t.Fatalf("Users() did not return an independent clone")
		}
	}
}

func TestRefreshReplacesSnapshotAtomically(t *testing.T) {
	c := New(2, 10)
	before := c.IDs()
	c.Refresh(4, 10)
	after := c.IDs()
	if len(after) != 4 {
		t.Fatalf("len(IDs()) after Refresh(4) = %d, want 4", len(after))
	}
	if len(before) == len(after) {
		t.Fatalf("expected org count to change after Refresh")
	}
}
