// Package orgcache holds the read-mostly snapshot of fabricated
// organizations and their per-org user lists that workers draw from when
// deciding which key to write next.
package orgcache

import (
	"math/rand"
	"sync"

	"github.com/eden-redis/loadengine/internal/ids"
)

// maxUsersPerOrg caps per-org user fabrication to bound memory.
const maxUsersPerOrg = 100

type snapshot struct {
	orgs  []ids.OrgID
	users map[ids.OrgID][]ids.UserID
}

// Cache is a read-mostly container: readers share the read lock (RandomOrg
// additionally serializes on the rng mutex), and a Refresh briefly blocks
// them while the snapshot swaps.
type Cache struct {
	mu    sync.RWMutex
	snap  snapshot
	rng   *rand.Rand
	rngMu sync.Mutex
}

// New fabricates numOrgs organizations with usersPerOrg users each, capped
// at maxUsersPerOrg.
func New(numOrgs, usersPerOrg int) *Cache {
	c := &Cache{rng: rand.New(rand.NewSource(1))}
	c.Refresh(numOrgs, usersPerOrg)
	return c
}

// Refresh replaces the cache contents atomically: the new snapshot is built
// off to the side and only then swapped in under the write lock, so readers
// never observe a partially populated org list.
func (c *Cache) Refresh(numOrgs, usersPerOrg int) {
	if usersPerOrg < 1 {
		usersPerOrg = 1
	}
	if usersPerOrg > maxUsersPerOrg {
		usersPerOrg = maxUsersPerOrg
	}
	next := snapshot{
		orgs:  make([]ids.OrgID, 0, numOrgs),
		users: make(map[ids.OrgID][]ids.UserID, numOrgs),
	}
	for i := 0; i < numOrgs; i++ {
		org := ids.NewOrgID()
		next.orgs = append(next.orgs, org)

		users := make([]ids.UserID, usersPerOrg)
		for j := range users {
			users[j] = ids.NewUserID()
		}
		next.users[org] = users
	}

	c.mu.Lock()
	c.snap = next
	c.mu.Unlock()
}

// RandomOrg returns a uniformly random org id, or false if the cache is
// empty.
func (c *Cache) RandomOrg() (ids.OrgID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.snap.orgs) == 0 {
		return ids.OrgID{}, false
	}
	c.rngMu.Lock()
	idx := c.rng.Intn(len(c.snap.orgs))
	c.rngMu.Unlock()
	return c.snap.orgs[idx], true
}

// Users returns a cloned copy of org's user list, or nil if org is unknown.
func (c *Cache) Users(org ids.OrgID) []ids.UserID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	users, ok := c.snap.users[org]
	if !ok {
		return nil
	}
	out := make([]ids.UserID, len(users))
	copy(out, users)
	return out
}

// IDs returns a cloned copy of the full org list.
func (c *Cache) IDs() []ids.OrgID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ids.OrgID, len(c.snap.orgs))
	copy(out, c.snap.orgs)
	return out
}
