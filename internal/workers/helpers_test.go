package workers

import (
	"math/rand"

	"github.com/redis/go-redis/v9"
)

// testAcquirer adapts a single *redis.Client to backend.Acquirer for tests
// that exercise a worker against a miniredis instance.
type testAcquirer struct{ client *redis.Client }

func (a testAcquirer) Acquire() *redis.Client { return a.client }

func deterministicRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
