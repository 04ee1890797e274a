// Package workers hosts the four background task kinds the load engine
// runs concurrently: the query simulator pool, the event simulator, the
// warmup worker, and the system monitor. All four are started from
// cmd/loadengine/main.go under a single errgroup.Group and run until
// shutdown.
package workers

import (
	"github.com/eden-redis/loadengine/internal/backend"
	"github.com/eden-redis/loadengine/internal/latency"
	"github.com/eden-redis/loadengine/internal/orgcache"
	"github.com/eden-redis/loadengine/internal/validator"
)

// Deps bundles the shared collaborators every worker kind needs. Passed by
// value (all fields are reference types) so each worker keeps its own copy
// without indirection through a shared struct pointer.
type Deps struct {
	Store     backend.Store
	Orgs      *orgcache.Cache
	Latency   *latency.Histogram
	Validator *validator.Validator
}
