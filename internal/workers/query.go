package workers

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	"github.com/eden-redis/loadengine/internal/backend"
	"github.com/eden-redis/loadengine/internal/generator"
	"github.com/eden-redis/loadengine/internal/ids"
	"github.com/eden-redis/loadengine/internal/metrics"
	"github.com/eden-redis/loadengine/internal/validator"
)

// queryKind is one of the eight weighted query shapes the simulator pool
// draws from on every iteration.
type queryKind int

const (
	kindOverview24h queryKind = iota
	kindHourly
	kindTopPages
	kindEventDistribution
	kindUserActivity
	kindPagePerformance
	kindRealtime
	kindOverview1h
)

// pickKind maps a uniform draw in [0,100) onto the weighted query-kind
// distribution.
func pickKind(roll int) (queryKind, int) {
	switch {
	case roll < 40:
		return kindOverview24h, 900
	case roll < 60:
		return kindHourly, 3600
	case roll < 70:
		return kindTopPages, 1200
	case roll < 80:
		return kindEventDistribution, 900
	case roll < 85:
		return kindUserActivity, 1800
	case roll < 90:
		return kindPagePerformance, 1800
	case roll < 95:
		return kindRealtime, 60
	default:
		return kindOverview1h, 900
	}
}

// minQuerySimulatorWorkers is the floor for the query simulator pool.
const minQuerySimulatorWorkers = 10

// RunQuerySimulators launches n (at least minQuerySimulatorWorkers) worker
// goroutines, each looping without throttling until ctx is cancelled. The
// caller is expected to run this inside an errgroup so a panic or fatal
// error in one worker is observable; ordinary Redis errors are logged and
// the loop continues.
func RunQuerySimulators(ctx context.Context, n int, d Deps) error {
	if n < minQuerySimulatorWorkers {
		n = minQuerySimulatorWorkers
	}
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer func() { done <- struct{}{} }()
			queryWorkerLoop(ctx, id, d)
		}(i)
	}
	<-ctx.Done()
	for i := 0; i < n; i++ {
		<-done
	}
	return ctx.Err()
}

func queryWorkerLoop(ctx context.Context, id int, d Deps) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		org, ok := d.Orgs.RandomOrg()
		if !ok {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		kind, ttl := pickKind(rng.Intn(100))
		runOneQuery(ctx, d, org, kind, ttl, rng)
	}
}

func runOneQuery(ctx context.Context, d Deps, org ids.OrgID, kind queryKind, ttl int, rng *rand.Rand) {
	key, label := queryKeyAndLabel(org, kind, rng, d)
	start := time.Now()

	_, found, err := d.Store.Get(ctx, key)
	metrics.QueriesExecutedTotal.Inc()
	if err != nil {
		log.Printf("query %s: get %s: %v", label, key, err)
		return
	}

	if found {
		metrics.CacheHitsTotal.Inc()
		d.Latency.Record(uint64(time.Since(start).Nanoseconds()))
		return
	}

	metrics.CacheMissesTotal.Inc()
	fresh, err := fabricate(org, kind, key, rng)
	if err != nil {
		log.Printf("query %s: fabricate %s: %v", label, key, err)
		return
	}
	if err := d.Store.Set(ctx, key, fresh, ttl); err != nil {
		log.Printf("query %s: set %s: %v", label, key, err)
		return
	}
	d.Latency.Record(uint64(time.Since(start).Nanoseconds()))

	if d.Validator != nil && d.Validator.ShouldValidate() {
		retrieved, rfound, rerr := d.Store.Get(ctx, key)
		validator.Validate(label, fresh, retrieved, rfound, rerr)
	}
}

func queryKeyAndLabel(org ids.OrgID, kind queryKind, rng *rand.Rand, d Deps) (string, string) {
	switch kind {
	case kindOverview24h:
		return backend.KeyOverview(org, 24), "overview_24h"
	case kindOverview1h:
		return backend.KeyOverview(org, 1), "overview_1h"
	case kindHourly:
		offset := rng.Intn(24)
		bucket := time.Now().Add(-time.Duration(offset) * time.Hour).Format("2006010215")
		return backend.KeyHourly(org, bucket), "hourly"
	case kindTopPages:
		return backend.KeyTopPages(org, 24), "top_pages"
	case kindEventDistribution:
		return backend.KeyEventDistribution(org, "24h"), "event_distribution"
	case kindUserActivity:
		users := d.Orgs.Users(org)
		if len(users) == 0 {
			return backend.KeyUserActivity(ids.NewUserID()), "user_activity"
		}
		return backend.KeyUserActivity(users[rng.Intn(len(users))]), "user_activity"
	case kindPagePerformance:
		pages := generator.PopularPages()
		return backend.KeyPage(org, pages[rng.Intn(len(pages))]), "page_performance"
	case kindRealtime:
		return backend.KeyRealtime(org), "realtime"
	default:
		return backend.KeyOverview(org, 24), "overview_24h"
	}
}

func fabricate(org ids.OrgID, kind queryKind, key string, rng *rand.Rand) ([]byte, error) {
	switch kind {
	case kindOverview24h:
		return json.Marshal(generator.NewOverview(org, 24))
	case kindOverview1h:
		return json.Marshal(generator.NewOverview(org, 1))
	case kindHourly:
		return json.Marshal(generator.NewHourly(org, time.Now()))
	case kindTopPages:
		return json.Marshal(generator.NewTopPages(rng))
	case kindEventDistribution:
		return json.Marshal(generator.NewEventDistribution(org))
	case kindUserActivity:
		return json.Marshal(generator.NewUserActivity(ids.NewUserID(), org))
	case kindPagePerformance:
		pages := generator.PopularPages()
		return json.Marshal(generator.NewPagePerformance(org, pages[rng.Intn(len(pages))]))
	case kindRealtime:
		return json.Marshal(generator.NewRealtime(org))
	default:
		return json.Marshal(generator.NewOverview(org, 24))
	}
}
