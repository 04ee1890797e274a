package workers

import (
	"context"
	"log"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/eden-redis/loadengine/internal/backend"
	"github.com/eden-redis/loadengine/internal/metrics"
	"github.com/eden-redis/loadengine/internal/model"
)

// eventWeight pairs an event kind with its weight in the 60/28/8/3/1
// multinomial used for metric labels.
type eventWeight struct {
	kind   model.EventType
	weight int
}

var eventWeights = []eventWeight{
	{model.EventPageView, 60},
	{model.EventClick, 28},
	{model.EventConversion, 8},
	{model.EventSignUp, 3},
	{model.EventPurchase, 1},
}

func classifyEvent(roll int) model.EventType {
	acc := 0
	for _, ew := range eventWeights {
		acc += ew.weight
		if roll < acc {
			return ew.kind
		}
	}
	return model.EventPurchase
}

// RunEventSimulator fires once per wall-clock second: it issues
// eventsPerSecond pipelined incr calls against realtime counter keys,
// picking a random org per event and classifying it by the weighted
// multinomial for metric labels only. The per-second cadence is paced with
// a rate.Limiter rather than a bare ticker so a slow tick (GC pause, Redis
// hiccup) doesn't compound into a burst on the next one.
func RunEventSimulator(ctx context.Context, eventsPerSecond int, d Deps) error {
	if eventsPerSecond <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		if err := limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}
		tick(ctx, eventsPerSecond, d, rng)
	}
}

func tick(ctx context.Context, eventsPerSecond int, d Deps, rng *rand.Rand) {
	start := time.Now()
	defer func() { metrics.EventGenerationDuration.Observe(time.Since(start).Seconds()) }()

	keys := make([]string, 0, eventsPerSecond)
	for i := 0; i < eventsPerSecond; i++ {
		org, ok := d.Orgs.RandomOrg()
		if !ok {
			continue
		}
		kind := classifyEvent(rng.Intn(100))
		metrics.EventsGeneratedTotal.WithLabelValues(kind.String()).Inc()
		keys = append(keys, backend.KeyRealtimeBucketCount(org, "minute"))
	}
	if len(keys) == 0 {
		return
	}
	if err := d.Store.IncrBatch(ctx, keys); err != nil {
		log.Printf("event simulator: incr_batch: %v", err)
	}
}
