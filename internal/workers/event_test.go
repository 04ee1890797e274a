package workers

import (
	"context"
	"testing"
	"time"

	"github.com/eden-redis/loadengine/internal/backend"
	"github.com/eden-redis/loadengine/internal/latency"
	"github.com/eden-redis/loadengine/internal/model"
	"github.com/eden-redis/loadengine/internal/orgcache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestClassifyEventCoversFullWeightedDistribution(t *testing.T) {
	counts := make(map[model.EventType]int)
	for roll := 0; roll < 100; roll++ {
		counts[classifyEvent(roll)]++
	}
	want := map[model.EventType]int{
		model.EventPageView:   60,
		model.EventClick:      28,
		model.EventConversion: 8,
		model.EventSignUp:     3,
		model.EventPurchase:   1,
	}
	for kind, wantCount := range want {
		if counts[kind] != wantCount {
			t.Errorf("classifyEvent distribution for %s = %d, want %d", kind, counts[kind], wantCount)
		}
	}
}

func TestClassifyEventOutOfRangeRollFallsBackToPurchase(t *testing.T) {
	if got := classifyEvent(1000); got != model.EventPurchase {
		t.Fatalf("classifyEvent(1000) = %s, want %s", got, model.EventPurchase)
	}
}

func TestTickIncrementsRealtimeCountersForKnownOrgs(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store, err := backend.New(backend.KindPlain, testAcquirer{client})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	orgs := orgcache.New(3, 10)
	d := Deps{Store: store, Orgs: orgs, Latency: latency.New()}

	tick(ctx, 10, d, deterministicRNG(1))

	total := int64(0)
	for _, org := range orgs.IDs() {
		key := backend.KeyRealtimeBucketCount(org, "minute")
		val, err := client.Get(ctx, key).Int64()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			t.Fatalf("GET %q: %v", key, err)
		}
		total += val
	}
	if total != 10 {
		t.Fatalf("tick() incremented realtime counters by %d total, want 10", total)
	}
}

func TestTickNoopWhenOrgCacheEmpty(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store, err := backend.New(backend.KindPlain, testAcquirer{client})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	d := Deps{Store: store, Orgs: orgcache.New(0, 10), Latency: latency.New()}

	// must return promptly without blocking or panicking when there are no
	// orgs to pick from.
	done := make(chan struct{})
	go func() {
		tick(ctx, 10, d, deterministicRNG(1))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick() did not return with an empty org cache")
	}
}
