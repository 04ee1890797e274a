package workers

import (
	"math/rand"
	"testing"

	"github.com/eden-redis/loadengine/internal/ids"
	"github.com/eden-redis/loadengine/internal/orgcache"
)

func TestPickKindCoversFullDistribution(t *testing.T) {
	counts := make(map[queryKind]int)
	for roll := 0; roll < 100; roll++ {
		kind, ttl := pickKind(roll)
		counts[kind]++
		if ttl <= 0 {
			t.Fatalf("pickKind(%d) returned non-positive ttl %d", roll, ttl)
		}
	}
	// 40/20/10/10/5/5/5/5, summing to the full [0,100) range.
	want := map[queryKind]int{
		kindOverview24h:       40,
		kindHourly:            20,
		kindTopPages:          10,
		kindEventDistribution: 10,
		kindUserActivity:      5,
		kindPagePerformance:   5,
		kindRealtime:          5,
		kindOverview1h:        5,
	}
	for kind, want := range want {
		if counts[kind] != want {
			t.Errorf("pickKind distribution for kind %d = %d, want %d", kind, counts[kind], want)
		}
	}
}

func TestQueryKeyAndLabelUserActivityFallsBackWhenOrgHasNoUsers(t *testing.T) {
	orgs := orgcache.New(0, 10)
	org := ids.NewOrgID()
	d := Deps{Orgs: orgs}

	key, label := queryKeyAndLabel(org, kindUserActivity, rand.New(rand.NewSource(1)), d)
	if label != "user_activity" {
		t.Fatalf("label = %q, want %q", label, "user_activity")
	}
	if key == "" {
		t.Fatalf("key is empty")
	}
}

func TestFabricateProducesValidJSONForEveryKind(t *testing.T) {
	org := ids.NewOrgID()
	rng := rand.New(rand.NewSource(1))
	for _, kind := range []queryKind{
		kindOverview24h, kindOverview1h, kindHourly, kindTopPages,
		kindEventDistribution, kindUserActivity, kindPagePerformance, kindRealtime,
	} {
		doc, err := fabricate(org, kind, "irrelevant-key", rng)
		if err != nil {
			t.Fatalf("fabricate(kind=%d): %v", kind, err)
		}
		if len(doc) == 0 {
			t.Fatalf("fabricate(kind=%d) returned empty document", kind)
		}
	}
}
