package workers

import (
	"testing"

	"github.com/eden-redis/loadengine/internal/latency"
	"github.com/eden-redis/loadengine/internal/orgcache"
)

func TestReportOnceSkipsEmptyHistogramWithoutTouchingOrgs(t *testing.T) {
	d := Deps{Latency: latency.New(), Orgs: nil}
	// must not panic even though Orgs is nil: an empty histogram returns
	// before ever dereferencing d.Orgs.
	reportOnce(d)
}

func TestReportOnceDrainsNonEmptyHistogram(t *testing.T) {
	h := latency.New()
	h.Record(1_000_000)
	h.Record(2_000_000)
	d := Deps{Latency: h, Orgs: orgcache.New(3, 10)}

	reportOnce(d)

	snap := h.DrainAndReset()
	if snap.Count != 0 {
		t.Fatalf("histogram still holds %d samples after reportOnce drained it", snap.Count)
	}
}
