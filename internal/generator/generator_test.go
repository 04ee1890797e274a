package generator

import (
	"math/rand"
	"testing"

	"github.com/eden-redis/loadengine/internal/ids"
)

func TestHourlyVolumePositiveAndPeaksNearFourteen(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	const trials = 200
	var peakSum, troughSum int64
	for i := 0; i < trials; i++ {
		v := hourlyVolume(rng, 14)
		if v <= 0 {
			t.Fatalf("hourlyVolume(14) = %d, want > 0", v)
		}
		peakSum += v
	}
	for i := 0; i < trials; i++ {
		v := hourlyVolume(rng, 3)
		if v <= 0 {
			t.Fatalf("hourlyVolume(3) = %d, want > 0", v)
		}
		troughSum += v
	}

	// Averaged over many draws the noise/base randomness cancels out and
	// only the shape multiplier remains, so the peak hour must win.
	if peakSum <= troughSum {
		t.Fatalf("average hourlyVolume(14)=%d should exceed average hourlyVolume(3)=%d", peakSum/trials, troughSum/trials)
	}
}

func TestPopularPagesFixedPool(t *testing.T) {
	pages := PopularPages()
	if len(pages) == 0 {
		t.Fatalf("PopularPages() returned no pages")
	}
	again := PopularPages()
	if len(pages) != len(again) {
		t.Fatalf("PopularPages() length changed between calls")
	}
}

func TestNewOverviewConversionRateDerivedFromOwnFields(t *testing.T) {
	org := ids.NewOrgID()
	o := NewOverview(org, 24)
	if o.PageViews <= 0 {
		t.Fatalf("PageViews = %d, want > 0", o.PageViews)
	}
	want := float64(o.Conversions) / float64(o.PageViews)
	if o.ConversionRate != want {
		t.Fatalf("ConversionRate = %v, want %v (Conversions/PageViews)", o.ConversionRate, want)
	}
	if o.OrganizationID != org {
		t.Fatalf("OrganizationID = %v, want %v", o.OrganizationID, org)
	}
	if o.TimePeriod != "24h" {
		t.Fatalf("TimePeriod = %q, want %q", o.TimePeriod, "24h")
	}
}

func TestNewTopPagesDescendingByRankOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pages := NewTopPages(rng)
	if len(pages) != len(PopularPages()) {
		t.Fatalf("len(NewTopPages()) = %d, want %d", len(pages), len(PopularPages()))
	}
	for _, p := range pages {
		if p.Views < 0 || p.UniqueVisitors < 0 {
			t.Fatalf("negative counters in %+v", p)
		}
	}
	for i := 1; i < len(pages); i++ {
		if pages[i-1].Views < pages[i].Views {
			t.Fatalf("pages not descending by views at %d: %d < %d", i, pages[i-1].Views, pages[i].Views)
		}
	}
}

func TestNewTopPagesNilRNGFallsBack(t *testing.T) {
	pages := NewTopPages(nil)
	if len(pages) != len(PopularPages()) {
		t.Fatalf("len(NewTopPages(nil)) = %d, want %d", len(pages), len(PopularPages()))
	}
}

func TestNewUserActivityBoundToUserAndOrg(t *testing.T) {
	user := ids.NewUserID()
	org := ids.NewOrgID()
	a := NewUserActivity(user, org)
	if a.UserID != user || a.OrganizationID != org {
		t.Fatalf("NewUserActivity did not bind the given user/org: %+v", a)
	}
	if a.TotalEvents != a.PageViews+a.Clicks+a.Conversions {
		t.Fatalf("TotalEvents = %d, want PageViews+Clicks+Conversions", a.TotalEvents)
	}
}

func TestNewRealtimeWithinDocumentedRanges(t *testing.T) {
	r := NewRealtime(ids.NewOrgID())
	if r.CurrentActiveUsers < 10 || r.CurrentActiveUsers >= 1000 {
		t.Fatalf("CurrentActiveUsers = %d, out of [10,1000)", r.CurrentActiveUsers)
	}
	if r.EventsLastMinute < 50 || r.EventsLastMinute >= 500 {
		t.Fatalf("EventsLastMinute = %d, out of [50,500)", r.EventsLastMinute)
	}
}
