// Package generator fabricates the synthetic analytics payloads cached by
// the load engine. Every exported function is a pure function of a
// freshly-seeded PRNG and the current wall clock: callers never share
// generator state across invocations, matching the "fresh per-call PRNG"
// requirement the traffic-shape model depends on.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/eden-redis/loadengine/internal/ids"
	"github.com/eden-redis/loadengine/internal/model"
)

// popularPages is the fixed pool top-pages / page-performance queries draw
// from.
var popularPages = []string{
	"/home",
	"/products",
	"/pricing",
	"/about",
	"/blog",
	"/contact",
	"/docs",
	"/login",
	"/signup",
	"/checkout",
}

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// hourlyVolume produces a realistic daily-traffic shape: a base drawn
// uniformly from [500, 2000], scaled by a mixture of two
// Gaussian bumps centered at hour 14 (σ²≈50) and hour 10 (σ²≈20), then
// perturbed by ±15% noise.
func hourlyVolume(rng *rand.Rand, hour int) int64 {
	base := 500 + rng.Float64()*1500

	h := float64(hour)
	bump1 := math.Exp(-math.Pow(h-14, 2) / (2 * 50))
	bump2 := math.Exp(-math.Pow(h-10, 2) / (2 * 20))
	shape := 0.3 + 0.7*math.Max(bump1, bump2)

	noise := 1.0 + (rng.Float64()*0.3 - 0.15)
	return int64(base * shape * noise)
}

// PopularPages returns the fixed page pool; exposed so warmup and the query
// simulator can pick from the same set the generator renders payloads for.
func PopularPages() []string { return popularPages }

// NewOverview fabricates an AnalyticsOverview for a time window of the given
// number of hours.
func NewOverview(org ids.OrgID, hours int) model.AnalyticsOverview {
	rng := newRNG()
	pageViews := int64(float64(hours) * (800 + rng.Float64()*1200))
	conversions := int64(float64(pageViews) * (0.01 + rng.Float64()*0.04))
	totalEvents := pageViews + int64(float64(pageViews)*(0.2+rng.Float64()*0.3))
	uniqueUsers := int64(float64(pageViews) * (0.3 + rng.Float64()*0.2))

	var rate float64
	if pageViews > 0 {
		rate = float64(conversions) / float64(pageViews)
	}

	return model.AnalyticsOverview{
		OrganizationID: org,
		TotalEvents:    totalEvents,
		UniqueUsers:    uniqueUsers,
		PageViews:      pageViews,
		Conversions:    conversions,
		ConversionRate: rate,
		TimePeriod:     fmt.Sprintf("%dh", hours),
	}
}

// NewHourly fabricates one hour bucket, where hour is the wall-clock hour
// (0..24) the bucket represents — the input to the daily traffic curve.
func NewHourly(org ids.OrgID, bucket time.Time) model.HourlyMetrics {
	rng := newRNG()
	events := hourlyVolume(rng, bucket.Hour())

	pageViews := int64(float64(events) * 0.60)
	clicks := int64(float64(events) * 0.28)
	conversions := int64(float64(events) * 0.08)
	signups := int64(float64(events) * 0.03)
	purchases := events - pageViews - clicks - conversions - signups
	if purchases < 0 {
		purchases = 0
	}
	revenue := float64(purchases) * (20 + rng.Float64()*180)

	return model.HourlyMetrics{
		OrganizationID: org,
		Hour:           bucket,
		Events:         events,
		UniqueUsers:    int64(float64(events) * (0.3 + rng.Float64()*0.2)),
		PageViews:      pageViews,
		Clicks:         clicks,
		Conversions:    conversions,
		Signups:        signups,
		Purchases:      purchases,
		Revenue:        revenue,
	}
}

// NewTopPages fabricates a ranked page list, descending by views.
func NewTopPages(rng0 *rand.Rand) []model.TopPage {
	rng := rng0
	if rng == nil {
		rng = newRNG()
	}
	pages := make([]model.TopPage, len(popularPages))
	for i, url := range popularPages {
		views := int64(2000-i*150) + int64(rng.Intn(500))
		if views < 0 {
			views = 0
		}
		pages[i] = model.TopPage{
			URL:            url,
			Views:          views,
			UniqueVisitors: int64(float64(views) * (0.4 + rng.Float64()*0.3)),
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Views > pages[j].Views })
	return pages
}

// NewEventDistribution fabricates a per-org event-kind breakdown. The
// payload carries no period; the period appears only in the cache key.
func NewEventDistribution(org ids.OrgID) model.EventTypeDistribution {
	rng := newRNG()
	total := int64(5000 + rng.Float64()*20000)
	pageViews := int64(float64(total) * 0.60)
	clicks := int64(float64(total) * 0.28)
	conversions := int64(float64(total) * 0.08)
	signups := int64(float64(total) * 0.03)
	purchases := total - pageViews - clicks - conversions - signups
	if purchases < 0 {
		purchases = 0
	}

	return model.EventTypeDistribution{
		OrganizationID: org,
		PageViews:      pageViews,
		Clicks:         clicks,
		Conversions:    conversions,
		Signups:        signups,
		Purchases:      purchases,
		Total:          total,
	}
}

// NewUserActivity fabricates one user's recent-activity summary.
func NewUserActivity(user ids.UserID, org ids.OrgID) model.UserActivity {
	rng := newRNG()
	pageViews := int64(10 + rng.Intn(490))
	clicks := int64(float64(pageViews) * (0.3 + rng.Float64()*0.3))
	conversions := int64(float64(pageViews) * (0.01 + rng.Float64()*0.05))

	return model.UserActivity{
		UserID:         user,
		OrganizationID: org,
		TotalEvents:    pageViews + clicks + conversions,
		LastSeen:       time.Now().Add(-time.Duration(rng.Intn(3600)) * time.Second),
		PageViews:      pageViews,
		Clicks:         clicks,
		Conversions:    conversions,
		LifetimeValue:  float64(conversions) * (20 + rng.Float64()*180),
	}
}

// NewPagePerformance fabricates an engagement summary for pageURL.
func NewPagePerformance(org ids.OrgID, pageURL string) model.PagePerformance {
	rng := newRNG()
	views := int64(500 + rng.Float64()*4500)
	conversions := int64(float64(views) * (0.01 + rng.Float64()*0.04))

	return model.PagePerformance{
		OrganizationID: org,
		PageURL:        pageURL,
		Views:          views,
		UniqueVisitors: int64(float64(views) * (0.4 + rng.Float64()*0.3)),
		AvgTimeOnPage:  15 + rng.Float64()*180,
		BounceRate:     0.2 + rng.Float64()*0.5,
		Conversions:    conversions,
	}
}

// NewRealtime fabricates the live-dashboard snapshot refreshed every 60s.
func NewRealtime(org ids.OrgID) model.RealtimeStats {
	rng := newRNG()
	return model.RealtimeStats{
		OrganizationID:     org,
		CurrentActiveUsers: int64(10 + rng.Intn(990)),
		EventsLastMinute:   int64(50 + rng.Intn(450)),
		EventsLastHour:     int64(3000 + rng.Intn(27000)),
	}
}
