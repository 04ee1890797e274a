package workers

import (
	"context"
	"log"
	"time"

	"github.com/eden-redis/loadengine/internal/metrics"
)

// monitorInterval is how often the system monitor drains the latency
// histogram, logs a percentile summary, and refreshes the latency gauges.
const monitorInterval = 10 * time.Second

// RunMonitor periodically drains the latency histogram and logs a
// percentile summary, using the same ticker-driven background-loop shape
// as the periodic warmup refresh.
func RunMonitor(ctx context.Context, d Deps) error {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			reportOnce(d)
		}
	}
}

func reportOnce(d Deps) {
	snap := d.Latency.DrainAndReset()
	if snap.Count == 0 {
		return
	}

	metrics.LatencyP50Microseconds.Set(snap.P50Ns / 1000)
	metrics.LatencyP95Microseconds.Set(snap.P95Ns / 1000)
	metrics.LatencyP99Microseconds.Set(snap.P99Ns / 1000)
	metrics.OrgCacheSize.Set(float64(len(d.Orgs.IDs())))

	log.Printf("query latency: n=%d p50=%.0fus p95=%.0fus p99=%.0fus min=%dus max=%dus",
		snap.Count, snap.P50Ns/1000, snap.P95Ns/1000, snap.P99Ns/1000, snap.MinNs/1000, snap.MaxNs/1000)
}
