package workers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/eden-redis/loadengine/internal/backend"
	"github.com/eden-redis/loadengine/internal/generator"
	"github.com/eden-redis/loadengine/internal/ids"
)

// orgChunkSize is the batching granularity bulk populate iterates orgs in.
const orgChunkSize = 10

// flushThreshold is the number of pending batch entries that triggers an
// intermediate SetBatch flush during both bulk populate and periodic
// refresh, so a single run never buffers an unbounded pipeline.
const flushThreshold = 100

type batchSetter interface {
	SetBatch(ctx context.Context, entries []backend.BatchEntry) error
}

type batchBuffer struct {
	ctx     context.Context
	store   batchSetter
	entries []backend.BatchEntry
}

func (b *batchBuffer) add(key string, payload []byte, ttl int) {
	b.entries = append(b.entries, backend.BatchEntry{Key: key, JSON: string(payload), TTLSeconds: ttl})
	if len(b.entries) >= flushThreshold {
		b.flush()
	}
}

func (b *batchBuffer) flush() {
	if len(b.entries) == 0 {
		return
	}
	if err := b.store.SetBatch(b.ctx, b.entries); err != nil {
		log.Printf("warmup: set_batch: %v", err)
	}
	b.entries = b.entries[:0]
}

// BulkPopulate seeds the full cache surface for every known org: overviews
// at {1,6,24,168}h, 24 hourly buckets, top pages, event distribution, page
// performance for every popular page, up to 20 user-activity entries,
// realtime counter initialization, and rolling-window initializers at
// {5,15,30,60} minutes. Orgs are processed in chunks of 10 purely to bound
// memory; batching to Redis happens via the shared flush threshold.
func BulkPopulate(ctx context.Context, d Deps) error {
	buf := &batchBuffer{ctx: ctx, store: d.Store}
	orgs := d.Orgs.IDs()

	for start := 0; start < len(orgs); start += orgChunkSize {
		end := start + orgChunkSize
		if end > len(orgs) {
			end = len(orgs)
		}
		for _, org := range orgs[start:end] {
			if err := ctx.Err(); err != nil {
				return err
			}
			populateOrg(d, org, buf)
		}
	}
	buf.flush()
	return nil
}

func populateOrg(d Deps, org ids.OrgID, buf *batchBuffer) {
	for _, hours := range []int{1, 6, 24, 168} {
		doc, err := json.Marshal(generator.NewOverview(org, hours))
		if err != nil {
			continue
		}
		buf.add(backend.KeyOverview(org, hours), doc, 900)
	}

	now := time.Now()
	for offset := 0; offset < 24; offset++ {
		bucket := now.Add(-time.Duration(offset) * time.Hour)
		doc, err := json.Marshal(generator.NewHourly(org, bucket))
		if err != nil {
			continue
		}
		buf.add(backend.KeyHourly(org, bucket.Format("2006010215")), doc, 3600)
	}

	if doc, err := json.Marshal(generator.NewTopPages(nil)); err == nil {
		buf.add(backend.KeyTopPages(org, 24), doc, 1200)
	}

	if doc, err := json.Marshal(generator.NewEventDistribution(org)); err == nil {
		buf.add(backend.KeyEventDistribution(org, "24h"), doc, 900)
	}

	for _, page := range generator.PopularPages() {
		doc, err := json.Marshal(generator.NewPagePerformance(org, page))
		if err != nil {
			continue
		}
		buf.add(backend.KeyPage(org, page), doc, 1800)
	}

	users := d.Orgs.Users(org)
	if len(users) > 20 {
		users = users[:20]
	}
	for _, user := range users {
		doc, err := json.Marshal(generator.NewUserActivity(user, org))
		if err != nil {
			continue
		}
		buf.add(backend.KeyUserActivity(user), doc, 1800)
	}

	if doc, err := json.Marshal(generator.NewRealtime(org)); err == nil {
		buf.add(backend.KeyRealtime(org), doc, 60)
	}

	for _, minutes := range []int{5, 15, 30, 60} {
		doc := []byte(`{"count":0}`)
		buf.add(backend.KeyRolling(org, "events", minutes), doc, minutes*60)
	}
}

// RunPeriodicRefresh refreshes overviews at {1,6,24}h and hourly buckets
// 0..6 for every org every warmupInterval seconds, flushing the backend
// batch every flushThreshold entries, until ctx is cancelled.
func RunPeriodicRefresh(ctx context.Context, warmupInterval time.Duration, d Deps) error {
	ticker := time.NewTicker(warmupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			refreshOnce(ctx, d)
		}
	}
}

func refreshOnce(ctx context.Context, d Deps) {
	buf := &batchBuffer{ctx: ctx, store: d.Store}
	now := time.Now()

	for _, org := range d.Orgs.IDs() {
		for _, hours := range []int{1, 6, 24} {
			doc, err := json.Marshal(generator.NewOverview(org, hours))
			if err != nil {
				continue
			}
			buf.add(backend.KeyOverview(org, hours), doc, 900)
		}
		for offset := 0; offset < 7; offset++ {
			bucket := now.Add(-time.Duration(offset) * time.Hour)
			doc, err := json.Marshal(generator.NewHourly(org, bucket))
			if err != nil {
				continue
			}
			buf.add(backend.KeyHourly(org, bucket.Format("2006010215")), doc, 3600)
		}
	}
	buf.flush()
}
