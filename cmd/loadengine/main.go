package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eden-redis/loadengine/internal/backend"
	"github.com/eden-redis/loadengine/internal/config"
	"github.com/eden-redis/loadengine/internal/httpapi"
	"github.com/eden-redis/loadengine/internal/latency"
	"github.com/eden-redis/loadengine/internal/metrics"
	"github.com/eden-redis/loadengine/internal/orgcache"
	"github.com/eden-redis/loadengine/internal/pool"
	"github.com/eden-redis/loadengine/internal/validator"
	"github.com/eden-redis/loadengine/internal/workers"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.Printf("loadengine starting: storage=%s redis_pool_size=%d organizations=%d users_per_org=%d events_per_second=%d",
		cfg.Storage, cfg.RedisPoolSize, cfg.Organizations, cfg.UsersPerOrg, cfg.EventsPerSecond)
	log.Printf("targets (reporting only): queries_per_second=%d cache_hit_target=%.2f cache_ttl=%ds time_buckets=%d",
		cfg.QueriesPerSecond, cfg.CacheHitTarget, cfg.CacheTTL, cfg.TimeBuckets)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pool.Open(ctx, cfg.RedisURL, cfg.RedisPoolSize)
	if err != nil {
		log.Fatalf("connecting to Redis at %s: %v", cfg.RedisURL, err)
	}
	defer p.Close()
	metrics.ActiveConnections.Set(float64(p.Size()))
	log.Printf("connected to Redis: %d multiplexed connections", p.Size())

	store, err := backend.New(cfg.Storage, p)
	if err != nil {
		log.Fatalf("storage backend: %v", err)
	}

	orgs := orgcache.New(cfg.Organizations, cfg.UsersPerOrg)
	hist := latency.New()
	v := validator.New(cfg.ValidationSampleRate)

	deps := workers.Deps{Store: store, Orgs: orgs, Latency: hist, Validator: v}

	log.Printf("bulk populate: seeding %d organizations", cfg.Organizations)
	if err := workers.BulkPopulate(ctx, deps); err != nil {
		log.Printf("bulk populate: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return httpapi.Serve(gctx, cfg.BindAddress) })
	g.Go(func() error { return workers.RunQuerySimulators(gctx, cfg.MaxWorkers, deps) })
	g.Go(func() error { return workers.RunEventSimulator(gctx, cfg.EventsPerSecond, deps) })
	g.Go(func() error {
		return workers.RunPeriodicRefresh(gctx, time.Duration(cfg.WarmupInterval)*time.Second, deps)
	})
	g.Go(func() error { return workers.RunMonitor(gctx, deps) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatalf("loadengine: %v", err)
	}
	log.Println("loadengine: shutdown complete")
}
