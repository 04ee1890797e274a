package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eden-redis/loadengine/internal/sampler"
)

const (
	defaultRate       = 0.05
	defaultMinSamples = 100
	defaultMaxSamples = 10000
	pollInterval      = 5 * time.Second
)

func main() {
	addr := "localhost:6379"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("complexity-analyzer: connecting to %s: %v", addr, err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	runOnce(ctx, client)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, client)
		}
	}
}

func runOnce(ctx context.Context, client *redis.Client) {
	dist, err := sampler.Sample(ctx, client, defaultRate, defaultMinSamples, defaultMaxSamples)
	if err != nil {
		log.Printf("complexity-analyzer: sample: %v", err)
		return
	}
	fmt.Printf("sampled %d keys: string=%d list=%d set=%d zset=%d hash=%d stream=%d other=%d\n",
		dist.Total, dist.String, dist.List, dist.Set, dist.ZSet, dist.Hash, dist.Stream, dist.Other)
}
