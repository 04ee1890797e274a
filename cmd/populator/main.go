// Command populator is a thin pipelined-SETEX seeding tool (plain backend
// SetBatch of overview keys only), a second
// independent caller of the cache-key grammar and storage backends it
// shares with the load engine.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/eden-redis/loadengine/internal/backend"
	"github.com/eden-redis/loadengine/internal/generator"
	"github.com/eden-redis/loadengine/internal/ids"
)

func main() {
	addr := "localhost:6379"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}
	n := 10
	if len(os.Args) > 2 {
		if v, err := strconv.Atoi(os.Args[2]); err == nil {
			n = v
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	store, err := backend.New(backend.KindPlain, staticAcquirer{client})
	if err != nil {
		log.Fatalf("populator: %v", err)
	}

	entries := make([]backend.BatchEntry, 0, n)
	for i := 0; i < n; i++ {
		org := ids.NewOrgID()
		doc, err := json.Marshal(generator.NewOverview(org, 24))
		if err != nil {
			continue
		}
		entries = append(entries, backend.BatchEntry{
			Key: backend.KeyOverview(org, 24), JSON: string(doc), TTLSeconds: 900,
		})
	}
	if err := store.SetBatch(ctx, entries); err != nil {
		log.Fatalf("populator: set_batch: %v", err)
	}
	log.Printf("populator: seeded %d overview keys", len(entries))
}

type staticAcquirer struct{ client *redis.Client }

func (s staticAcquirer) Acquire() *redis.Client { return s.client }
