// Package sampler implements the complexity analyzer's bounded reservoir
// type sampler: scan a fraction of a live database's
// keyspace and accumulate a distribution over Redis's closed TYPE tag set.
package sampler

import (
	"context"
	"math/rand"

	"github.com/redis/go-redis/v9"
)

// scanBatchSize is the COUNT hint passed to every SCAN call.
const scanBatchSize = 1000

// Distribution counts observed keys by Redis TYPE tag.
type Distribution struct {
	String int64
	List   int64
	Set    int64
	ZSet   int64
	Hash   int64
	Stream int64
	Other  int64
	Total  int64
}

func (d *Distribution) add(tag string) {
	d.Total++
	switch tag {
	case "string":
		d.String++
	case "list":
		d.List++
	case "set":
		d.Set++
	case "zset":
		d.ZSet++
	case "hash":
		d.Hash++
	case "stream":
		d.Stream++
	default:
		d.Other++
	}
}

// targetSamples computes clamp(n*rate, minSamples, min(maxSamples, n)).
func targetSamples(n int64, rate float64, minSamples, maxSamples int64) int64 {
	upper := maxSamples
	if n < upper {
		upper = n
	}
	target := int64(float64(n) * rate)
	if target < minSamples {
		target = minSamples
	}
	if target > upper {
		target = upper
	}
	if target < 0 {
		target = 0
	}
	return target
}

// Sample scans client's keyspace, including each visited key with
// probability rate and tagging it via TYPE, stopping once target samples
// are collected (clamp(DBSIZE*rate, minSamples, min(maxSamples, DBSIZE)))
// or the SCAN cursor completes a full cycle first.
func Sample(ctx context.Context, client *redis.Client, rate float64, minSamples, maxSamples int64) (Distribution, error) {
	n, err := client.DBSize(ctx).Result()
	if err != nil {
		return Distribution{}, err
	}
	target := targetSamples(n, rate, minSamples, maxSamples)

	var dist Distribution
	if target == 0 {
		return dist, nil
	}

	rng := rand.New(rand.NewSource(1))
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, "", scanBatchSize).Result()
		if err != nil {
			return dist, err
		}
		for _, k := range keys {
			if rng.Float64() >= rate {
				continue
			}
			tag, err := client.Type(ctx, k).Result()
			if err != nil {
				continue
			}
			dist.add(tag)
			if dist.Total >= target {
				return dist, nil
			}
		}
		cursor = next
		if cursor == 0 {
			return dist, nil
		}
	}
}
