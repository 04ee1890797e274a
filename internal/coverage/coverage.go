// Package coverage implements the migration controller's SCAN-based
// coverage sampler: given K Redis clients (source and
// destination, typically), it runs SCAN to completion against each and
// reports per-instance uniqueness and coverage against the union of all
// observed keys.
package coverage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// scanBatchSize is the COUNT hint passed to every SCAN call.
const scanBatchSize = 1000

// Report is one instance's coverage result.
type Report struct {
	Label    string
	KeyCount int
	Unique   int
	Coverage float64 // percentage, 0..100
}

// Color buckets a coverage percentage for display: green >=99, yellow
// >=90, red otherwise.
func (r Report) Color() string {
	switch {
	case r.Coverage >= 99:
		return "green"
	case r.Coverage >= 90:
		return "yellow"
	default:
		return "red"
	}
}

// scanAll drains a full SCAN cursor cycle into a key set.
func scanAll(ctx context.Context, client *redis.Client) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	var cursor uint64
	for {
		batch, next, err := client.Scan(ctx, cursor, "", scanBatchSize).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			keys[k] = struct{}{}
		}
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

// Sample scans every client to completion and computes each instance's
// unique-key count and coverage percentage against the union of all
// instances' key sets. Coverage rows need not sum to 100%; the union size
// is the common denominator across all rows, taken from a single snapshot
// of the per-instance scans collected by this call.
func Sample(ctx context.Context, labels []string, clients []*redis.Client) ([]Report, error) {
	sets := make([]map[string]struct{}, len(clients))
	for i, c := range clients {
		keys, err := scanAll(ctx, c)
		if err != nil {
			return nil, err
		}
		sets[i] = keys
	}

	union := make(map[string]struct{})
	for _, s := range sets {
		for k := range s {
			union[k] = struct{}{}
		}
	}
	unionSize := len(union)

	reports := make([]Report, len(clients))
	for i, s := range sets {
		unique := 0
		for k := range s {
			if onlyIn(k, i, sets) {
				unique++
			}
		}
		var coverage float64
		if unionSize > 0 {
			coverage = float64(len(s)) / float64(unionSize) * 100
		}
		reports[i] = Report{Label: labels[i], KeyCount: len(s), Unique: unique, Coverage: coverage}
	}
	return reports, nil
}

func onlyIn(key string, idx int, sets []map[string]struct{}) bool {
	for j, s := range sets {
		if j == idx {
			continue
		}
		if _, ok := s[key]; ok {
			return false
		}
	}
	return true
}
