package backend

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// bloomStore talks to the RedisBloom module. go-redis/v9 has no typed
// BF.* helpers, so every command goes through the raw Do path.
//
// Get does not attempt a membership test (there is no single element to
// test against a write-through cache key); it returns the filter's BF.INFO
// instead. Del removes the whole filter, since RedisBloom filters have no
// element-removal command.
type bloomStore struct{ pool Acquirer }

func (s *bloomStore) Kind() Kind { return KindBloom }

type bloomInfoDoc struct {
	Capacity      int64 `json:"capacity"`
	Size          int64 `json:"size"`
	NumFilters    int64 `json:"num_filters"`
	NumItems      int64 `json:"num_items_inserted"`
	ExpansionRate int64 `json:"expansion_rate"`
}

func parseBloomInfo(raw []interface{}) bloomInfoDoc {
	var doc bloomInfoDoc
	for i := 0; i+1 < len(raw); i += 2 {
		label, ok := raw[i].(string)
		if !ok {
			continue
		}
		n, ok := toInt64(raw[i+1])
		if !ok {
			continue
		}
		switch label {
		case "Capacity":
			doc.Capacity = n
		case "Size":
			doc.Size = n
		case "Number of filters":
			doc.NumFilters = n
		case "Number of items inserted":
			doc.NumItems = n
		case "Expansion rate":
			doc.ExpansionRate = n
		}
	}
	return doc
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func (s *bloomStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	res, err := s.pool.Acquire().Do(ctx, "BF.INFO", key).Result()
	if err != nil {
		if isMissingFilter(err) {
			observe("get", "miss", start, "")
			return nil, false, nil
		}
		observe("get", "error", start, "transport")
		return nil, false, err
	}
	raw, ok := res.([]interface{})
	if !ok {
		observe("get", "error", start, "decode")
		return nil, false, ErrDecode
	}
	doc, err := json.Marshal(parseBloomInfo(raw))
	if err != nil {
		observe("get", "error", start, "decode")
		return nil, false, err
	}
	observe("get", "hit", start, "")
	return doc, true, nil
}

func isMissingFilter(err error) bool {
	return strings.Contains(err.Error(), "not found")
}

func (s *bloomStore) Set(ctx context.Context, key string, payload []byte, ttlSeconds int) error {
	start := time.Now()
	client := s.pool.Acquire()
	if err := client.Do(ctx, "BF.ADD", key, string(payload)).Err(); err != nil {
		observe("set", "error", start, "transport")
		return err
	}
	if ttlSeconds > 0 {
		if err := client.Expire(ctx, key, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
			observe("set", "error", start, "transport")
			return err
		}
	}
	observe("set", "success", start, "")
	return nil
}

func (s *bloomStore) SetBatch(ctx context.Context, entries []BatchEntry) error {
	if len(entries) == 0 {
		emptyBatchEvent("batch_set")
		return nil
	}
	start := time.Now()
	for _, e := range entries {
		if err := s.Set(ctx, e.Key, []byte(e.JSON), e.TTLSeconds); err != nil {
			observe("batch_set", "error", start, "transport")
			return err
		}
	}
	observe("batch_set", "success", start, "")
	return nil
}

// Incr has no bloom-filter analogue; the fallback increments a companion
// "<key>:counter" string, adds that value to the filter as a synthetic
// element, and returns the counter value (not the filter's item count).
func (s *bloomStore) Incr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	client := s.pool.Acquire()
	n, err := client.Incr(ctx, counterKey(key)).Result()
	if err != nil {
		observe("bloom_incr_fallback", "error", start, "transport")
		return 0, err
	}
	if err := client.Do(ctx, "BF.ADD", key, n).Err(); err != nil {
		observe("bloom_incr_fallback", "error", start, "transport")
		return 0, err
	}
	observe("bloom_incr_fallback", "success", start, "")
	return n, nil
}

func (s *bloomStore) IncrBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		emptyBatchEvent("batch_incr")
		return nil
	}
	start := time.Now()
	for _, k := range keys {
		if _, err := s.Incr(ctx, k); err != nil {
			observe("batch_incr", "error", start, "transport")
			return err
		}
	}
	observe("batch_incr", "success", start, "")
	return nil
}

func (s *bloomStore) Del(ctx context.Context, key string) error {
	start := time.Now()
	if err := s.pool.Acquire().Del(ctx, key, counterKey(key)).Err(); err != nil {
		observe("del", "error", start, "transport")
		return err
	}
	observe("del", "success", start, "")
	return nil
}

func (s *bloomStore) DelBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		emptyBatchEvent("batch_del")
		return nil
	}
	start := time.Now()
	all := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		all = append(all, k, counterKey(k))
	}
	if err := s.pool.Acquire().Del(ctx, all...).Err(); err != nil {
		observe("batch_del", "error", start, "transport")
		return err
	}
	observe("batch_del", "success", start, "")
	return nil
}
