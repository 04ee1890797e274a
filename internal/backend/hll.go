package backend

import (
	"context"
	"encoding/json"
	"time"
)

// hllStore is deliberately lossy: PFADD treats the serialized payload as a
// single HLL element, and PFCOUNT synthesizes a read-back document
// {"count": N} rather than returning the written payload. Round-trip
// value-preservation is out of scope for this backend.
type hllStore struct{ pool Acquirer }

func (s *hllStore) Kind() Kind { return KindHLL }

type hllCountDoc struct {
	Count int64 `json:"count"`
}

func (s *hllStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	count, err := s.pool.Acquire().PFCount(ctx, key).Result()
	if err != nil {
		observe("get", "error", start, "transport")
		return nil, false, err
	}
	if count == 0 {
		observe("get", "miss", start, "")
		return nil, false, nil
	}
	doc, err := json.Marshal(hllCountDoc{Count: count})
	if err != nil {
		observe("get", "error", start, "decode")
		return nil, false, err
	}
	observe("get", "hit", start, "")
	return doc, true, nil
}

func (s *hllStore) Set(ctx context.Context, key string, payload []byte, ttlSeconds int) error {
	start := time.Now()
	client := s.pool.Acquire()
	if err := client.PFAdd(ctx, key, string(payload)).Err(); err != nil {
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

func (s *hllStore) SetBatch(ctx context.Context, entries []BatchEntry) error {
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

// Incr has no HLL analogue: the fallback adds a monotonic synthetic element
// and returns the structure's approximate cardinality, recorded under a
// distinct operation label.
func (s *hllStore) Incr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	client := s.pool.Acquire()
	n, err := client.Incr(ctx, counterKey(key)).Result()
	if err != nil {
		observe("hll_incr_fallback", "error", start, "transport")
		return 0, err
	}
	if err := client.PFAdd(ctx, key, n).Err(); err != nil {
		observe("hll_incr_fallback", "error", start, "transport")
		return 0, err
	}
	count, err := client.PFCount(ctx, key).Result()
	if err != nil {
		observe("hll_incr_fallback", "error", start, "transport")
		return 0, err
	}
	observe("hll_incr_fallback", "success", start, "")
	return count, nil
}

func (s *hllStore) IncrBatch(ctx context.Context, keys []string) error {
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

func (s *hllStore) Del(ctx context.Context, key string) error {
	start := time.Now()
	if err := s.pool.Acquire().Del(ctx, key, counterKey(key)).Err(); err != nil {
		observe("del", "error", start, "transport")
		return err
	}
	observe("del", "success", start, "")
	return nil
}

func (s *hllStore) DelBatch(ctx context.Context, keys []string) error {
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
