package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// bitmapStore splits the logical key at its last ':' into (bitmap key,
// offset). Writes always set the bit to 1; reads wrap the bit value into
// {"value": 0|1}. Incr has no bit-level analogue, so it returns BITCOUNT
// of the whole bitmap, not an increment, recorded under a distinct
// fallback operation label.
type bitmapStore struct{ pool Acquirer }

func (s *bitmapStore) Kind() Kind { return KindBitmap }

type bitValueDoc struct {
	Value int64 `json:"value"`
}

func (s *bitmapStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	bkey, offset, ok := bitmapKeyAndOffset(key)
	if !ok {
		return nil, false, fmt.Errorf("bitmap: key %q has no numeric offset suffix", key)
	}
	start := time.Now()
	bit, err := s.pool.Acquire().GetBit(ctx, bkey, int64(offset)).Result()
	if err != nil {
		observe("get", "error", start, "transport")
		return nil, false, err
	}
	doc, err := json.Marshal(bitValueDoc{Value: bit})
	if err != nil {
		observe("get", "error", start, "decode")
		return nil, false, err
	}
	observe("get", "hit", start, "")
	return doc, true, nil
}

func (s *bitmapStore) Set(ctx context.Context, key string, payload []byte, ttlSeconds int) error {
	bkey, offset, ok := bitmapKeyAndOffset(key)
	if !ok {
		return fmt.Errorf("bitmap: key %q has no numeric offset suffix", key)
	}
	start := time.Now()
	client := s.pool.Acquire()
	if err := client.SetBit(ctx, bkey, int64(offset), 1).Err(); err != nil {
		observe("set", "error", start, "transport")
		return err
	}
	if ttlSeconds > 0 {
		if err := client.Expire(ctx, bkey, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
			observe("set", "error", start, "transport")
			return err
		}
	}
	observe("set", "success", start, "")
	return nil
}

func (s *bitmapStore) SetBatch(ctx context.Context, entries []BatchEntry) error {
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

func (s *bitmapStore) Incr(ctx context.Context, key string) (int64, error) {
	bkey, _, ok := bitmapKeyAndOffset(key)
	if !ok {
		bkey = key
	}
	start := time.Now()
	n, err := s.pool.Acquire().BitCount(ctx, bkey, nil).Result()
	if err != nil {
		observe("bitcount_fallback", "error", start, "transport")
		return 0, err
	}
	observe("bitcount_fallback", "success", start, "")
	return n, nil
}

func (s *bitmapStore) IncrBatch(ctx context.Context, keys []string) error {
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

func (s *bitmapStore) Del(ctx context.Context, key string) error {
	bkey, _, ok := bitmapKeyAndOffset(key)
	if !ok {
		bkey = key
	}
	start := time.Now()
	if err := s.pool.Acquire().Del(ctx, bkey).Err(); err != nil {
		observe("del", "error", start, "transport")
		return err
	}
	observe("del", "success", start, "")
	return nil
}

func (s *bitmapStore) DelBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		emptyBatchEvent("batch_del")
		return nil
	}
	start := time.Now()
	bkeys := make([]string, 0, len(keys))
	for _, k := range keys {
		bkey, _, ok := bitmapKeyAndOffset(k)
		if !ok {
			bkey = k
		}
		bkeys = append(bkeys, bkey)
	}
	if err := s.pool.Acquire().Del(ctx, bkeys...).Err(); err != nil {
		observe("batch_del", "error", start, "transport")
		return err
	}
	observe("batch_del", "success", start, "")
	return nil
}
