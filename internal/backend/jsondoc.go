package backend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// jsondocStore talks to the native JSON module (RedisJSON). go-redis/v9 has
// no typed JSON.* helpers, so every command goes through the raw Do path.
// The document root is always "$"; Get unwraps JSON.GET's single-element
// array response back into the stored payload.
type jsondocStore struct{ pool Acquirer }

func (s *jsondocStore) Kind() Kind { return KindJSON }

func (s *jsondocStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	res, err := s.pool.Acquire().Do(ctx, "JSON.GET", key, "$").Result()
	if err == redis.Nil || (err == nil && res == nil) {
		observe("get", "miss", start, "")
		return nil, false, nil
	}
	if err != nil {
		observe("get", "error", start, "transport")
		return nil, false, err
	}
	str, ok := res.(string)
	if !ok {
		observe("get", "error", start, "decode")
		return nil, false, ErrDecode
	}
	var wrapped []json.RawMessage
	if err := json.Unmarshal([]byte(str), &wrapped); err != nil || len(wrapped) == 0 {
		observe("get", "error", start, "decode")
		return nil, false, ErrDecode
	}
	observe("get", "hit", start, "")
	return wrapped[0], true, nil
}

func (s *jsondocStore) Set(ctx context.Context, key string, payload []byte, ttlSeconds int) error {
	start := time.Now()
	client := s.pool.Acquire()
	if err := client.Do(ctx, "JSON.SET", key, "$", string(payload)).Err(); err != nil {
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

func (s *jsondocStore) SetBatch(ctx context.Context, entries []BatchEntry) error {
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

// Incr uses JSON.NUMINCRBY against a "$.counter" field, creating the
// document on first use if it doesn't exist yet.
func (s *jsondocStore) Incr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	client := s.pool.Acquire()
	res, err := client.Do(ctx, "JSON.NUMINCRBY", key, "$.counter", 1).Result()
	if err != nil {
		if err := client.Do(ctx, "JSON.SET", key, "$", `{"counter":1}`).Err(); err != nil {
			observe("incr", "error", start, "transport")
			return 0, err
		}
		observe("incr", "success", start, "")
		return 1, nil
	}
	str, ok := res.(string)
	if !ok {
		observe("incr", "error", start, "decode")
		return 0, ErrDecode
	}
	var vals []float64
	if err := json.Unmarshal([]byte(str), &vals); err != nil || len(vals) == 0 {
		observe("incr", "error", start, "decode")
		return 0, ErrDecode
	}
	observe("incr", "success", start, "")
	return int64(vals[0]), nil
}

func (s *jsondocStore) IncrBatch(ctx context.Context, keys []string) error {
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

func (s *jsondocStore) Del(ctx context.Context, key string) error {
	start := time.Now()
	if err := s.pool.Acquire().Del(ctx, key).Err(); err != nil {
		observe("del", "error", start, "transport")
		return err
	}
	observe("del", "success", start, "")
	return nil
}

func (s *jsondocStore) DelBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		emptyBatchEvent("batch_del")
		return nil
	}
	start := time.Now()
	if err := s.pool.Acquire().Del(ctx, keys...).Err(); err != nil {
		observe("batch_del", "error", start, "transport")
		return err
	}
	observe("batch_del", "success", start, "")
	return nil
}
