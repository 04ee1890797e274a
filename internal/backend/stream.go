package backend

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// streamMaxLen caps the stream with an approximate trim (MAXLEN ~ 10000).
const streamMaxLen = 10000

// streamStore appends entries via XADD and reads the most recent entry via
// XREVRANGE + - COUNT 1, extracting the "data" field. INCR has no stream
// analogue and is routed to a companion "<key>:counter" string key, the
// same fallback the list backend uses.
type streamStore struct{ pool Acquirer }

func (s *streamStore) Kind() Kind { return KindStream }

func (s *streamStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	msgs, err := s.pool.Acquire().XRevRangeN(ctx, key, "+", "-", 1).Result()
	if err != nil {
		observe("get", "error", start, "transport")
		return nil, false, err
	}
	if len(msgs) == 0 {
		observe("get", "miss", start, "")
		return nil, false, nil
	}
	raw, ok := msgs[0].Values["data"]
	if !ok {
		observe("get", "error", start, "decode")
		return nil, false, ErrDecode
	}
	str, ok := raw.(string)
	if !ok {
		observe("get", "error", start, "decode")
		return nil, false, ErrDecode
	}
	observe("get", "hit", start, "")
	return []byte(str), true, nil
}

func (s *streamStore) Set(ctx context.Context, key string, payload []byte, ttlSeconds int) error {
	start := time.Now()
	client := s.pool.Acquire()
	err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: key,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(payload)},
	}).Err()
	if err != nil {
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

func (s *streamStore) SetBatch(ctx context.Context, entries []BatchEntry) error {
	if len(entries) == 0 {
		emptyBatchEvent("batch_set")
		return nil
	}
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: e.Key,
				MaxLen: streamMaxLen,
				Approx: true,
				Values: map[string]interface{}{"data": e.JSON},
			})
			if e.TTLSeconds > 0 {
				pipe.Expire(ctx, e.Key, time.Duration(e.TTLSeconds)*time.Second)
			}
		}
		return nil
	})
	if err != nil {
		observe("batch_set", "error", start, "transport")
		return err
	}
	observe("batch_set", "success", start, "")
	return nil
}

func (s *streamStore) Incr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	v, err := s.pool.Acquire().Incr(ctx, counterKey(key)).Result()
	if err != nil {
		observe("incr", "error", start, "transport")
		return 0, err
	}
	observe("incr", "success", start, "")
	return v, nil
}

func (s *streamStore) IncrBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		emptyBatchEvent("batch_incr")
		return nil
	}
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, counterKey(k))
		}
		return nil
	})
	if err != nil {
		observe("batch_incr", "error", start, "transport")
		return err
	}
	observe("batch_incr", "success", start, "")
	return nil
}

func (s *streamStore) Del(ctx context.Context, key string) error {
	start := time.Now()
	if err := s.pool.Acquire().Del(ctx, key, counterKey(key)).Err(); err != nil {
		observe("del", "error", start, "transport")
		return err
	}
	observe("del", "success", start, "")
	return nil
}

func (s *streamStore) DelBatch(ctx context.Context, keys []string) error {
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
