package backend

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// listMaxSize is the fixed maximum list length L; writes LPUSH then
// LTRIM 0 (L-1) to enforce it.
const listMaxSize = 1000

// listStore reads the most recent write via LINDEX 0 and writes by pushing
// to the list head, trimming, and refreshing the TTL. INCR has no natural
// list analogue, so it is routed to a companion "<key>:counter" string key.
type listStore struct{ pool Acquirer }

func (s *listStore) Kind() Kind { return KindList }

func counterKey(key string) string { return key + ":counter" }

func (s *listStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	val, err := s.pool.Acquire().LIndex(ctx, key, 0).Bytes()
	if err == redis.Nil {
		observe("get", "miss", start, "")
		return nil, false, nil
	}
	if err != nil {
		observe("get", "error", start, "transport")
		return nil, false, err
	}
	observe("get", "hit", start, "")
	return val, true, nil
}

func (s *listStore) Set(ctx context.Context, key string, payload []byte, ttlSeconds int) error {
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, listMaxSize-1)
		if ttlSeconds > 0 {
			pipe.Expire(ctx, key, time.Duration(ttlSeconds)*time.Second)
		}
		return nil
	})
	if err != nil {
		observe("set", "error", start, "transport")
		return err
	}
	observe("set", "success", start, "")
	return nil
}

func (s *listStore) SetBatch(ctx context.Context, entries []BatchEntry) error {
	if len(entries) == 0 {
		emptyBatchEvent("batch_set")
		return nil
	}
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.LPush(ctx, e.Key, e.JSON)
			pipe.LTrim(ctx, e.Key, 0, listMaxSize-1)
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

func (s *listStore) Incr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	v, err := s.pool.Acquire().Incr(ctx, counterKey(key)).Result()
	if err != nil {
		observe("incr", "error", start, "transport")
		return 0, err
	}
	observe("incr", "success", start, "")
	return v, nil
}

func (s *listStore) IncrBatch(ctx context.Context, keys []string) error {
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

func (s *listStore) Del(ctx context.Context, key string) error {
	start := time.Now()
	if err := s.pool.Acquire().Del(ctx, key, counterKey(key)).Err(); err != nil {
		observe("del", "error", start, "transport")
		return err
	}
	observe("del", "success", start, "")
	return nil
}

func (s *listStore) DelBatch(ctx context.Context, keys []string) error {
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
