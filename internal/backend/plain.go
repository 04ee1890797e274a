package backend

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// plainStore maps logical ops directly onto SETEX/GET/INCR/DEL. This is the
// reference mapping: every other backend is a deliberate deviation from it
// to exercise a different Redis data model.
type plainStore struct{ pool Acquirer }

func (s *plainStore) Kind() Kind { return KindPlain }

func (s *plainStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	val, err := s.pool.Acquire().Get(ctx, key).Bytes()
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

func (s *plainStore) Set(ctx context.Context, key string, payload []byte, ttlSeconds int) error {
	start := time.Now()
	var err error
	if ttlSeconds > 0 {
		err = s.pool.Acquire().SetEx(ctx, key, payload, time.Duration(ttlSeconds)*time.Second).Err()
	} else {
		err = s.pool.Acquire().Set(ctx, key, payload, 0).Err()
	}
	if err != nil {
		observe("set", "error", start, "transport")
		return err
	}
	observe("set", "success", start, "")
	return nil
}

func (s *plainStore) SetBatch(ctx context.Context, entries []BatchEntry) error {
	if len(entries) == 0 {
		emptyBatchEvent("batch_set")
		return nil
	}
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			if e.TTLSeconds > 0 {
				pipe.SetEx(ctx, e.Key, e.JSON, time.Duration(e.TTLSeconds)*time.Second)
			} else {
				pipe.Set(ctx, e.Key, e.JSON, 0)
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

func (s *plainStore) Incr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	v, err := s.pool.Acquire().Incr(ctx, key).Result()
	if err != nil {
		observe("incr", "error", start, "transport")
		return 0, err
	}
	observe("incr", "success", start, "")
	return v, nil
}

func (s *plainStore) IncrBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		emptyBatchEvent("batch_incr")
		return nil
	}
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, k)
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

func (s *plainStore) Del(ctx context.Context, key string) error {
	start := time.Now()
	if err := s.pool.Acquire().Del(ctx, key).Err(); err != nil {
		observe("del", "error", start, "transport")
		return err
	}
	observe("del", "success", start, "")
	return nil
}

func (s *plainStore) DelBatch(ctx context.Context, keys []string) error {
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
