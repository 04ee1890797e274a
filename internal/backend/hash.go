package backend

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// hashStore splits the logical key at its last ':' into (hash key, field)
// and maps to HGET/HSET+EXPIRE/HINCRBY/HDEL. A key without a ':' routes to
// field "default".
type hashStore struct{ pool Acquirer }

func (s *hashStore) Kind() Kind { return KindHash }

func (s *hashStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	hkey, field := hashKeyAndField(key)
	start := time.Now()
	val, err := s.pool.Acquire().HGet(ctx, hkey, field).Bytes()
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

func (s *hashStore) Set(ctx context.Context, key string, payload []byte, ttlSeconds int) error {
	hkey, field := hashKeyAndField(key)
	start := time.Now()
	client := s.pool.Acquire()
	if err := client.HSet(ctx, hkey, field, payload).Err(); err != nil {
		observe("set", "error", start, "transport")
		return err
	}
	if ttlSeconds > 0 {
		if err := client.Expire(ctx, hkey, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
			observe("set", "error", start, "transport")
			return err
		}
	}
	observe("set", "success", start, "")
	return nil
}

func (s *hashStore) SetBatch(ctx context.Context, entries []BatchEntry) error {
	if len(entries) == 0 {
		emptyBatchEvent("batch_set")
		return nil
	}
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			hkey, field := hashKeyAndField(e.Key)
			pipe.HSet(ctx, hkey, field, e.JSON)
			if e.TTLSeconds > 0 {
				pipe.Expire(ctx, hkey, time.Duration(e.TTLSeconds)*time.Second)
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

func (s *hashStore) Incr(ctx context.Context, key string) (int64, error) {
	hkey, field := hashKeyAndField(key)
	start := time.Now()
	v, err := s.pool.Acquire().HIncrBy(ctx, hkey, field, 1).Result()
	if err != nil {
		observe("incr", "error", start, "transport")
		return 0, err
	}
	observe("incr", "success", start, "")
	return v, nil
}

func (s *hashStore) IncrBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		emptyBatchEvent("batch_incr")
		return nil
	}
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			hkey, field := hashKeyAndField(k)
			pipe.HIncrBy(ctx, hkey, field, 1)
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

func (s *hashStore) Del(ctx context.Context, key string) error {
	hkey, field := hashKeyAndField(key)
	start := time.Now()
	if err := s.pool.Acquire().HDel(ctx, hkey, field).Err(); err != nil {
		observe("del", "error", start, "transport")
		return err
	}
	observe("del", "success", start, "")
	return nil
}

func (s *hashStore) DelBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		emptyBatchEvent("batch_del")
		return nil
	}
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			hkey, field := hashKeyAndField(k)
			pipe.HDel(ctx, hkey, field)
		}
		return nil
	})
	if err != nil {
		observe("batch_del", "error", start, "transport")
		return err
	}
	observe("batch_del", "success", start, "")
	return nil
}
