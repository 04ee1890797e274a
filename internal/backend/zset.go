package backend

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// zsetStore splits the logical key at its last ':' into (zset key, member)
// and writes to both the sorted set (ZADD key score member) and a
// companion hash (HSET key:data member json); reads come from the data
// hash, increments use ZINCRBY, deletes remove both structures.
//
// Score is the write's millisecond timestamp plus a small disambiguator.
// Colliding scores are accepted update-in-place: ZADD without NX always
// replaces the score, so the latest writer for a given member wins.
type zsetStore struct{ pool Acquirer }

func (s *zsetStore) Kind() Kind { return KindZSet }

func dataHashKey(zsetKey string) string { return zsetKey + ":data" }

// zsetKeyAndMember reuses the hash backend's split: a key without any ':'
// routes to member "default".
func zsetKeyAndMember(key string) (zkey, member string) {
	return hashKeyAndField(key)
}

func (s *zsetStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	zkey, member := zsetKeyAndMember(key)
	start := time.Now()
	val, err := s.pool.Acquire().HGet(ctx, dataHashKey(zkey), member).Bytes()
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

func (s *zsetStore) writeOne(ctx context.Context, pipe redis.Pipeliner, key string, payload []byte, batchIndex int64) {
	zkey, member := zsetKeyAndMember(key)
	score := float64(time.Now().UnixMilli()) + float64(batchIndex)/1000.0
	pipe.ZAdd(ctx, zkey, redis.Z{Score: score, Member: member})
	pipe.HSet(ctx, dataHashKey(zkey), member, payload)
}

func (s *zsetStore) Set(ctx context.Context, key string, payload []byte, ttlSeconds int) error {
	start := time.Now()
	client := s.pool.Acquire()
	zkey, _ := zsetKeyAndMember(key)
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		s.writeOne(ctx, pipe, key, payload, 0)
		if ttlSeconds > 0 {
			pipe.Expire(ctx, zkey, time.Duration(ttlSeconds)*time.Second)
			pipe.Expire(ctx, dataHashKey(zkey), time.Duration(ttlSeconds)*time.Second)
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

func (s *zsetStore) SetBatch(ctx context.Context, entries []BatchEntry) error {
	if len(entries) == 0 {
		emptyBatchEvent("batch_set")
		return nil
	}
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, e := range entries {
			s.writeOne(ctx, pipe, e.Key, []byte(e.JSON), int64(i))
			if e.TTLSeconds > 0 {
				zkey, _ := zsetKeyAndMember(e.Key)
				pipe.Expire(ctx, zkey, time.Duration(e.TTLSeconds)*time.Second)
				pipe.Expire(ctx, dataHashKey(zkey), time.Duration(e.TTLSeconds)*time.Second)
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

func (s *zsetStore) Incr(ctx context.Context, key string) (int64, error) {
	zkey, member := zsetKeyAndMember(key)
	start := time.Now()
	v, err := s.pool.Acquire().ZIncrBy(ctx, zkey, 1, member).Result()
	if err != nil {
		observe("incr", "error", start, "transport")
		return 0, err
	}
	observe("incr", "success", start, "")
	return int64(v), nil
}

func (s *zsetStore) IncrBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		emptyBatchEvent("batch_incr")
		return nil
	}
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			zkey, member := zsetKeyAndMember(k)
			pipe.ZIncrBy(ctx, zkey, 1, member)
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

func (s *zsetStore) Del(ctx context.Context, key string) error {
	zkey, member := zsetKeyAndMember(key)
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, zkey, member)
		pipe.HDel(ctx, dataHashKey(zkey), member)
		return nil
	})
	if err != nil {
		observe("del", "error", start, "transport")
		return err
	}
	observe("del", "success", start, "")
	return nil
}

func (s *zsetStore) DelBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		emptyBatchEvent("batch_del")
		return nil
	}
	start := time.Now()
	client := s.pool.Acquire()
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			zkey, member := zsetKeyAndMember(k)
			pipe.ZRem(ctx, zkey, member)
			pipe.HDel(ctx, dataHashKey(zkey), member)
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
