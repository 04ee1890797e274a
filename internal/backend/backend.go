// Package backend translates the seven logical cache operations
// (get/set/set_batch/incr/incr_batch/del/del_batch) into Redis command
// sequences for one of nine interchangeable data models. Exactly one
// backend is active per process, selected at startup by Kind and validated
// against the closed AllKinds set.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eden-redis/loadengine/internal/metrics"
)

// Kind names one of the nine storage data models.
type Kind string

const (
	KindPlain  Kind = "plain"
	KindHash   Kind = "hash"
	KindList   Kind = "list"
	KindZSet   Kind = "zset"
	KindStream Kind = "stream"
	KindHLL    Kind = "hll"
	KindBitmap Kind = "bitmap"
	KindBloom  Kind = "bloom"
	KindJSON   Kind = "json"
)

// AllKinds is the closed set of valid --storage values, used to validate the
// mutually-exclusive selection at startup.
var AllKinds = []Kind{KindPlain, KindHash, KindList, KindZSet, KindStream, KindHLL, KindBitmap, KindBloom, KindJSON}

// ErrDecode distinguishes a corrupt stored value from a cache miss: Get
// returns this wrapped error rather than (nil, false, nil).
var ErrDecode = errors.New("backend: decode error")

// BatchEntry is one (key, json payload, ttl seconds) tuple for SetBatch.
type BatchEntry struct {
	Key        string
	JSON       string
	TTLSeconds int
}

// Store is the capability every backend implements. All methods record
// (op, result, duration) on the process-global registry in
// internal/metrics; callers don't pass a metrics sink.
type Store interface {
	Kind() Kind
	Get(ctx context.Context, key string) (payload []byte, found bool, err error)
	Set(ctx context.Context, key string, payload []byte, ttlSeconds int) error
	SetBatch(ctx context.Context, entries []BatchEntry) error
	Incr(ctx context.Context, key string) (int64, error)
	IncrBatch(ctx context.Context, keys []string) error
	Del(ctx context.Context, key string) error
	DelBatch(ctx context.Context, keys []string) error
}

// Acquirer is the subset of pool.Pool a backend needs; kept as an interface
// so backends can be unit tested against a single *redis.Client (or a
// miniredis-backed one) without a full pool.
type Acquirer interface {
	Acquire() *redis.Client
}

// observe records (op, result, duration) on both the cache-operation
// histogram and the success/error counters.
func observe(op, result string, start time.Time, errType string) {
	metrics.CacheOperationDuration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
	if result == "error" {
		metrics.RecordOperationError(op, errType)
	} else {
		metrics.RecordOperationSuccess(op)
	}
}

// emptyBatchEvent records the single success metrics event a batch call
// emits when given zero input; no Redis command is issued.
func emptyBatchEvent(op string) {
	observe(op, "success", time.Now(), "")
}

// New constructs the Store for kind against the given connection acquirer.
func New(kind Kind, pool Acquirer) (Store, error) {
	switch kind {
	case KindPlain:
		return &plainStore{pool: pool}, nil
	case KindHash:
		return &hashStore{pool: pool}, nil
	case KindList:
		return &listStore{pool: pool}, nil
	case KindZSet:
		return &zsetStore{pool: pool}, nil
	case KindStream:
		return &streamStore{pool: pool}, nil
	case KindHLL:
		return &hllStore{pool: pool}, nil
	case KindBitmap:
		return &bitmapStore{pool: pool}, nil
	case KindBloom:
		return &bloomStore{pool: pool}, nil
	case KindJSON:
		return &jsondocStore{pool: pool}, nil
	default:
		return nil, errors.New("backend: unknown storage kind " + string(kind))
	}
}
