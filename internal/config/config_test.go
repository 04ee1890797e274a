package config

import (
	"testing"

	"github.com/eden-redis/loadengine/internal/backend"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil): %v", err)
	}
	if cfg.Storage != backend.KindPlain {
		t.Fatalf("Storage = %s, want %s", cfg.Storage, backend.KindPlain)
	}
	if cfg.RedisPoolSize != 4 {
		t.Fatalf("RedisPoolSize = %d, want 4", cfg.RedisPoolSize)
	}
	if cfg.EventsPerSecond != 100 {
		t.Fatalf("EventsPerSecond = %d, want 100", cfg.EventsPerSecond)
	}
	if cfg.ValidationSampleRate != 0.01 {
		t.Fatalf("ValidationSampleRate = %v, want 0.01", cfg.ValidationSampleRate)
	}
}

func TestLoadOverridesFromFlags(t *testing.T) {
	cfg, err := Load([]string{"--storage=hash", "--events-per-second=250", "--redis-pool-size=8"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage != backend.KindHash {
		t.Fatalf("Storage = %s, want %s", cfg.Storage, backend.KindHash)
	}
	if cfg.EventsPerSecond != 250 {
		t.Fatalf("EventsPerSecond = %d, want 250", cfg.EventsPerSecond)
	}
	if cfg.RedisPoolSize != 8 {
		t.Fatalf("RedisPoolSize = %d, want 8", cfg.RedisPoolSize)
	}
}

func TestLoadRejectsUnknownStorageKind(t *testing.T) {
	if _, err := Load([]string{"--storage=not-a-kind"}); err == nil {
		t.Fatalf("Load(unknown storage kind) returned no error")
	}
}

func TestLoadRejectsOutOfRangeValidationSampleRate(t *testing.T) {
	if _, err := Load([]string{"--validation-sample-rate=1.5"}); err == nil {
		t.Fatalf("Load(validation-sample-rate=1.5) returned no error")
	}
}

func TestLoadRejectsNonPositiveRedisPoolSize(t *testing.T) {
	if _, err := Load([]string{"--redis-pool-size=0"}); err == nil {
		t.Fatalf("Load(redis-pool-size=0) returned no error")
	}
}
