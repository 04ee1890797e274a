// Package config loads the load engine's CLI flags and environment
// variables via pflag/viper. Every flag has a LOADENGINE_-prefixed env
// equivalent; flags win over env.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eden-redis/loadengine/internal/backend"
)

// Config holds every load-engine knob.
type Config struct {
	RedisURL    string
	BindAddress string
	Storage     backend.Kind

	EventsPerSecond  int
	QueriesPerSecond int

	Organizations int
	UsersPerOrg   int

	CacheHitTarget float64

	MaxWorkers     int
	RedisPoolSize  int
	CacheTTL       int
	WarmupInterval int
	TimeBuckets    int

	ValidationSampleRate float64
}

// Load parses args (normally os.Args[1:]) against pflag, binds every flag
// through viper so LOADENGINE_-prefixed environment variables override
// unset flags, and validates the result.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("loadengine", pflag.ContinueOnError)

	fs.String("redis-url", "redis://localhost:6370", "Redis connection string")
	fs.String("bind-address", "0.0.0.0:3000", "HTTP listen address for /metrics and /health")
	fs.String("storage", string(backend.KindPlain), "storage backend kind: plain|hash|list|zset|stream|hll|bitmap|bloom|json")
	fs.Int("events-per-second", 100, "event simulator budget")
	fs.Int("queries-per-second", 0, "reporting-only target query rate")
	fs.Int("organizations", 50, "number of synthetic organizations")
	fs.Int("users-per-org", 20, "synthetic users fabricated per organization")
	fs.Float64("cache-hit-target", 0.9, "reporting-only target cache hit ratio")
	fs.Int("max-workers", 10, "query simulator pool size (minimum 10)")
	fs.Int("redis-pool-size", 4, "number of multiplexed Redis connections")
	fs.Int("cache-ttl", 900, "reporting only: logged at startup; each cache entry kind uses its own fixed TTL")
	fs.Int("warmup-interval", 300, "periodic refresh interval in seconds")
	fs.Int("time-buckets", 24, "reporting only: logged at startup; bulk populate always seeds 24 hourly buckets")
	fs.Float64("validation-sample-rate", 0.01, "fraction of writes validated by read-back, in [0,1]")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("loadengine")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, err
	}

	cfg := Config{
		RedisURL:             v.GetString("redis-url"),
		BindAddress:          v.GetString("bind-address"),
		Storage:              backend.Kind(v.GetString("storage")),
		EventsPerSecond:      v.GetInt("events-per-second"),
		QueriesPerSecond:     v.GetInt("queries-per-second"),
		Organizations:        v.GetInt("organizations"),
		UsersPerOrg:          v.GetInt("users-per-org"),
		CacheHitTarget:       v.GetFloat64("cache-hit-target"),
		MaxWorkers:           v.GetInt("max-workers"),
		RedisPoolSize:        v.GetInt("redis-pool-size"),
		CacheTTL:             v.GetInt("cache-ttl"),
		WarmupInterval:       v.GetInt("warmup-interval"),
		TimeBuckets:          v.GetInt("time-buckets"),
		ValidationSampleRate: v.GetFloat64("validation-sample-rate"),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	valid := false
	for _, k := range backend.AllKinds {
		if k == c.Storage {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("config: unknown --storage kind %q", c.Storage)
	}
	if c.ValidationSampleRate < 0 || c.ValidationSampleRate > 1 {
		return fmt.Errorf("config: --validation-sample-rate must be in [0,1], got %v", c.ValidationSampleRate)
	}
	if c.RedisPoolSize < 1 {
		return fmt.Errorf("config: --redis-pool-size must be >= 1, got %d", c.RedisPoolSize)
	}
	return nil
}
