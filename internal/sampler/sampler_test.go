package sampler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestTargetSamplesClampsToBounds(t *testing.T) {
	cases := []struct {
		n, min, max int64
		rate        float64
		want        int64
	}{
		{n: 10000, rate: 0.05, min: 100, max: 10000, want: 500},
		{n: 50, rate: 0.05, min: 100, max: 10000, want: 50},   // clamped to n via min(maxSamples, n)
		{n: 1000000, rate: 0.05, min: 100, max: 10000, want: 10000}, // clamped to maxSamples
	}
	for _, c := range cases {
		got := targetSamples(c.n, c.rate, c.min, c.max)
		if got != c.want {
			t.Errorf("targetSamples(%d, %v, %d, %d) = %d, want %d", c.n, c.rate, c.min, c.max, got, c.want)
		}
	}
}

func TestDistributionAddTagsClosedSet(t *testing.T) {
	var d Distribution
	for _, tag := range []string{"string", "list", "set", "zset", "hash", "stream", "weird"} {
		d.add(tag)
	}
	if d.Total != 7 {
		t.Fatalf("Total = %d, want 7", d.Total)
	}
	if d.String != 1 || d.List != 1 || d.Set != 1 || d.ZSet != 1 || d.Hash != 1 || d.Stream != 1 || d.Other != 1 {
		t.Fatalf("distribution = %+v, want one of each tag", d)
	}
}

func TestSampleEmptyDBReturnsZero(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	dist, err := Sample(ctx, client, 0.05, 100, 10000)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if dist.Total != 0 {
		t.Fatalf("Total = %d, want 0", dist.Total)
	}
}

func TestSampleWithRateOneCountsEveryKeyByType(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	mr.Set("s1", "v")
	mr.Set("s2", "v")
	mr.Lpush("l1", "v")
	mr.HSet("h1", "f", "v")

	dist, err := Sample(ctx, client, 1.0, 1, 100)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if dist.String != 2 {
		t.Fatalf("String = %d, want 2", dist.String)
	}
	if dist.List != 1 {
		t.Fatalf("List = %d, want 1", dist.List)
	}
	if dist.Hash != 1 {
		t.Fatalf("Hash = %d, want 1", dist.Hash)
	}
}
