package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenRedis_Success(t *testing.T) {
	s := miniredis.RunT(t)

	// non-zero DB to verify it's set
	c, err := OpenRedis(s.Addr(), 2)
	if err != nil {
		t.Fatalf("OpenRedis returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if got := c.Options().DB; got != 2 {
		t.Fatalf("client DB = %d, want 2", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.SetNX(ctx, "idemp:ax:post:/x:U-1:k", "v", time.Minute).Err(); err != nil {
		t.Fatalf("SETNX err: %v", err)
	}
	if ttl := s.TTL("idemp:ax:post:/x:U-1:k"); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}
}

func TestOpenRedis_Failure(t *testing.T) {
	// Unresolvable host → Ping should fail immediately
	if _, err := OpenRedis("not-a-real-host:6379", 0); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestHealthy(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := OpenRedis(s.Addr(), 0)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	probe := Healthy(c)
	if err := probe(context.Background()); err != nil {
		t.Fatalf("probe on live redis: %v", err)
	}
	s.Close()
	if err := probe(context.Background()); err == nil {
		t.Fatal("expected probe error once redis is gone")
	}
}
