package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) *Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLimiter(client, "test:")
}

func TestLimiterAllowUpToLimit(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "ip1", 5, time.Minute)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "ip1", 5, time.Minute)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Error("request over the limit was allowed")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "ip1", 1, time.Minute); !allowed {
		t.Fatal("first request for ip1 denied")
	}
	if allowed, _ := limiter.Allow(ctx, "ip1", 1, time.Minute); allowed {
		t.Fatal("second request for ip1 allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "ip2", 1, time.Minute); !allowed {
		t.Error("ip2 was throttled by ip1's traffic")
	}
}

func TestLimiterReset(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "ip1", 1, time.Minute); !allowed {
		t.Fatal("first request denied")
	}
	if allowed, _ := limiter.Allow(ctx, "ip1", 1, time.Minute); allowed {
		t.Fatal("second request allowed before reset")
	}

	if err := limiter.Reset(ctx, "ip1"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if allowed, _ := limiter.Allow(ctx, "ip1", 1, time.Minute); !allowed {
		t.Error("request denied after reset")
	}
}
