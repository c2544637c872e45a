package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	c, err := New("redis://"+s.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return c, s
}

func TestCacheSetGet(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	key := Key("clients", "market=SG|planTier=all|stage=all|status=all")

	var miss []string
	hit, err := c.Get(ctx, key, &miss)
	if err != nil {
		t.Fatalf("Get on empty cache: %v", err)
	}
	if hit {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set(ctx, key, []string{"c1", "c2"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got []string
	hit, err = c.Get(ctx, key, &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after Set")
	}
	if len(got) != 2 || got[0] != "c1" {
		t.Fatalf("got %v", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	key := Key("tasks", "status=all")
	if err := c.Set(ctx, key, []string{"t1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	s.FastForward(2 * time.Minute)

	var got []string
	hit, err := c.Get(ctx, key, &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if hit {
		t.Fatal("expected miss after TTL")
	}
}

func TestInvalidateGroupOnlyTouchesEntity(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	if err := c.Set(ctx, Key("clients", "status=all"), "a"); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, Key("clients", "status=Active"), "b"); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, Key("invoices", "status=all"), "c"); err != nil {
		t.Fatal(err)
	}

	if err := c.InvalidateGroup(ctx, "clients"); err != nil {
		t.Fatalf("InvalidateGroup failed: %v", err)
	}

	var got string
	if hit, _ := c.Get(ctx, Key("clients", "status=all"), &got); hit {
		t.Error("clients key survived invalidation")
	}
	if hit, _ := c.Get(ctx, Key("clients", "status=Active"), &got); hit {
		t.Error("filtered clients key survived invalidation")
	}
	if hit, _ := c.Get(ctx, Key("invoices", "status=all"), &got); !hit {
		t.Error("invoices key was collaterally invalidated")
	}
}
