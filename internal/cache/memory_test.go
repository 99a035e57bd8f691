package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "formules:suv", []byte("[]"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := c.Get(ctx, "formules:suv"); !ok || string(v) != "[]" {
		t.Fatalf("expected cache hit")
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "formules:suv"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	_ = c.Set(ctx, "availability:2025-03-03", []byte("a"), 0)
	_ = c.Set(ctx, "availability:2025-03-10", []byte("b"), 0)
	_ = c.Set(ctx, "formules:all", []byte("c"), 0)

	if err := c.DeletePrefix(ctx, "availability:"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "availability:2025-03-03"); ok {
		t.Fatalf("expected prefix entries removed")
	}
	if _, ok, _ := c.Get(ctx, "formules:all"); !ok {
		t.Fatalf("unrelated entry removed")
	}
}
