package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Minute)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Errorf("expected v, got %q (found=%v)", got, ok)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected key to be deleted")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Minute)
	ctx := context.Background()
	_ = c.Set(ctx, "short", []byte("v"), time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get(ctx, "short"); ok {
		t.Error("expected entry to expire")
	}
}

func TestKey(t *testing.T) {
	a := Key("embed", "openai", "hello")
	b := Key("embed", "openai", "hello")
	c := Key("embed", "openaih", "ello")
	if a != b {
		t.Error("expected stable keys")
	}
	if a == c {
		t.Error("expected part boundaries to matter")
	}
	if !strings.HasPrefix(a, "reviewsearch:v1:embed:") {
		t.Errorf("unexpected prefix: %s", a)
	}
}
