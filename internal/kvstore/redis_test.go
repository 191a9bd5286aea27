package kvstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/stickies/internal/apperr"
)

// testRedis connects to STICKIES_TEST_REDIS_ADDR or skips.
func testRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("STICKIES_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STICKIES_TEST_REDIS_ADDR not set")
	}
	r, err := OpenRedis(context.Background(), RedisOptions{Addr: addr, DB: 15})
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	t.Cleanup(func() {
		_, _ = r.DeleteAll(context.Background(), "redis-test")
		r.Close()
	})
	return r
}

func TestRedisRoundTrip(t *testing.T) {
	r := testRedis(t)
	ctx := context.Background()

	if err := r.Set(ctx, "redis-test", "notes", []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	it, err := r.Get(ctx, "redis-test", "notes")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(it.Value) != "[]" {
		t.Errorf("value = %s", it.Value)
	}
	items, err := r.List(ctx, "redis-test")
	if err != nil || len(items) != 1 {
		t.Fatalf("List = %v, %v", items, err)
	}
	if err := r.Delete(ctx, "redis-test", "notes"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get(ctx, "redis-test", "notes"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete = %v", err)
	}
}
