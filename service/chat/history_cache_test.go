package chat

import (
	"context"
	"testing"
	"time"

	"rag-chatbot-backend/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*HistoryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewHistoryCache(client, time.Minute), mr
}

func TestHistoryCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, ok, err := cache.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected a cache miss for an unknown session")
	}
}

func TestHistoryCacheSetGetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	messages := []model.Message{
		{SessionID: "s1", Role: "human", Content: "电池保修政策是什么？"},
		{SessionID: "s1", Role: "ai", Content: "保修期为八年。", Summary: "保修八年"},
	}
	if err := cache.Set(ctx, "s1", messages); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := cache.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected a cache hit")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cached messages, got %d", len(got))
	}
	if got[1].Summary != "保修八年" {
		t.Fatalf("summary must survive the cache round trip, got %q", got[1].Summary)
	}
}

func TestHistoryCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "s1", []model.Message{{SessionID: "s1", Role: "human", Content: "hi"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Invalidate(ctx, "s1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	_, ok, err := cache.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss after invalidation")
	}
}

func TestHistoryCacheExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewHistoryCache(client, time.Second)
	ctx := context.Background()

	if err := cache.Set(ctx, "s1", []model.Message{{SessionID: "s1", Role: "human", Content: "hi"}}); err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.FastForward(2 * time.Second)

	_, ok, err := cache.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss after ttl expiry")
	}
}
