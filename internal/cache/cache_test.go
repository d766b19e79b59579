package cache

import (
	"context"
	"testing"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return server, client
}

func TestBuildKeyWithPrefix(t *testing.T) {
	if got := buildKeyWithPrefix("le", " profile:u1 "); got != "le:profile:u1" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := buildKeyWithPrefix("le", "  "); got != "le" {
		t.Fatalf("blank key should fall back to prefix, got %s", got)
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	Use(nil, "")
	ctx := context.Background()

	if err := SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute); err != nil {
		t.Fatalf("set on disabled cache should be noop: %v", err)
	}
	var dest map[string]string
	hit, err := GetJSON(ctx, "k", &dest)
	if err != nil || hit {
		t.Fatalf("get on disabled cache should miss, hit=%v err=%v", hit, err)
	}
	if Prefix() != constants.RedisPrefixDefault {
		t.Fatalf("prefix should fall back to default, got %s", Prefix())
	}
}

func TestDiscountDefinitionCacheRoundTrip(t *testing.T) {
	server, client := setupMiniRedis(t)
	Use(client, "test")
	t.Cleanup(func() { Use(nil, "") })
	ctx := context.Background()

	definition := &models.MembershipDiscount{ID: "d-1", Name: "gold", Active: true}
	if err := SetDiscountDefinition(ctx, definition, time.Minute); err != nil {
		t.Fatalf("set definition failed: %v", err)
	}
	if !server.Exists("test:discount:definition:d-1") {
		t.Fatalf("definition key not written, keys=%v", server.Keys())
	}

	cached, hit, err := GetDiscountDefinition(ctx, "d-1")
	if err != nil || !hit {
		t.Fatalf("expected cache hit, hit=%v err=%v", hit, err)
	}
	if cached.Name != "gold" || !cached.Active {
		t.Fatalf("unexpected cached definition: %+v", cached)
	}

	if err := InvalidateDiscountDefinition(ctx, "d-1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if _, hit, _ := GetDiscountDefinition(ctx, "d-1"); hit {
		t.Fatalf("definition should be evicted")
	}
}

func TestRedisProfileStoreCounters(t *testing.T) {
	server, client := setupMiniRedis(t)
	store := NewRedisProfileStore(client, "le")
	ctx := context.Background()

	empty, err := store.GetProfileCounters(ctx, "u-1")
	if err != nil {
		t.Fatalf("get missing profile failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("missing profile should yield empty snapshot, got %+v", empty)
	}

	snapshot := models.QuotaCounterSnapshot{
		models.QuotaCounterKey("r1"): {PeriodKey: "2024-06", CountUsed: 2, LifetimeUsed: 5},
	}
	if err := store.SetProfileCounters(ctx, "u-1", snapshot); err != nil {
		t.Fatalf("set counters failed: %v", err)
	}
	field := server.HGet("le:profile:u-1", constants.ProfileMetadataDiscountCounters)
	if field == "" {
		t.Fatalf("hash field not written")
	}

	loaded, err := store.GetProfileCounters(ctx, "u-1")
	if err != nil {
		t.Fatalf("reload counters failed: %v", err)
	}
	counter, ok := loaded.Get("r1")
	if !ok || counter.CountUsed != 2 || counter.LifetimeUsed != 5 || counter.PeriodKey != "2024-06" {
		t.Fatalf("unexpected counter: %+v ok=%v", counter, ok)
	}
}

func TestRedisProfileStoreWithoutClient(t *testing.T) {
	store := NewRedisProfileStore(nil, "")
	if _, err := store.GetProfileCounters(context.Background(), "u"); err != ErrProfileStoreUnavailable {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
