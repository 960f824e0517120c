package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/surf-station/storefront/internal/cart"
	"github.com/surf-station/storefront/internal/config"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	ctx := context.Background()
	if Enabled() || Client() != nil {
		t.Fatalf("redis should be disabled")
	}
	if err := SetProducts(ctx, 50, nil, time.Minute); err != nil {
		t.Fatalf("set on disabled cache should be a no-op: %v", err)
	}
	if _, hit, err := GetProducts(ctx, 50); hit || err != nil {
		t.Fatalf("get on disabled cache should miss: hit=%v err=%v", hit, err)
	}
	if _, hit, err := GetProduct(ctx, "soft-top"); hit || err != nil {
		t.Fatalf("get product on disabled cache should miss: hit=%v err=%v", hit, err)
	}
	if err := Ping(ctx); err != nil {
		t.Fatalf("ping on disabled cache should be nil: %v", err)
	}
}

func TestCartSnapshotStoreRequiresRedis(t *testing.T) {
	if err := InitRedis(nil); err != nil {
		t.Fatalf("init nil redis failed: %v", err)
	}
	store := NewCartSnapshotStore(time.Hour)
	ctx := context.Background()
	if err := store.Save(ctx, "scrole-cart:x", cart.Empty()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("save should report ErrDisabled, got %v", err)
	}
	if _, _, err := store.Load(ctx, "scrole-cart:x"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("load should report ErrDisabled, got %v", err)
	}
	if err := store.Delete(ctx, "scrole-cart:x"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("delete should report ErrDisabled, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	UseClient(nil, "")
	if got := BuildKey("catalog:products:50"); got != "sf:catalog:products:50" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := productKey(" Soft-Top "); got != "catalog:product:soft-top" {
		t.Fatalf("product key should be normalized, got %s", got)
	}
	if got := collectionProductsKey("Boards", 24); got != "catalog:collection:boards:24" {
		t.Fatalf("unexpected collection key: %s", got)
	}
	if got := cartSnapshotKey("scrole-cart:abc"); got != "cart:scrole-cart:abc" {
		t.Fatalf("unexpected cart key: %s", got)
	}
	if got := BuildKey(" "); got != "sf" {
		t.Fatalf("blank key should map to prefix, got %s", got)
	}
}
