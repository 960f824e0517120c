package cache

import (
	"context"
	"time"

	"github.com/surf-station/storefront/internal/cart"

	"github.com/redis/go-redis/v9"
)

// CartSnapshotStore 基于 Redis 的购物车快照后端
type CartSnapshotStore struct {
	ttl time.Duration
}

// NewCartSnapshotStore 创建 Redis 快照后端，ttl <= 0 表示不过期
func NewCartSnapshotStore(ttl time.Duration) *CartSnapshotStore {
	if ttl < 0 {
		ttl = 0
	}
	return &CartSnapshotStore{ttl: ttl}
}

func cartSnapshotKey(key string) string {
	return "cart:" + key
}

// Save 实现 cart.Persister，每次写入都会刷新过期时间
func (s *CartSnapshotStore) Save(ctx context.Context, key string, snapshot cart.Snapshot) error {
	if !Enabled() {
		return ErrDisabled
	}
	payload, err := cart.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	return redisClient.Set(ctx, buildKey(cartSnapshotKey(key)), payload, s.ttl).Err()
}

// Load 实现 cart.Persister
func (s *CartSnapshotStore) Load(ctx context.Context, key string) (cart.Snapshot, bool, error) {
	if !Enabled() {
		return cart.Snapshot{}, false, ErrDisabled
	}
	payload, err := redisClient.Get(ctx, buildKey(cartSnapshotKey(key))).Bytes()
	if err == redis.Nil {
		return cart.Snapshot{}, false, nil
	}
	if err != nil {
		return cart.Snapshot{}, false, err
	}
	snapshot, err := cart.DecodeSnapshot(payload)
	if err != nil {
		return cart.Snapshot{}, false, err
	}
	return snapshot, true, nil
}

// Delete 实现 cart.Persister
func (s *CartSnapshotStore) Delete(ctx context.Context, key string) error {
	if !Enabled() {
		return ErrDisabled
	}
	return redisClient.Del(ctx, buildKey(cartSnapshotKey(key))).Err()
}
