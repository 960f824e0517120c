package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/surf-station/storefront/internal/logger"
	"github.com/surf-station/storefront/internal/provider"
	"github.com/surf-station/storefront/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultSnapshotRetention = 30 * 24 * time.Hour

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	now func() time.Time
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
		now:       time.Now,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCatalogWarm, c.handleCatalogWarm)
	mux.HandleFunc(queue.TaskCartSnapshotPrune, c.handleCartSnapshotPrune)
}

func (c *Consumer) handleCatalogWarm(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_catalog_warm_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CatalogWarmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_catalog_warm_unmarshal_failed", "error", err)
		c.Metrics.ObserveTask(queue.TaskCatalogWarm, err)
		return err
	}
	if c.CatalogService == nil {
		logger.Warnw("worker_catalog_warm_skip_service_nil", "reason", payload.Reason)
		return nil
	}
	result, err := c.CatalogService.Warm(ctx)
	c.Metrics.ObserveTask(queue.TaskCatalogWarm, err)
	if err != nil {
		// 部分成功的结果也已写入缓存，交给 asynq 重试剩余部分
		logger.Warnw("worker_catalog_warm_failed",
			"reason", payload.Reason,
			"products", result.Products,
			"collections", result.Collections,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_catalog_warm_done",
		"reason", payload.Reason,
		"products", result.Products,
		"collections", result.Collections,
	)
	return nil
}

func (c *Consumer) handleCartSnapshotPrune(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_cart_snapshot_prune_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CartSnapshotPrunePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_cart_snapshot_prune_unmarshal_failed", "error", err)
		c.Metrics.ObserveTask(queue.TaskCartSnapshotPrune, err)
		return err
	}
	if c.CartSnapshotRepo == nil {
		logger.Debugw("worker_cart_snapshot_prune_skip_repo_nil")
		return nil
	}
	retention := c.snapshotRetention(payload.RetentionDays)
	before := c.clock()().Add(-retention)
	removed, err := c.CartSnapshotRepo.PruneBefore(ctx, before)
	c.Metrics.ObserveTask(queue.TaskCartSnapshotPrune, err)
	if err != nil {
		logger.Warnw("worker_cart_snapshot_prune_failed", "before", before, "error", err)
		return err
	}
	logger.Infow("worker_cart_snapshot_prune_done", "before", before, "removed", removed)
	return nil
}

// snapshotRetention 载荷优先，其次配置
func (c *Consumer) snapshotRetention(days int) time.Duration {
	if days > 0 {
		return time.Duration(days) * 24 * time.Hour
	}
	if c.Config != nil {
		return c.Config.Cart.SnapshotRetention()
	}
	return defaultSnapshotRetention
}

func (c *Consumer) clock() func() time.Time {
	if c.now == nil {
		return time.Now
	}
	return c.now
}
