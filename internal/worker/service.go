package worker

import (
	"context"
	"errors"
	"time"

	"github.com/surf-station/storefront/internal/config"
	"github.com/surf-station/storefront/internal/logger"
	"github.com/surf-station/storefront/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	snapshotPruneInterval = 24 * time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.QueueClient.Enabled() {
		go s.runScheduleLoop(ctx, "catalog_warm", s.catalogWarmInterval(), s.enqueueCatalogWarm)
		if s.consumer.CartSnapshotRepo != nil {
			go s.runScheduleLoop(ctx, "cart_snapshot_prune", snapshotPruneInterval, s.enqueueSnapshotPrune)
		}
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) catalogWarmInterval() time.Duration {
	if s.consumer == nil || s.consumer.Config == nil {
		return 5 * time.Minute
	}
	return s.consumer.Config.Catalog.WarmInterval()
}

func (s *Service) enqueueCatalogWarm(interval time.Duration) error {
	return s.consumer.QueueClient.EnqueueCatalogWarm(queue.CatalogWarmPayload{Reason: "schedule"}, interval)
}

func (s *Service) enqueueSnapshotPrune(interval time.Duration) error {
	days := 0
	if s.consumer.Config != nil {
		days = s.consumer.Config.Cart.SnapshotRetentionDays
	}
	return s.consumer.QueueClient.EnqueueCartSnapshotPrune(queue.CartSnapshotPrunePayload{RetentionDays: days}, interval)
}

// runScheduleLoop 启动时执行一次，之后按周期入队；多实例下靠 asynq.Unique 去重
func (s *Service) runScheduleLoop(ctx context.Context, name string, interval time.Duration, enqueue func(time.Duration) error) {
	if interval <= 0 {
		return
	}
	runOnce := func() {
		if err := enqueue(interval); err != nil {
			logger.Warnw("worker_schedule_enqueue_failed", "task", name, "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
