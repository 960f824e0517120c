package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surf-station/storefront/internal/config"
	"github.com/surf-station/storefront/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
)

// taskSpec 每类任务的投递参数
type taskSpec struct {
	maxRetry int
	timeout  time.Duration
}

var taskSpecs = map[string]taskSpec{
	TaskCatalogWarm:       {maxRetry: 2, timeout: 2 * time.Minute},
	TaskCartSnapshotPrune: {maxRetry: 3, timeout: 5 * time.Minute},
}

// Client 队列客户端封装
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
}

// NewClient 创建队列客户端，未启用时返回空操作客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue}, nil
	}
	return &Client{
		client:       asynq.NewClient(buildRedisOpt(cfg)),
		enabled:      true,
		defaultQueue: DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueCatalogWarm 推送目录预热任务，window 内重复投递会被忽略
func (c *Client) EnqueueCatalogWarm(payload CatalogWarmPayload, window time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewCatalogWarmTask(payload)
	if err != nil {
		return err
	}
	return c.enqueueUnique(task, window)
}

// EnqueueCartSnapshotPrune 推送快照清理任务
func (c *Client) EnqueueCartSnapshotPrune(payload CartSnapshotPrunePayload, window time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewCartSnapshotPruneTask(payload)
	if err != nil {
		return err
	}
	return c.enqueueUnique(task, window)
}

func (c *Client) enqueueUnique(task *asynq.Task, window time.Duration) error {
	_, err := c.client.Enqueue(task, c.taskOptions(task.Type(), window)...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func (c *Client) taskOptions(taskType string, window time.Duration) []asynq.Option {
	queueName := DefaultQueue
	if c != nil && c.defaultQueue != "" {
		queueName = c.defaultQueue
	}
	opts := []asynq.Option{asynq.Queue(queueName)}
	if ts, ok := taskSpecs[taskType]; ok {
		opts = append(opts, asynq.MaxRetry(ts.maxRetry), asynq.Timeout(ts.timeout))
	}
	if window > 0 {
		opts = append(opts, asynq.Unique(window))
	}
	return opts
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	if _, ok := queues[DefaultQueue]; !ok {
		// 任务统一投递到默认队列，配置遗漏时补上
		merged := make(map[string]int, len(queues)+1)
		for name, weight := range queues {
			merged[name] = weight
		}
		merged[DefaultQueue] = 1
		queues = merged
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	opt := asynq.RedisClientOpt{}
	if cfg != nil {
		if trimmed := strings.TrimSpace(cfg.Host); trimmed != "" {
			host = trimmed
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		opt.Password = cfg.Password
		opt.DB = cfg.DB
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	return opt
}
