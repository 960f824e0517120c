package queue

import (
	"encoding/json"

	"github.com/surf-station/storefront/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCatalogWarm 目录缓存预热任务
	TaskCatalogWarm = constants.TaskCatalogWarm
	// TaskCartSnapshotPrune 过期购物车快照清理任务
	TaskCartSnapshotPrune = constants.TaskCartSnapshotPrune
)

// CatalogWarmPayload 目录预热任务载荷
type CatalogWarmPayload struct {
	Reason string `json:"reason"`
}

// CartSnapshotPrunePayload 快照清理任务载荷
type CartSnapshotPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewCatalogWarmTask 创建目录预热任务
func NewCatalogWarmTask(payload CatalogWarmPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogWarm, body), nil
}

// NewCartSnapshotPruneTask 创建快照清理任务
func NewCartSnapshotPruneTask(payload CartSnapshotPrunePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartSnapshotPrune, body), nil
}
