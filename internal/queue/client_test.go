package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/surf-station/storefront/internal/config"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("disabled client should report disabled")
	}
	if err := client.EnqueueCatalogWarm(CatalogWarmPayload{Reason: "test"}, time.Minute); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
	if err := client.EnqueueCartSnapshotPrune(CartSnapshotPrunePayload{RetentionDays: 1}, time.Hour); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() || nilClient.Close() != nil {
		t.Fatalf("nil client should be safe to use")
	}
}

func TestTaskPayloads(t *testing.T) {
	task, err := NewCartSnapshotPruneTask(CartSnapshotPrunePayload{RetentionDays: 14})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskCartSnapshotPrune {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var payload CartSnapshotPrunePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.RetentionDays != 14 {
		t.Fatalf("unexpected payload: %+v err=%v", payload, err)
	}

	opts := (&Client{defaultQueue: DefaultQueue}).taskOptions(TaskCatalogWarm, time.Minute)
	if len(opts) != 4 {
		t.Fatalf("expected queue, retry, timeout and unique options, got %d", len(opts))
	}
	if opts := (&Client{}).taskOptions("unknown", 0); len(opts) != 1 {
		t.Fatalf("unknown task should only carry the queue option, got %d", len(opts))
	}
}

func TestBuildServerConfig(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" || cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected defaults: %+v %+v", opt, cfg)
	}

	opt, cfg = BuildServerConfig(&config.QueueConfig{
		Host:        " redis ",
		Port:        6380,
		DB:          2,
		Concurrency: 3,
		Queues:      map[string]int{"critical": 5},
	})
	if opt.Addr != "redis:6380" || opt.DB != 2 || cfg.Concurrency != 3 {
		t.Fatalf("unexpected config: %+v %+v", opt, cfg)
	}
	if cfg.Queues["critical"] != 5 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("default queue should be merged in: %+v", cfg.Queues)
	}
}
