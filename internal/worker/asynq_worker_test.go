package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/surf-station/storefront/internal/cache"
	"github.com/surf-station/storefront/internal/cart"
	"github.com/surf-station/storefront/internal/catalog"
	"github.com/surf-station/storefront/internal/config"
	"github.com/surf-station/storefront/internal/metrics"
	"github.com/surf-station/storefront/internal/models"
	"github.com/surf-station/storefront/internal/provider"
	"github.com/surf-station/storefront/internal/queue"
	"github.com/surf-station/storefront/internal/repository"
	"github.com/surf-station/storefront/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type warmFetcher struct {
	err   error
	calls int
}

func (f *warmFetcher) FetchProducts(ctx context.Context, limit int) ([]catalog.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []catalog.Product{{ID: 1, Handle: "fins", Title: "Fins"}}, nil
}

func (f *warmFetcher) FetchProductsByCollection(ctx context.Context, handle string, limit int) ([]catalog.Product, error) {
	return f.FetchProducts(ctx, limit)
}

func (f *warmFetcher) FetchProduct(ctx context.Context, handle string) (*catalog.Product, error) {
	return nil, catalog.ErrNotFound
}

func (f *warmFetcher) FetchCollections(ctx context.Context, limit int) ([]catalog.Collection, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []catalog.Collection{{ID: 1, Handle: "fins", Title: "Fins"}}, nil
}

func newTestConsumer(t *testing.T, fetcher service.CatalogFetcher, repo repository.CartSnapshotRepository) (*Consumer, *prometheus.Registry) {
	t.Helper()
	cache.UseClient(nil, "")
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	consumer := NewConsumer(&provider.Container{
		Config:           &config.Config{},
		Metrics:          m,
		CatalogService:   service.NewCatalogService(fetcher, service.CatalogServiceOptions{Metrics: m}),
		CartSnapshotRepo: repo,
	})
	return consumer, reg
}

func taskCount(t *testing.T, reg *prometheus.Registry, task, result string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "worker_tasks_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["task"] == task && labels["result"] == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestHandleCatalogWarm(t *testing.T) {
	fetcher := &warmFetcher{}
	consumer, reg := newTestConsumer(t, fetcher, nil)

	task, err := queue.NewCatalogWarmTask(queue.CatalogWarmPayload{Reason: "test"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handleCatalogWarm(context.Background(), task); err != nil {
		t.Fatalf("warm failed: %v", err)
	}
	if fetcher.calls == 0 {
		t.Fatalf("warm should hit the upstream catalog")
	}
	if got := taskCount(t, reg, queue.TaskCatalogWarm, metrics.ResultSuccess); got != 1 {
		t.Fatalf("expected one successful warm, got %v", got)
	}

	fetcher.err = errors.New("upstream down")
	if err := consumer.handleCatalogWarm(context.Background(), task); err == nil {
		t.Fatalf("warm should surface upstream failure for retry")
	}
	if got := taskCount(t, reg, queue.TaskCatalogWarm, metrics.ResultFailure); got != 1 {
		t.Fatalf("expected one failed warm, got %v", got)
	}
}

func TestHandleCatalogWarmBadPayload(t *testing.T) {
	consumer, _ := newTestConsumer(t, &warmFetcher{}, nil)
	task := asynq.NewTask(queue.TaskCatalogWarm, []byte("{not json"))
	if err := consumer.handleCatalogWarm(context.Background(), task); err == nil {
		t.Fatalf("malformed payload should fail")
	}
}

func TestHandleCartSnapshotPruneSkipsWithoutRepository(t *testing.T) {
	consumer, reg := newTestConsumer(t, &warmFetcher{}, nil)
	task, err := queue.NewCartSnapshotPruneTask(queue.CartSnapshotPrunePayload{RetentionDays: 7})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handleCartSnapshotPrune(context.Background(), task); err != nil {
		t.Fatalf("prune without repository should be skipped: %v", err)
	}
	if got := taskCount(t, reg, queue.TaskCartSnapshotPrune, metrics.ResultSuccess); got != 0 {
		t.Fatalf("skipped prune should not be recorded, got %v", got)
	}
}

func TestHandleCartSnapshotPrune(t *testing.T) {
	dsn := fmt.Sprintf("file:worker_prune_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CartSnapshot{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	repo := repository.NewCartSnapshotRepository(db)
	ctx := context.Background()
	for _, key := range []string{"scrole-cart:old", "scrole-cart:fresh"} {
		if err := repo.Save(ctx, key, cart.Empty()); err != nil {
			t.Fatalf("save %s failed: %v", key, err)
		}
	}
	stale := time.Now().Add(-10 * 24 * time.Hour)
	if err := db.Model(&models.CartSnapshot{}).Where("storage_key = ?", "scrole-cart:old").
		UpdateColumn("updated_at", stale).Error; err != nil {
		t.Fatalf("age snapshot failed: %v", err)
	}

	consumer, reg := newTestConsumer(t, &warmFetcher{}, repo)
	task, err := queue.NewCartSnapshotPruneTask(queue.CartSnapshotPrunePayload{RetentionDays: 7})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handleCartSnapshotPrune(ctx, task); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	if _, found, err := repo.Load(ctx, "scrole-cart:old"); err != nil || found {
		t.Fatalf("stale snapshot should be pruned, found=%v err=%v", found, err)
	}
	if _, found, err := repo.Load(ctx, "scrole-cart:fresh"); err != nil || !found {
		t.Fatalf("fresh snapshot should survive, found=%v err=%v", found, err)
	}
	if got := taskCount(t, reg, queue.TaskCartSnapshotPrune, metrics.ResultSuccess); got != 1 {
		t.Fatalf("expected one successful prune, got %v", got)
	}
}

func TestSnapshotRetention(t *testing.T) {
	consumer := NewConsumer(&provider.Container{Config: &config.Config{Cart: config.CartConfig{SnapshotRetentionDays: 3}}})
	if got := consumer.snapshotRetention(1); got != 24*time.Hour {
		t.Fatalf("payload retention should win, got %v", got)
	}
	if got := consumer.snapshotRetention(0); got != 72*time.Hour {
		t.Fatalf("config retention expected, got %v", got)
	}
	if got := NewConsumer(&provider.Container{}).snapshotRetention(0); got != defaultSnapshotRetention {
		t.Fatalf("default retention expected, got %v", got)
	}
}
