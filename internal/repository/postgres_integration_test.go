//go:build integration
// +build integration

package repository

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/surf-station/storefront/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	_ = db.Migrator().DropTable(&models.CartSnapshot{})
	if err := db.AutoMigrate(&models.CartSnapshot{}); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(&models.CartSnapshot{})
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresCartSnapshotRepository(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewCartSnapshotRepository(db)
	ctx := context.Background()

	for _, key := range []string{"scrole-cart:pg-1", "scrole-cart:pg-2", "scrole_cartx:pg-3"} {
		if err := repo.Save(ctx, key, sampleCartSnapshot(3)); err != nil {
			t.Fatalf("save %s failed: %v", key, err)
		}
	}
	if err := repo.Save(ctx, "scrole-cart:pg-1", sampleCartSnapshot(4)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	loaded, found, err := repo.Load(ctx, "scrole-cart:pg-1")
	if err != nil || !found {
		t.Fatalf("load failed: found=%v err=%v", found, err)
	}
	if loaded.TotalQuantity != 4 {
		t.Fatalf("total quantity want 4 got %d", loaded.TotalQuantity)
	}

	rows, err := repo.ListByPrefix(ctx, "scrole_cart", 0)
	if err != nil {
		t.Fatalf("list by prefix failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("escaped prefix want 1 row got %d", len(rows))
	}

	removed, err := repo.PruneBefore(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("prune want 3 got %d", removed)
	}
}
