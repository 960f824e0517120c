package main

import (
	"context"
	"flag"
	"time"

	"github.com/surf-station/storefront/internal/config"
	"github.com/surf-station/storefront/internal/logger"
	"github.com/surf-station/storefront/internal/models"
	"github.com/surf-station/storefront/internal/provider"
	"github.com/surf-station/storefront/internal/repository"
	"github.com/surf-station/storefront/internal/service"
)

// 从线上目录挑选商品写入一个演示购物车，并打印可直接使用的会话令牌
func main() {
	var products int
	var list bool
	flag.IntVar(&products, "products", 3, "加入演示购物车的商品数")
	flag.BoolVar(&list, "list", true, "完成后列出已保存的购物车快照")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示数据统一写入数据库快照
	cfg.Cart.Persistence.Driver = config.PersistenceDriverDatabase
	container, err := provider.NewContainer(cfg)
	if err != nil {
		stdLog.Fatalf("Failed to build container: %v", err)
	}
	defer func() {
		_ = container.Close()
		_ = models.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	catalogProducts := container.CatalogService.ListProducts(ctx, 50)
	if len(catalogProducts) == 0 {
		stdLog.Fatalf("Catalog is empty or unreachable: %s", container.CatalogClient.BaseURL())
	}

	sid := service.NewSessionID()
	added := 0
	for _, product := range catalogProducts {
		if added >= products {
			break
		}
		variant, ok := product.FirstAvailableVariant()
		if !ok {
			stdLog.Printf("Skip sold out product: %s", product.Handle)
			continue
		}
		view, err := container.CartService.AddItem(ctx, service.AddCartItemInput{
			SessionID:     sid,
			ProductHandle: product.Handle,
			VariantID:     variant.ID,
			Quantity:      1,
		})
		if err != nil {
			stdLog.Printf("Failed to add %s: %v", product.Handle, err)
			continue
		}
		added++
		stdLog.Printf("Added %s (%s), cart total %s", product.Handle, variant.Title, view.FormattedTotal)
	}
	if added == 0 {
		stdLog.Fatalf("No purchasable products found")
	}

	token, expiresAt, err := container.SessionTokens.Issue(sid)
	if err != nil {
		stdLog.Fatalf("Failed to issue session token: %v", err)
	}
	stdLog.Printf("Session: %s", sid)
	stdLog.Printf("Token (%s, expires %s): %s", cfg.Session.Header, expiresAt.Format(time.RFC3339), token)

	if !list {
		return
	}
	rows, total, err := container.CartSnapshotRepo.List(ctx, repository.CartSnapshotListFilter{
		Page:         1,
		PageSize:     20,
		Prefix:       cfg.Cart.StorageKey + ":",
		OnlyNonEmpty: true,
	})
	if err != nil {
		stdLog.Fatalf("Failed to list snapshots: %v", err)
	}
	stdLog.Printf("Non-empty snapshots: %d (showing %d)", total, len(rows))
	for _, row := range rows {
		stdLog.Printf("Snapshot %s v%d qty=%d total=%s open=%v updated=%s",
			row.StorageKey, row.Version, row.TotalQuantity, row.TotalPrice.StringFixed(2), row.IsOpen,
			row.UpdatedAt.Format(time.RFC3339))
	}
}
