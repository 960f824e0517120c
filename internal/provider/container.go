package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surf-station/storefront/internal/cache"
	"github.com/surf-station/storefront/internal/cart"
	"github.com/surf-station/storefront/internal/catalog"
	"github.com/surf-station/storefront/internal/config"
	"github.com/surf-station/storefront/internal/constants"
	"github.com/surf-station/storefront/internal/logger"
	"github.com/surf-station/storefront/internal/metrics"
	"github.com/surf-station/storefront/internal/models"
	"github.com/surf-station/storefront/internal/queue"
	"github.com/surf-station/storefront/internal/repository"
	"github.com/surf-station/storefront/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics

	// Repositories
	CartSnapshotRepo repository.CartSnapshotRepository

	// Cart persistence
	CartPersister      cart.Persister
	CartPersistBackend string

	// Services
	CatalogClient  *catalog.Client
	CatalogService *service.CatalogService
	SessionTokens  *service.SessionTokenService
	CartSessions   *service.CartSessionService
	CartService    *service.CartService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) (*Container, error) {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Registry:    registry,
		Metrics:     metrics.New(registry),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 选择购物车持久化后端
	if err := c.initCartPersistence(); err != nil {
		return nil, err
	}

	// 3. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	if models.DB == nil {
		return
	}
	c.CartSnapshotRepo = repository.NewCartSnapshotRepository(models.DB)
}

func (c *Container) initCartPersistence() error {
	driver := strings.ToLower(strings.TrimSpace(c.Config.Cart.Persistence.Driver))
	switch driver {
	case config.PersistenceDriverDatabase, "":
		if c.CartSnapshotRepo == nil {
			return fmt.Errorf("cart persistence driver %q requires a database", config.PersistenceDriverDatabase)
		}
		c.CartPersister = c.CartSnapshotRepo
		c.CartPersistBackend = config.PersistenceDriverDatabase
	case config.PersistenceDriverRedis:
		if !cache.Enabled() {
			return fmt.Errorf("cart persistence driver %q requires redis", config.PersistenceDriverRedis)
		}
		c.CartPersister = cache.NewCartSnapshotStore(c.Config.Cart.Persistence.RedisTTL())
		c.CartPersistBackend = config.PersistenceDriverRedis
	case config.PersistenceDriverMemory:
		c.CartPersister = cart.NewMemoryPersister()
		c.CartPersistBackend = config.PersistenceDriverMemory
	default:
		return fmt.Errorf("unsupported cart persistence driver: %s", driver)
	}
	logger.Infow("provider_cart_persistence_selected", "backend", c.CartPersistBackend)
	return nil
}

func (c *Container) initServices() error {
	client, err := catalog.NewClient(catalog.Config{
		BaseURL:   c.Config.Catalog.BaseURL,
		Timeout:   c.Config.Catalog.Timeout(),
		UserAgent: c.Config.Catalog.UserAgent,
	}, nil)
	if err != nil {
		return err
	}
	c.CatalogClient = client
	c.CatalogService = service.NewCatalogService(client, service.CatalogServiceOptions{
		ProductCacheTTL:    c.Config.Catalog.ProductCacheTTL(),
		CollectionCacheTTL: c.Config.Catalog.CollectionCacheTTL(),
		Logger:             logger.Named(constants.ComponentCatalog),
		Metrics:            c.Metrics,
	})

	c.SessionTokens = service.NewSessionTokenService(c.Config.Session.Secret, c.Config.Session.TTL())
	c.CartSessions = service.NewCartSessionService(c.CartPersister, service.CartSessionOptions{
		StorageKey:     c.Config.Cart.StorageKey,
		Backend:        c.CartPersistBackend,
		IdleTimeout:    c.Config.Cart.SessionIdle(),
		PersistTimeout: c.Config.Cart.PersistTimeout(),
		Logger:         logger.Named(constants.ComponentCart),
		Metrics:        c.Metrics,
	})
	c.CartService = service.NewCartService(c.CartSessions, c.CatalogService, service.CartServiceOptions{
		FreeShippingThreshold: c.Config.Cart.FreeShippingAmount(),
		MaxLineQuantity:       c.Config.Cart.MaxLineQuantity,
	})
	return nil
}

// Close 释放容器持有的外部连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.QueueClient.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
