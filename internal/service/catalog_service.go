package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/surf-station/storefront/internal/cache"
	"github.com/surf-station/storefront/internal/catalog"
	"github.com/surf-station/storefront/internal/metrics"

	"go.uber.org/zap"
)

const (
	defaultProductListLimit    = 50
	defaultCollectionLimit     = 50
	defaultSearchLimit         = 50
	defaultHighlightLimit      = 12
	searchSourceLimit          = catalog.MaxPageLimit
	featuredSourceLimit        = 50
	saleSourceLimit            = 100
	defaultProductCacheTTL     = 300 * time.Second
	defaultCollectionsCacheTTL = 600 * time.Second
)

// CatalogFetcher 商品目录数据源
type CatalogFetcher interface {
	FetchProducts(ctx context.Context, limit int) ([]catalog.Product, error)
	FetchProductsByCollection(ctx context.Context, handle string, limit int) ([]catalog.Product, error)
	FetchProduct(ctx context.Context, handle string) (*catalog.Product, error)
	FetchCollections(ctx context.Context, limit int) ([]catalog.Collection, error)
}

// CatalogServiceOptions 目录服务参数
type CatalogServiceOptions struct {
	ProductCacheTTL    time.Duration
	CollectionCacheTTL time.Duration
	Logger             *zap.Logger
	Metrics            *metrics.Metrics
}

// CatalogService 商品目录服务
// 所有读取失败都降级为空结果（单品为 nil），只记录日志与指标，不向调用方返回错误。
type CatalogService struct {
	fetcher       CatalogFetcher
	productTTL    time.Duration
	collectionTTL time.Duration
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// NewCatalogService 创建目录服务
func NewCatalogService(fetcher CatalogFetcher, opts CatalogServiceOptions) *CatalogService {
	productTTL := opts.ProductCacheTTL
	if productTTL <= 0 {
		productTTL = defaultProductCacheTTL
	}
	collectionTTL := opts.CollectionCacheTTL
	if collectionTTL <= 0 {
		collectionTTL = defaultCollectionsCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		fetcher:       fetcher,
		productTTL:    productTTL,
		collectionTTL: collectionTTL,
		logger:        logger,
		metrics:       opts.Metrics,
	}
}

// ListProducts 获取商品列表
func (s *CatalogService) ListProducts(ctx context.Context, limit int) []catalog.Product {
	limit = catalog.NormalizeLimit(limit, defaultProductListLimit)
	return s.products(ctx, limit)
}

// GetProduct 按 handle 获取商品，不存在或失败时返回 nil
func (s *CatalogService) GetProduct(ctx context.Context, handle string) *catalog.Product {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil
	}
	if product, hit, err := cache.GetProduct(ctx, handle); err == nil && hit {
		s.metrics.ObserveCatalogCache(true)
		return product
	} else if err != nil {
		s.logger.Warn("catalog_cache_read_failed", zap.String("key", "product:"+handle), zap.Error(err))
	}
	s.metrics.ObserveCatalogCache(false)

	product, err := s.fetcher.FetchProduct(ctx, handle)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil
		}
		s.degrade("get_product", err, zap.String("handle", handle))
		return nil
	}
	if err := cache.SetProduct(ctx, product, s.productTTL); err != nil {
		s.logger.Warn("catalog_cache_write_failed", zap.String("key", "product:"+handle), zap.Error(err))
	}
	return product
}

// GetProductsByCollection 获取分类下的商品并排序
func (s *CatalogService) GetProductsByCollection(ctx context.Context, handle string, limit int, sortKey string) []catalog.Product {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return []catalog.Product{}
	}
	limit = catalog.NormalizeLimit(limit, defaultProductListLimit)

	products, hit, err := cache.GetCollectionProducts(ctx, handle, limit)
	if err != nil {
		s.logger.Warn("catalog_cache_read_failed", zap.String("key", "collection:"+handle), zap.Error(err))
	}
	s.metrics.ObserveCatalogCache(hit)
	if !hit {
		products, err = s.fetcher.FetchProductsByCollection(ctx, handle, limit)
		if err != nil {
			s.degrade("get_products_by_collection", err, zap.String("handle", handle))
			return []catalog.Product{}
		}
		if err := cache.SetCollectionProducts(ctx, handle, limit, products, s.productTTL); err != nil {
			s.logger.Warn("catalog_cache_write_failed", zap.String("key", "collection:"+handle), zap.Error(err))
		}
	}
	return catalog.SortProducts(products, sortKey)
}

// GetCollections 获取分类列表
func (s *CatalogService) GetCollections(ctx context.Context, limit int) []catalog.Collection {
	limit = catalog.NormalizeLimit(limit, defaultCollectionLimit)
	collections, hit, err := cache.GetCollections(ctx, limit)
	if err != nil {
		s.logger.Warn("catalog_cache_read_failed", zap.String("key", "collections"), zap.Error(err))
	}
	s.metrics.ObserveCatalogCache(hit)
	if hit {
		return collections
	}
	collections, err = s.fetcher.FetchCollections(ctx, limit)
	if err != nil {
		s.degrade("get_collections", err)
		return []catalog.Collection{}
	}
	if err := cache.SetCollections(ctx, limit, collections, s.collectionTTL); err != nil {
		s.logger.Warn("catalog_cache_write_failed", zap.String("key", "collections"), zap.Error(err))
	}
	return collections
}

// SearchCollections 按标题或描述过滤分类
func (s *CatalogService) SearchCollections(ctx context.Context, query string, limit int) []catalog.Collection {
	return catalog.FilterCollections(s.GetCollections(ctx, limit), query)
}

// SearchProducts 在最近的商品中做不区分大小写的子串匹配
func (s *CatalogService) SearchProducts(ctx context.Context, query string, limit int) []catalog.Product {
	limit = catalog.NormalizeLimit(limit, defaultSearchLimit)
	return catalog.FilterProducts(s.products(ctx, searchSourceLimit), query, limit)
}

// FeaturedProducts 最新发布的商品
func (s *CatalogService) FeaturedProducts(ctx context.Context, limit int) []catalog.Product {
	limit = catalog.NormalizeLimit(limit, defaultHighlightLimit)
	return catalog.NewestProducts(s.products(ctx, featuredSourceLimit), limit)
}

// SaleProducts 有划线价的商品
func (s *CatalogService) SaleProducts(ctx context.Context, limit int) []catalog.Product {
	limit = catalog.NormalizeLimit(limit, defaultHighlightLimit)
	return catalog.SaleProducts(s.products(ctx, saleSourceLimit), limit)
}

// WarmResult 预热结果
type WarmResult struct {
	Products    int
	Collections int
}

// Warm 绕过缓存重新拉取常用列表并写回缓存，供后台任务调用
func (s *CatalogService) Warm(ctx context.Context) (WarmResult, error) {
	var result WarmResult
	var errs []error
	for _, limit := range []int{defaultProductListLimit, saleSourceLimit, searchSourceLimit} {
		products, err := s.fetcher.FetchProducts(ctx, limit)
		if err != nil {
			s.metrics.IncCatalogFailure("warm_products")
			errs = append(errs, err)
			continue
		}
		if err := cache.SetProducts(ctx, limit, products, s.productTTL); err != nil {
			errs = append(errs, err)
			continue
		}
		for i := range products {
			_ = cache.SetProduct(ctx, &products[i], s.productTTL)
		}
		if len(products) > result.Products {
			result.Products = len(products)
		}
	}
	collections, err := s.fetcher.FetchCollections(ctx, defaultCollectionLimit)
	if err != nil {
		s.metrics.IncCatalogFailure("warm_collections")
		errs = append(errs, err)
	} else if err := cache.SetCollections(ctx, defaultCollectionLimit, collections, s.collectionTTL); err != nil {
		errs = append(errs, err)
	} else {
		result.Collections = len(collections)
	}
	return result, errors.Join(errs...)
}

func (s *CatalogService) products(ctx context.Context, limit int) []catalog.Product {
	products, hit, err := cache.GetProducts(ctx, limit)
	if err != nil {
		s.logger.Warn("catalog_cache_read_failed", zap.String("key", "products"), zap.Error(err))
	}
	s.metrics.ObserveCatalogCache(hit)
	if hit {
		return products
	}
	products, err = s.fetcher.FetchProducts(ctx, limit)
	if err != nil {
		s.degrade("get_products", err, zap.Int("limit", limit))
		return []catalog.Product{}
	}
	if err := cache.SetProducts(ctx, limit, products, s.productTTL); err != nil {
		s.logger.Warn("catalog_cache_write_failed", zap.String("key", "products"), zap.Error(err))
	}
	return products
}

func (s *CatalogService) degrade(operation string, err error, fields ...zap.Field) {
	s.metrics.IncCatalogFailure(operation)
	s.logger.Warn("catalog_fetch_failed",
		append([]zap.Field{zap.String("operation", operation), zap.Error(err)}, fields...)...,
	)
}
