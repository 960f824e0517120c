package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/surf-station/storefront/internal/catalog"
)

func productsKey(limit int) string {
	return fmt.Sprintf("catalog:products:%d", limit)
}

func productKey(handle string) string {
	return fmt.Sprintf("catalog:product:%s", strings.ToLower(strings.TrimSpace(handle)))
}

func collectionProductsKey(handle string, limit int) string {
	return fmt.Sprintf("catalog:collection:%s:%d", strings.ToLower(strings.TrimSpace(handle)), limit)
}

func collectionsKey(limit int) string {
	return fmt.Sprintf("catalog:collections:%d", limit)
}

// GetProducts 读取商品列表缓存
func GetProducts(ctx context.Context, limit int) ([]catalog.Product, bool, error) {
	var products []catalog.Product
	hit, err := GetJSON(ctx, productsKey(limit), &products)
	if err != nil || !hit {
		return nil, false, err
	}
	return products, true, nil
}

// SetProducts 写入商品列表缓存
func SetProducts(ctx context.Context, limit int, products []catalog.Product, ttl time.Duration) error {
	return SetJSON(ctx, productsKey(limit), products, ttl)
}

// GetProduct 读取单个商品缓存
func GetProduct(ctx context.Context, handle string) (*catalog.Product, bool, error) {
	var product catalog.Product
	hit, err := GetJSON(ctx, productKey(handle), &product)
	if err != nil || !hit {
		return nil, false, err
	}
	return &product, true, nil
}

// SetProduct 写入单个商品缓存
func SetProduct(ctx context.Context, product *catalog.Product, ttl time.Duration) error {
	if product == nil || strings.TrimSpace(product.Handle) == "" {
		return nil
	}
	return SetJSON(ctx, productKey(product.Handle), product, ttl)
}

// GetCollectionProducts 读取分类商品缓存
func GetCollectionProducts(ctx context.Context, handle string, limit int) ([]catalog.Product, bool, error) {
	var products []catalog.Product
	hit, err := GetJSON(ctx, collectionProductsKey(handle, limit), &products)
	if err != nil || !hit {
		return nil, false, err
	}
	return products, true, nil
}

// SetCollectionProducts 写入分类商品缓存
func SetCollectionProducts(ctx context.Context, handle string, limit int, products []catalog.Product, ttl time.Duration) error {
	return SetJSON(ctx, collectionProductsKey(handle, limit), products, ttl)
}

// GetCollections 读取分类列表缓存
func GetCollections(ctx context.Context, limit int) ([]catalog.Collection, bool, error) {
	var collections []catalog.Collection
	hit, err := GetJSON(ctx, collectionsKey(limit), &collections)
	if err != nil || !hit {
		return nil, false, err
	}
	return collections, true, nil
}

// SetCollections 写入分类列表缓存
func SetCollections(ctx context.Context, limit int, collections []catalog.Collection, ttl time.Duration) error {
	return SetJSON(ctx, collectionsKey(limit), collections, ttl)
}
