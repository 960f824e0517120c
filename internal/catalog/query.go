package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// 商品排序方式
const (
	SortFeatured  = "featured"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortNameAZ    = "name-az"
	SortNameZA    = "name-za"
)

// IsValidSort 判断排序方式是否受支持
func IsValidSort(key string) bool {
	switch key {
	case SortFeatured, SortPriceLow, SortPriceHigh, SortNewest, SortOldest, SortNameAZ, SortNameZA:
		return true
	default:
		return false
	}
}

// SortProducts 返回排序后的副本，未知排序方式保持原顺序
func SortProducts(products []Product, key string) []Product {
	sorted := make([]Product, len(products))
	copy(sorted, products)

	var less func(a, b Product) bool
	switch strings.TrimSpace(key) {
	case SortPriceLow:
		less = func(a, b Product) bool { return firstVariantPrice(a).LessThan(firstVariantPrice(b)) }
	case SortPriceHigh:
		less = func(a, b Product) bool { return firstVariantPrice(a).GreaterThan(firstVariantPrice(b)) }
	case SortNewest:
		less = func(a, b Product) bool { return a.PublishedTime().After(b.PublishedTime()) }
	case SortOldest:
		less = func(a, b Product) bool { return a.PublishedTime().Before(b.PublishedTime()) }
	case SortNameAZ:
		less = func(a, b Product) bool { return compareTitle(a.Title, b.Title) < 0 }
	case SortNameZA:
		less = func(a, b Product) bool { return compareTitle(a.Title, b.Title) > 0 }
	default:
		return sorted
	}
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted
}

// MatchesQuery 标题、标签、类型、品牌任一包含关键字（忽略大小写）
func MatchesQuery(p Product, query string) bool {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.ProductType), term) ||
		strings.Contains(strings.ToLower(p.Vendor), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// FilterProducts 按关键字过滤并截断
func FilterProducts(products []Product, query string, limit int) []Product {
	result := make([]Product, 0)
	for _, p := range products {
		if limit > 0 && len(result) >= limit {
			break
		}
		if MatchesQuery(p, query) {
			result = append(result, p)
		}
	}
	return result
}

// SaleProducts 过滤出有折扣的商品
func SaleProducts(products []Product, limit int) []Product {
	result := make([]Product, 0)
	for _, p := range products {
		if limit > 0 && len(result) >= limit {
			break
		}
		if p.OnSale() {
			result = append(result, p)
		}
	}
	return result
}

// NewestProducts 按发布时间倒序取前 limit 个
func NewestProducts(products []Product, limit int) []Product {
	sorted := SortProducts(products, SortNewest)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// FilterCollections 按标题或描述过滤集合，空关键字返回全部
func FilterCollections(collections []Collection, query string) []Collection {
	term := strings.ToLower(strings.TrimSpace(query))
	result := make([]Collection, 0, len(collections))
	for _, c := range collections {
		if term == "" ||
			strings.Contains(strings.ToLower(c.Title), term) ||
			strings.Contains(strings.ToLower(c.Description), term) {
			result = append(result, c)
		}
	}
	return result
}

func firstVariantPrice(p Product) decimal.Decimal {
	if len(p.Variants) == 0 {
		return decimal.Zero
	}
	price, err := p.Variants[0].PriceAmount()
	if err != nil {
		return decimal.Zero
	}
	return price
}

func compareTitle(a, b string) int {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return strings.Compare(la, lb)
	}
	return strings.Compare(a, b)
}
