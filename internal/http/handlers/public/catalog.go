package public

import (
	"strings"

	"github.com/surf-station/storefront/internal/catalog"
	handlershared "github.com/surf-station/storefront/internal/http/handlers/shared"
	"github.com/surf-station/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ProductView 公共商品响应结构
type ProductView struct {
	catalog.Product
	FormattedPrice          string `json:"formatted_price"`
	FormattedCompareAtPrice string `json:"formatted_compare_at_price,omitempty"`
	DiscountPercent         int    `json:"discount_percent"`
	OnSale                  bool   `json:"on_sale"`
	Available               bool   `json:"available"`
}

func newProductView(p catalog.Product) ProductView {
	view := ProductView{Product: p, OnSale: p.OnSale()}
	if len(p.Variants) > 0 {
		first := p.Variants[0]
		view.FormattedPrice = catalog.FormatPrice(first.Price)
		if first.OnSale() {
			view.FormattedCompareAtPrice = catalog.FormatPrice(first.CompareAtPrice)
			view.DiscountPercent = catalog.DiscountPercentage(first.Price, first.CompareAtPrice)
		}
	}
	_, view.Available = p.FirstAvailableVariant()
	return view
}

func newProductViews(products []catalog.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	return views
}

// GetProducts 获取商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	products := h.CatalogService.ListProducts(c.Request.Context(), handlershared.QueryLimit(c))
	response.Success(c, gin.H{"items": newProductViews(products)})
}

// GetFeaturedProducts 获取最新上架商品
func (h *Handler) GetFeaturedProducts(c *gin.Context) {
	products := h.CatalogService.FeaturedProducts(c.Request.Context(), handlershared.QueryLimit(c))
	response.Success(c, gin.H{"items": newProductViews(products)})
}

// GetSaleProducts 获取折扣商品
func (h *Handler) GetSaleProducts(c *gin.Context) {
	products := h.CatalogService.SaleProducts(c.Request.Context(), handlershared.QueryLimit(c))
	response.Success(c, gin.H{"items": newProductViews(products)})
}

// GetProductByHandle 获取商品详情
func (h *Handler) GetProductByHandle(c *gin.Context) {
	product := h.CatalogService.GetProduct(c.Request.Context(), c.Param("handle"))
	if product == nil {
		respondError(c, response.CodeNotFound, "error.product_not_found", nil)
		return
	}
	response.Success(c, newProductView(*product))
}

// GetCollections 获取分类列表（可按关键字过滤）
func (h *Handler) GetCollections(c *gin.Context) {
	collections := h.CatalogService.SearchCollections(c.Request.Context(), handlershared.QueryText(c, "q"), handlershared.QueryLimit(c))
	response.Success(c, gin.H{"items": collections})
}

// GetCollectionProducts 获取分类下的商品
func (h *Handler) GetCollectionProducts(c *gin.Context) {
	handle := strings.TrimSpace(c.Param("handle"))
	sortKey := handlershared.QueryText(c, "sort")
	if !catalog.IsValidSort(sortKey) {
		sortKey = catalog.SortFeatured
	}
	products := h.CatalogService.GetProductsByCollection(c.Request.Context(), handle, handlershared.QueryLimit(c), sortKey)
	response.Success(c, gin.H{
		"collection": gin.H{
			"handle": handle,
			"title":  catalog.CollectionTitle(handle),
		},
		"sort":  sortKey,
		"items": newProductViews(products),
	})
}

// SearchProducts 搜索商品
func (h *Handler) SearchProducts(c *gin.Context) {
	query := handlershared.QueryText(c, "q")
	if query == "" {
		response.Success(c, gin.H{"query": query, "items": []ProductView{}})
		return
	}
	products := h.CatalogService.SearchProducts(c.Request.Context(), query, handlershared.QueryLimit(c))
	response.Success(c, gin.H{"query": query, "items": newProductViews(products)})
}
