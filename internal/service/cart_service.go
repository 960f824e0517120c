package service

import (
	"context"
	"strings"
	"time"

	"github.com/surf-station/storefront/internal/cart"
	"github.com/surf-station/storefront/internal/catalog"
	"github.com/surf-station/storefront/internal/models"

	"github.com/shopspring/decimal"
)

// CartItemView 购物车行项目（用于响应）
type CartItemView struct {
	ID             string        `json:"id"`
	ProductID      int64         `json:"product_id"`
	ProductHandle  string        `json:"product_handle"`
	ProductTitle   string        `json:"product_title"`
	Vendor         string        `json:"vendor,omitempty"`
	VariantID      int64         `json:"variant_id"`
	VariantTitle   string        `json:"variant_title"`
	ImageURL       string        `json:"image_url,omitempty"`
	Quantity       int           `json:"quantity"`
	UnitPrice      models.Money  `json:"unit_price"`
	LineTotal      models.Money  `json:"line_total"`
	CompareAtTotal *models.Money `json:"compare_at_total,omitempty"`
	AddedAt        time.Time     `json:"added_at"`
}

// FreeShippingView 包邮进度（用于响应）
type FreeShippingView struct {
	Threshold       models.Money    `json:"threshold"`
	Remaining       models.Money    `json:"remaining"`
	Qualified       bool            `json:"qualified"`
	ProgressPercent decimal.Decimal `json:"progress_percent"`
}

// CartView 购物车（用于响应）
type CartView struct {
	Items          []CartItemView   `json:"items"`
	TotalQuantity  int              `json:"total_quantity"`
	TotalPrice     models.Money     `json:"total_price"`
	FormattedTotal string           `json:"formatted_total"`
	IsOpen         bool             `json:"is_open"`
	FreeShipping   FreeShippingView `json:"free_shipping"`
}

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	SessionID     string
	ProductHandle string
	VariantID     int64
	Quantity      int
}

// CartServiceOptions 购物车服务参数
type CartServiceOptions struct {
	FreeShippingThreshold decimal.Decimal
	MaxLineQuantity       int
}

// CartService 购物车服务
type CartService struct {
	sessions        *CartSessionService
	catalog         ProductLookup
	threshold       decimal.Decimal
	maxLineQuantity int
}

// ProductLookup 按 handle 查询商品
type ProductLookup interface {
	GetProduct(ctx context.Context, handle string) *catalog.Product
}

// NewCartService 创建购物车服务
func NewCartService(sessions *CartSessionService, lookup ProductLookup, opts CartServiceOptions) *CartService {
	return &CartService{
		sessions:        sessions,
		catalog:         lookup,
		threshold:       opts.FreeShippingThreshold,
		maxLineQuantity: opts.MaxLineQuantity,
	}
}

// MaxLineQuantity 单行数量上限，0 表示不限制
func (s *CartService) MaxLineQuantity() int {
	return s.maxLineQuantity
}

// Get 获取购物车
func (s *CartService) Get(ctx context.Context, sessionID string) (*CartView, error) {
	store, err := s.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(store.Snapshot()), nil
}

// AddItem 加入商品（商品与规格以目录当前数据为准），数量 < 1 时购物车保持不变
func (s *CartService) AddItem(ctx context.Context, input AddCartItemInput) (*CartView, error) {
	handle := strings.TrimSpace(input.ProductHandle)
	if handle == "" {
		return nil, ErrProductNotFound
	}
	store, err := s.sessions.Acquire(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	product := s.catalog.GetProduct(ctx, handle)
	if product == nil {
		return nil, ErrProductNotFound
	}

	var variant catalog.Variant
	var ok bool
	if input.VariantID > 0 {
		variant, ok = product.VariantByID(input.VariantID)
	} else {
		variant, ok = product.FirstAvailableVariant()
	}
	if !ok {
		return nil, ErrVariantNotFound
	}
	if !variant.Available {
		return nil, ErrVariantSoldOut
	}
	return s.view(store.AddItem(*product, variant, input.Quantity)), nil
}

// UpdateQuantity 设置数量，<= 0 删除该行，行不存在时保持不变；超过上限时拒绝
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*CartView, error) {
	if s.maxLineQuantity > 0 && quantity > s.maxLineQuantity {
		return nil, ErrQuantityLimit
	}
	store, err := s.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(store.UpdateQuantity(itemID, quantity)), nil
}

// RemoveItem 删除行项目，不存在时保持不变
func (s *CartService) RemoveItem(ctx context.Context, sessionID, itemID string) (*CartView, error) {
	store, err := s.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(store.RemoveItem(itemID)), nil
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, sessionID string) (*CartView, error) {
	return s.apply(ctx, sessionID, (*cart.Store).ClearCart)
}

// Toggle 切换展开状态
func (s *CartService) Toggle(ctx context.Context, sessionID string) (*CartView, error) {
	return s.apply(ctx, sessionID, (*cart.Store).ToggleCart)
}

// Open 展开
func (s *CartService) Open(ctx context.Context, sessionID string) (*CartView, error) {
	return s.apply(ctx, sessionID, (*cart.Store).OpenCart)
}

// Close 收起
func (s *CartService) Close(ctx context.Context, sessionID string) (*CartView, error) {
	return s.apply(ctx, sessionID, (*cart.Store).CloseCart)
}

func (s *CartService) apply(ctx context.Context, sessionID string, op func(*cart.Store) cart.Snapshot) (*CartView, error) {
	store, err := s.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(op(store)), nil
}

func (s *CartService) view(snapshot cart.Snapshot) *CartView {
	items := make([]CartItemView, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		row := CartItemView{
			ID:            item.ID,
			ProductID:     item.Product.ID,
			ProductHandle: item.Product.Handle,
			ProductTitle:  item.Product.Title,
			Vendor:        item.Product.Vendor,
			VariantID:     item.Variant.ID,
			VariantTitle:  item.Variant.Title,
			Quantity:      item.Quantity,
			UnitPrice:     models.NewMoneyFromDecimal(item.UnitPrice()),
			LineTotal:     models.NewMoneyFromDecimal(item.LineTotal()),
			AddedAt:       item.AddedAt,
		}
		if item.Variant.FeaturedImage != nil && item.Variant.FeaturedImage.Src != "" {
			row.ImageURL = item.Variant.FeaturedImage.Src
		} else if img, ok := item.Product.PrimaryImage(); ok {
			row.ImageURL = img.Src
		}
		if compareAt, ok := item.CompareAtTotal(); ok {
			money := models.NewMoneyFromDecimal(compareAt)
			row.CompareAtTotal = &money
		}
		items = append(items, row)
	}

	shipping := cart.FreeShippingProgress(snapshot, s.threshold)
	return &CartView{
		Items:          items,
		TotalQuantity:  snapshot.TotalQuantity,
		TotalPrice:     models.NewMoneyFromDecimal(snapshot.TotalPrice),
		FormattedTotal: catalog.FormatAmount(snapshot.TotalPrice),
		IsOpen:         snapshot.IsOpen,
		FreeShipping: FreeShippingView{
			Threshold:       models.NewMoneyFromDecimal(shipping.Threshold),
			Remaining:       models.NewMoneyFromDecimal(shipping.Remaining),
			Qualified:       shipping.Qualified,
			ProgressPercent: shipping.ProgressPercent,
		},
	}
}
