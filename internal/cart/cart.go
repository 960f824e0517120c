package cart

import (
	"fmt"
	"time"

	"github.com/surf-station/storefront/internal/catalog"

	"github.com/shopspring/decimal"
)

// LineItem 购物车行项目，以 (商品ID, 规格ID) 唯一标识
// Product/Variant 为加入购物车时的目录快照，之后不再刷新。
type LineItem struct {
	ID       string          `json:"id"`
	Product  catalog.Product `json:"product"`
	Variant  catalog.Variant `json:"variant"`
	Quantity int             `json:"quantity"`
	AddedAt  time.Time       `json:"added_at"`
}

// Snapshot 购物车完整状态（行项目 + 汇总 + 展开状态）
type Snapshot struct {
	Items         []LineItem      `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	IsOpen        bool            `json:"is_open"`
}

// LineKey 生成行项目标识
func LineKey(productID, variantID int64) string {
	return fmt.Sprintf("%d-%d", productID, variantID)
}

// Empty 返回空购物车
func Empty() Snapshot {
	return Snapshot{Items: []LineItem{}, TotalPrice: decimal.Zero}
}

// Find 按标识查找行项目
func (s Snapshot) Find(itemID string) (LineItem, bool) {
	for _, item := range s.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return LineItem{}, false
}

// IsEmpty 是否没有行项目
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Clone 深拷贝，调用方拿到的快照与存储内部状态互不影响
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Items = make([]LineItem, len(s.Items))
	for i, item := range s.Items {
		item.Product = cloneProduct(item.Product)
		if item.Variant.FeaturedImage != nil {
			img := *item.Variant.FeaturedImage
			item.Variant.FeaturedImage = &img
		}
		out.Items[i] = item
	}
	return out
}

// UnitPrice 行项目单价，价格无法解析时按 0 计
func (item LineItem) UnitPrice() decimal.Decimal {
	price, err := item.Variant.PriceAmount()
	if err != nil {
		return decimal.Zero
	}
	return price
}

// LineTotal 行项目小计
func (item LineItem) LineTotal() decimal.Decimal {
	return item.UnitPrice().Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// CompareAtTotal 划线价小计，仅在划线价高于售价时返回
func (item LineItem) CompareAtTotal() (decimal.Decimal, bool) {
	if !item.Variant.OnSale() {
		return decimal.Zero, false
	}
	compareAt, _ := item.Variant.CompareAtAmount()
	return compareAt.Mul(decimal.NewFromInt(int64(item.Quantity))), true
}

// Totals 汇总数量与金额（每次都完整重算）
func Totals(items []LineItem) (int, decimal.Decimal) {
	quantity := 0
	price := decimal.Zero
	for _, item := range items {
		quantity += item.Quantity
		price = price.Add(item.LineTotal())
	}
	return quantity, price
}

// UnpricedItems 价格无法解析的行项目
func UnpricedItems(items []LineItem) []LineItem {
	var out []LineItem
	for _, item := range items {
		if _, err := item.Variant.PriceAmount(); err != nil {
			out = append(out, item)
		}
	}
	return out
}

func cloneProduct(p catalog.Product) catalog.Product {
	if p.Tags != nil {
		p.Tags = append(catalog.Tags(nil), p.Tags...)
	}
	if p.Variants != nil {
		p.Variants = append([]catalog.Variant(nil), p.Variants...)
	}
	if p.Images != nil {
		p.Images = append([]catalog.Image(nil), p.Images...)
	}
	if p.Options != nil {
		options := make([]catalog.Option, len(p.Options))
		for i, opt := range p.Options {
			opt.Values = append([]string(nil), opt.Values...)
			options[i] = opt
		}
		p.Options = options
	}
	return p
}
