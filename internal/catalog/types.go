package catalog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product 店铺目录中的商品快照
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Handle      string    `json:"handle"`
	BodyHTML    string    `json:"body_html"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Tags        Tags      `json:"tags"`
	Variants    []Variant `json:"variants"`
	Images      []Image   `json:"images"`
	Options     []Option  `json:"options"`
	PublishedAt string    `json:"published_at"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

// Variant 商品规格（尺码/颜色等可购买组合）
type Variant struct {
	ID             int64  `json:"id"`
	ProductID      int64  `json:"product_id,omitempty"`
	Title          string `json:"title"`
	Option1        string `json:"option1,omitempty"`
	Option2        string `json:"option2,omitempty"`
	Option3        string `json:"option3,omitempty"`
	SKU            string `json:"sku"`
	Price          string `json:"price"`
	CompareAtPrice string `json:"compare_at_price,omitempty"`
	Available      bool   `json:"available"`
	FeaturedImage  *Image `json:"featured_image,omitempty"`
	Grams          int    `json:"grams"`
}

// Image 商品图片
type Image struct {
	ID       int64  `json:"id"`
	Src      string `json:"src"`
	Alt      string `json:"alt,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Position int    `json:"position"`
}

// Option 商品选项定义
type Option struct {
	Name     string   `json:"name"`
	Position int      `json:"position"`
	Values   []string `json:"values"`
}

// Collection 商品集合
type Collection struct {
	ID          int64  `json:"id"`
	Handle      string `json:"handle"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"published_at"`
	SortOrder   string `json:"sort_order"`
}

// Tags 商品标签
// 列表接口返回字符串数组，单品接口返回逗号分隔字符串，两种形式都接受。
type Tags []string

// UnmarshalJSON 解析标签（数组或逗号分隔字符串）
func (t *Tags) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*t = nil
		return nil
	}
	if b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		parts := strings.Split(raw, ",")
		tags := make([]string, 0, len(parts))
		for _, part := range parts {
			if tag := strings.TrimSpace(part); tag != "" {
				tags = append(tags, tag)
			}
		}
		*t = tags
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*t = list
	return nil
}

// VariantByID 按 ID 查找规格
func (p Product) VariantByID(id int64) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// FirstAvailableVariant 返回第一个可售规格，全部售罄时返回 false
func (p Product) FirstAvailableVariant() (Variant, bool) {
	for _, v := range p.Variants {
		if v.Available {
			return v, true
		}
	}
	return Variant{}, false
}

// PrimaryImage 返回首图
func (p Product) PrimaryImage() (Image, bool) {
	if len(p.Images) == 0 {
		return Image{}, false
	}
	return p.Images[0], true
}

// PublishedTime 解析发布时间，无法解析时返回零值
func (p Product) PublishedTime() time.Time {
	return parseTimestamp(p.PublishedAt)
}

// OnSale 是否存在划线价高于售价的规格
func (p Product) OnSale() bool {
	for _, v := range p.Variants {
		if v.OnSale() {
			return true
		}
	}
	return false
}

// PriceAmount 解析售价
func (v Variant) PriceAmount() (decimal.Decimal, error) {
	return ParseAmount(v.Price)
}

// CompareAtAmount 解析划线价，未设置时 ok 为 false
func (v Variant) CompareAtAmount() (decimal.Decimal, bool) {
	if strings.TrimSpace(v.CompareAtPrice) == "" {
		return decimal.Zero, false
	}
	amount, err := ParseAmount(v.CompareAtPrice)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// OnSale 划线价高于售价
func (v Variant) OnSale() bool {
	compareAt, ok := v.CompareAtAmount()
	if !ok {
		return false
	}
	price, err := v.PriceAmount()
	if err != nil {
		return false
	}
	return compareAt.GreaterThan(price)
}

// ParseAmount 解析十进制金额字符串
func ParseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
