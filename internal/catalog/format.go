package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatPrice 格式化为美元金额，例如 "1234.5" -> "$1,234.50"
func FormatPrice(raw string) string {
	amount, err := ParseAmount(raw)
	if err != nil {
		amount = decimal.Zero
	}
	return FormatAmount(amount)
}

// FormatAmount 格式化 decimal 金额
func FormatAmount(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(2)
	intPart, fracPart := fixed, "00"
	if idx := strings.IndexByte(fixed, '.'); idx >= 0 {
		intPart, fracPart = fixed[:idx], fixed[idx+1:]
	}
	return sign + "$" + groupThousands(intPart) + "." + fracPart
}

// DiscountPercentage 计算折扣百分比（四舍五入），无折扣时返回 0
func DiscountPercentage(price, compareAtPrice string) int {
	sale, err := ParseAmount(price)
	if err != nil {
		return 0
	}
	original, err := ParseAmount(compareAtPrice)
	if err != nil || !original.IsPositive() || !original.GreaterThan(sale) {
		return 0
	}
	pct := original.Sub(sale).Div(original).Mul(hundred).Round(0)
	return int(pct.IntPart())
}

// CollectionTitle 由 handle 推导展示标题，例如 "surf-boards" -> "Surf Boards"
func CollectionTitle(handle string) string {
	parts := strings.Split(strings.TrimSpace(handle), "-")
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		words = append(words, strings.ToUpper(part[:1])+part[1:])
	}
	return strings.Join(words, " ")
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
