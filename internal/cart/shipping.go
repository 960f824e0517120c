package cart

import "github.com/shopspring/decimal"

// DefaultFreeShippingThreshold 默认包邮门槛
var DefaultFreeShippingThreshold = decimal.NewFromInt(75)

var hundred = decimal.NewFromInt(100)

// FreeShipping 包邮进度
type FreeShipping struct {
	Threshold       decimal.Decimal `json:"threshold"`
	Remaining       decimal.Decimal `json:"remaining"`
	Qualified       bool            `json:"qualified"`
	ProgressPercent decimal.Decimal `json:"progress_percent"`
}

// FreeShippingProgress 计算距离包邮门槛还差多少
// 门槛 <= 0 视为无门槛，直接满足。
func FreeShippingProgress(s Snapshot, threshold decimal.Decimal) FreeShipping {
	if !threshold.IsPositive() {
		return FreeShipping{
			Threshold:       decimal.Zero,
			Remaining:       decimal.Zero,
			Qualified:       true,
			ProgressPercent: hundred,
		}
	}
	remaining := threshold.Sub(s.TotalPrice)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	progress := s.TotalPrice.Div(threshold).Mul(hundred)
	if progress.GreaterThan(hundred) {
		progress = hundred
	}
	if progress.IsNegative() {
		progress = decimal.Zero
	}
	return FreeShipping{
		Threshold:       threshold,
		Remaining:       remaining,
		Qualified:       remaining.IsZero(),
		ProgressPercent: progress.Round(2),
	}
}
