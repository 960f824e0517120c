package response

import (
	"fmt"
	"strings"
)

// 提示文案，key 与前端约定保持一致
var messages = map[string]string{
	"error.bad_request":            "invalid request",
	"error.not_found":              "resource not found",
	"error.internal":               "internal server error",
	"error.product_not_found":      "product not found",
	"error.variant_not_found":      "variant not found",
	"error.variant_sold_out":       "variant is sold out",
	"error.quantity_invalid":       "quantity must be a positive integer",
	"error.quantity_limit":         "quantity exceeds the per-line limit of %d",
	"error.item_id_invalid":        "cart item id is invalid",
	"error.session_invalid":        "cart session is invalid",
	"error.session_issue_failed":   "failed to start cart session",
	"error.cart_unavailable":       "cart is temporarily unavailable",
	"error.sort_invalid":           "unsupported sort option",
	"error.rate_limited":           "too many requests, retry in %d seconds",
	"error.rate_limit_unavailable": "rate limiter unavailable",
	"error.unhealthy":              "service unhealthy",
}

// Message 按 key 获取提示文案，未登记的 key 原样返回
func Message(key string) string {
	key = strings.TrimSpace(key)
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}

// Messagef 按 key 获取并格式化提示文案
func Messagef(key string, args ...interface{}) string {
	return fmt.Sprintf(Message(key), args...)
}
