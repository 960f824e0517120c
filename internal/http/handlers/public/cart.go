package public

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/surf-station/storefront/internal/http/response"
	"github.com/surf-station/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ProductHandle string `json:"product_handle" binding:"required"`
	VariantID     int64  `json:"variant_id"`
	Quantity      *int   `json:"quantity"`
}

// UpdateCartItemRequest 修改数量请求
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	view, err := h.CartService.Get(c.Request.Context(), sid)
	if err != nil {
		respondWithMappedError(c, err, cartSessionErrorRules, response.CodeInternal, "error.cart_unavailable")
		return
	}
	response.Success(c, view)
}

// AddCartItem 加入购物车（同一规格合并数量）
func (h *Handler) AddCartItem(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 {
		respondError(c, response.CodeBadRequest, "error.quantity_invalid", nil)
		return
	}
	view, err := h.CartService.AddItem(c.Request.Context(), service.AddCartItemInput{
		SessionID:     sid,
		ProductHandle: req.ProductHandle,
		VariantID:     req.VariantID,
		Quantity:      quantity,
	})
	if err != nil {
		respondWithMappedError(c, err, cartAddItemErrorRules, response.CodeInternal, "error.cart_unavailable")
		return
	}
	response.Success(c, view)
}

// UpdateCartItem 修改行数量，<= 0 时删除该行
func (h *Handler) UpdateCartItem(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	view, err := h.CartService.UpdateQuantity(c.Request.Context(), sid, itemID, *req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrQuantityLimit) {
			response.Error(c, response.CodeBadRequest, response.Messagef("error.quantity_limit", h.CartService.MaxLineQuantity()))
			return
		}
		respondWithMappedError(c, err, cartSessionErrorRules, response.CodeInternal, "error.cart_unavailable")
		return
	}
	response.Success(c, view)
}

// RemoveCartItem 删除行项目
func (h *Handler) RemoveCartItem(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}
	view, err := h.CartService.RemoveItem(c.Request.Context(), sid, itemID)
	if err != nil {
		respondWithMappedError(c, err, cartSessionErrorRules, response.CodeInternal, "error.cart_unavailable")
		return
	}
	response.Success(c, view)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	h.applyCartOperation(c, h.CartService.Clear)
}

// ToggleCart 切换购物车展开状态
func (h *Handler) ToggleCart(c *gin.Context) {
	h.applyCartOperation(c, h.CartService.Toggle)
}

// OpenCart 展开购物车
func (h *Handler) OpenCart(c *gin.Context) {
	h.applyCartOperation(c, h.CartService.Open)
}

// CloseCart 收起购物车
func (h *Handler) CloseCart(c *gin.Context) {
	h.applyCartOperation(c, h.CartService.Close)
}

func (h *Handler) applyCartOperation(c *gin.Context, op func(ctx context.Context, sessionID string) (*service.CartView, error)) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	view, err := op(c.Request.Context(), sid)
	if err != nil {
		respondWithMappedError(c, err, cartSessionErrorRules, response.CodeInternal, "error.cart_unavailable")
		return
	}
	response.Success(c, view)
}

var itemIDPattern = regexp.MustCompile(`^[0-9]+-[0-9]+$`)

// parseItemID 行项目标识格式为 "<product_id>-<variant_id>"，与 cart.LineKey 一致
func parseItemID(c *gin.Context) (string, bool) {
	itemID := strings.TrimSpace(c.Param("item_id"))
	if !itemIDPattern.MatchString(itemID) {
		respondError(c, response.CodeBadRequest, "error.item_id_invalid", nil)
		return "", false
	}
	return itemID, true
}
