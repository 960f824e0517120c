package public

import (
	"errors"

	"github.com/surf-station/storefront/internal/http/response"
	"github.com/surf-station/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var cartSessionErrorRules = []mappedHandlerError{
	{target: service.ErrSessionMissing, code: response.CodeUnauthorized, key: "error.session_invalid"},
	{target: service.ErrSessionInvalid, code: response.CodeUnauthorized, key: "error.session_invalid"},
}

var cartAddItemErrorRules = append([]mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrVariantNotFound, code: response.CodeNotFound, key: "error.variant_not_found"},
	{target: service.ErrVariantSoldOut, code: response.CodeConflict, key: "error.variant_sold_out"},
}, cartSessionErrorRules...)
