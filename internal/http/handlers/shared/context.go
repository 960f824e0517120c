package shared

import (
	"strings"

	"github.com/surf-station/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SessionIDKey 购物车会话标识在上下文中的键
const SessionIDKey = "cart_session_id"

// GetSessionID 读取会话中间件写入的购物车会话标识，缺失时直接响应错误。
func GetSessionID(c *gin.Context) (string, bool) {
	sessionID := strings.TrimSpace(c.GetString(SessionIDKey))
	if sessionID == "" {
		RespondError(c, response.CodeUnauthorized, "error.session_invalid", nil)
		return "", false
	}
	return sessionID, true
}
