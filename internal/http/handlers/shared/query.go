package shared

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// QueryLimit 读取 limit 参数，缺失或非法时返回 0（由服务层使用默认值）。
func QueryLimit(c *gin.Context) int {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// QueryText 读取并裁剪文本查询参数。
func QueryText(c *gin.Context, key string) string {
	return strings.TrimSpace(c.Query(key))
}
