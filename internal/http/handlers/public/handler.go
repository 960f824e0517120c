package public

import "github.com/surf-station/storefront/internal/provider"

// Handler 前台/公开接口处理器入口
// 说明：商品目录为只读接口，购物车接口依赖会话中间件写入的会话标识。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
