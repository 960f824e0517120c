package router

import (
	"context"
	"time"

	"github.com/surf-station/storefront/internal/cache"
	"github.com/surf-station/storefront/internal/http/response"
	"github.com/surf-station/storefront/internal/models"
	"github.com/surf-station/storefront/internal/provider"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler 检查数据库与 Redis 连通性
func HealthHandler(c *provider.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), healthCheckTimeout)
		defer cancel()

		checks := gin.H{}
		healthy := true
		if models.DB != nil {
			if err := models.Ping(checkCtx); err != nil {
				checks["database"] = err.Error()
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if cache.Enabled() {
			if err := cache.Ping(checkCtx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}
		if c != nil && c.CartSessions != nil {
			checks["cart_sessions"] = c.CartSessions.Len()
			checks["cart_backend"] = c.CartPersistBackend
		}
		if !healthy {
			response.Unavailable(ctx, response.Message("error.unhealthy"), checks)
			return
		}
		checks["status"] = "ok"
		response.Success(ctx, checks)
	}
}
