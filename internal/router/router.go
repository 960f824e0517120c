package router

import (
	"fmt"
	"strings"

	"github.com/surf-station/storefront/internal/cache"
	"github.com/surf-station/storefront/internal/config"
	"github.com/surf-station/storefront/internal/constants"
	publichandlers "github.com/surf-station/storefront/internal/http/handlers/public"
	handlershared "github.com/surf-station/storefront/internal/http/handlers/shared"
	"github.com/surf-station/storefront/internal/logger"
	"github.com/surf-station/storefront/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sf"
	}
	redisClient := cache.Client()
	searchRule := NewRateLimitRule(fmt.Sprintf("%s:rate:search", redisPrefix), cfg.Security.SearchRateLimit)
	cartWriteRule := NewRateLimitRule(fmt.Sprintf("%s:rate:cart", redisPrefix), cfg.Security.CartWriteRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS, cfg.Session.Header))
	if cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware(c.Metrics))
	}

	apiV1 := r.Group("/api/v1")
	{
		// 商品目录（只读）
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/featured", publicHandler.GetFeaturedProducts)
			public.GET("/products/sale", publicHandler.GetSaleProducts)
			public.GET("/products/:handle", publicHandler.GetProductByHandle)
			public.GET("/collections", publicHandler.GetCollections)
			public.GET("/collections/:handle/products", publicHandler.GetCollectionProducts)
			public.GET("/search", RateLimitMiddleware(redisClient, searchRule, KeyByIP), publicHandler.SearchProducts)
		}

		// 购物车（会话令牌）
		cartGroup := apiV1.Group("/cart")
		cartGroup.Use(CartSessionMiddleware(c.SessionTokens, CartSessionOptions{
			Header: cfg.Session.Header,
			Cookie: cfg.Session.Cookie,
			Secure: cfg.Server.Mode == "release",
		}, logger.Named(constants.ComponentAPI)))
		{
			writeLimit := RateLimitMiddleware(redisClient, cartWriteRule, KeyByContextValue(handlershared.SessionIDKey))
			cartGroup.GET("", publicHandler.GetCart)
			cartGroup.DELETE("", writeLimit, publicHandler.ClearCart)
			cartGroup.POST("/items", writeLimit, publicHandler.AddCartItem)
			cartGroup.PUT("/items/:item_id", writeLimit, publicHandler.UpdateCartItem)
			cartGroup.DELETE("/items/:item_id", writeLimit, publicHandler.RemoveCartItem)
			cartGroup.POST("/toggle", publicHandler.ToggleCart)
			cartGroup.POST("/open", publicHandler.OpenCart)
			cartGroup.POST("/close", publicHandler.CloseCart)
		}
	}

	if cfg.Metrics.Enabled {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})))
	}

	// 健康检查
	r.GET("/healthz", HealthHandler(c))

	return r
}
