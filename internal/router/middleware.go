package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/surf-station/storefront/internal/config"
	handlershared "github.com/surf-station/storefront/internal/http/handlers/shared"
	"github.com/surf-station/storefront/internal/http/response"
	"github.com/surf-station/storefront/internal/metrics"
	"github.com/surf-station/storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = response.RequestIDKey
const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件，sessionHeader 需要对前端可读可写
func CORSMiddleware(cfg config.CORSConfig, sessionHeader string) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := append([]string(nil), cfg.AllowedHeaders...)
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Cache-Control",
			"X-Requested-With",
			"X-Request-ID",
		}
	}
	exposedHeaders := []string{requestIDHeader}
	if sessionHeader = strings.TrimSpace(sessionHeader); sessionHeader != "" {
		allowedHeaders = append(allowedHeaders, sessionHeader)
		exposedHeaders = append(exposedHeaders, sessionHeader)
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")
	exposeHeader := strings.Join(exposedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", exposeHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// MetricsMiddleware 按路由模板记录请求数与耗时
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// CartSessionOptions 购物车会话中间件参数
type CartSessionOptions struct {
	Header string
	Cookie string
	Secure bool
}

// CartSessionMiddleware 解析购物车会话令牌，缺失或失效时签发新会话
// 新令牌同时写入响应头与 Cookie，会话标识写入上下文供 handler 读取。
func CartSessionMiddleware(tokens *service.SessionTokenService, opts CartSessionOptions, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	header := strings.TrimSpace(opts.Header)
	if header == "" {
		header = "X-Cart-Session"
	}
	cookie := strings.TrimSpace(opts.Cookie)
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(header))
		if token == "" && cookie != "" {
			if value, err := c.Cookie(cookie); err == nil {
				token = strings.TrimSpace(value)
			}
		}
		if token != "" {
			sessionID, err := tokens.Parse(token)
			if err == nil {
				c.Set(handlershared.SessionIDKey, sessionID)
				c.Next()
				return
			}
			logger.Debug("cart_session_token_rejected",
				zap.String("request_id", getRequestID(c)),
				zap.Error(err),
			)
		}

		sessionID := service.NewSessionID()
		issued, expiresAt, err := tokens.Issue(sessionID)
		if err != nil {
			logger.Error("cart_session_issue_failed", zap.String("request_id", getRequestID(c)), zap.Error(err))
			handlershared.RespondError(c, response.CodeInternal, "error.session_issue_failed", nil)
			c.Abort()
			return
		}
		c.Writer.Header().Set(header, issued)
		if cookie != "" {
			maxAge := int(time.Until(expiresAt).Seconds())
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookie, issued, maxAge, "/", "", opts.Secure, true)
		}
		c.Set(handlershared.SessionIDKey, sessionID)
		logger.Debug("cart_session_issued",
			zap.String("request_id", getRequestID(c)),
			zap.String("session_id", sessionID),
		)
		c.Next()
	}
}

