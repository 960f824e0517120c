package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surf-station/storefront/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// 持久化后端
const (
	PersistenceDriverDatabase = "database"
	PersistenceDriverRedis    = "redis"
	PersistenceDriverMemory   = "memory"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Cart     CartConfig     `mapstructure:"cart"`
	Session  SessionConfig  `mapstructure:"session"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	SearchRateLimit    RateLimitConfig `mapstructure:"search_rate_limit"`
	CartWriteRateLimit RateLimitConfig `mapstructure:"cart_write_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// CatalogConfig 商品目录配置
type CatalogConfig struct {
	BaseURL                   string `mapstructure:"base_url"`
	TimeoutSeconds            int    `mapstructure:"timeout_seconds"`
	UserAgent                 string `mapstructure:"user_agent"`
	ProductCacheTTLSeconds    int    `mapstructure:"product_cache_ttl_seconds"`
	CollectionCacheTTLSeconds int    `mapstructure:"collection_cache_ttl_seconds"`
	WarmIntervalSeconds       int    `mapstructure:"warm_interval_seconds"`
}

// Timeout 单次请求超时
func (c CatalogConfig) Timeout() time.Duration {
	return secondsOr(c.TimeoutSeconds, 10*time.Second)
}

// ProductCacheTTL 商品缓存时长
func (c CatalogConfig) ProductCacheTTL() time.Duration {
	return secondsOr(c.ProductCacheTTLSeconds, 300*time.Second)
}

// CollectionCacheTTL 分类缓存时长
func (c CatalogConfig) CollectionCacheTTL() time.Duration {
	return secondsOr(c.CollectionCacheTTLSeconds, 600*time.Second)
}

// WarmInterval 预热周期
func (c CatalogConfig) WarmInterval() time.Duration {
	return secondsOr(c.WarmIntervalSeconds, 300*time.Second)
}

// CartConfig 购物车配置
type CartConfig struct {
	StorageKey            string                `mapstructure:"storage_key"`
	FreeShippingThreshold string                `mapstructure:"free_shipping_threshold"`
	MaxLineQuantity       int                   `mapstructure:"max_line_quantity"`
	SessionIdleMinutes    int                   `mapstructure:"session_idle_minutes"`
	SnapshotRetentionDays int                   `mapstructure:"snapshot_retention_days"`
	PersistTimeoutMS      int                   `mapstructure:"persist_timeout_ms"`
	Persistence           CartPersistenceConfig `mapstructure:"persistence"`
}

// CartPersistenceConfig 购物车持久化配置
type CartPersistenceConfig struct {
	Driver        string `mapstructure:"driver"` // database / redis / memory
	RedisTTLHours int    `mapstructure:"redis_ttl_hours"`
}

// FreeShippingAmount 包邮门槛金额，解析失败按 0（视为无门槛）
func (c CartConfig) FreeShippingAmount() decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(c.FreeShippingThreshold))
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// SessionIdle 会话空闲回收时长
func (c CartConfig) SessionIdle() time.Duration {
	if c.SessionIdleMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// SnapshotRetention 快照保留时长
func (c CartConfig) SnapshotRetention() time.Duration {
	if c.SnapshotRetentionDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.SnapshotRetentionDays) * 24 * time.Hour
}

// PersistTimeout 单次写入超时
func (c CartConfig) PersistTimeout() time.Duration {
	if c.PersistTimeoutMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.PersistTimeoutMS) * time.Millisecond
}

// RedisTTL Redis 快照过期时长，0 表示不过期
func (c CartPersistenceConfig) RedisTTL() time.Duration {
	if c.RedisTTLHours <= 0 {
		return 0
	}
	return time.Duration(c.RedisTTLHours) * time.Hour
}

// SessionConfig 购物车会话令牌配置
type SessionConfig struct {
	Secret   string `mapstructure:"secret"`
	TTLHours int    `mapstructure:"ttl_hours"`
	Header   string `mapstructure:"header"`
	Cookie   string `mapstructure:"cookie"`
}

// TTL 令牌有效期
func (c SessionConfig) TTL() time.Duration {
	if c.TTLHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.TTLHours) * time.Hour
}

// Validate 校验关键配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	switch strings.ToLower(strings.TrimSpace(c.Cart.Persistence.Driver)) {
	case PersistenceDriverDatabase, PersistenceDriverMemory:
	case PersistenceDriverRedis:
		if !c.Redis.Enabled {
			return errors.New("cart.persistence.driver=redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("unsupported cart.persistence.driver: %s", c.Cart.Persistence.Driver)
	}
	if strings.TrimSpace(c.Cart.StorageKey) == "" {
		return errors.New("cart.storage_key is required")
	}
	if c.Cart.MaxLineQuantity < 0 {
		return errors.New("cart.max_line_quantity must not be negative")
	}
	if strings.TrimSpace(c.Cart.FreeShippingThreshold) != "" {
		if _, err := decimal.NewFromString(strings.TrimSpace(c.Cart.FreeShippingThreshold)); err != nil {
			return fmt.Errorf("cart.free_shipping_threshold invalid: %w", err)
		}
	}
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("session.secret is required")
	}
	return nil
}

// Load 从 config.yml 加载配置
func Load() *Config {
	v := viper.GetViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")     // 从当前目录查找
	v.AddConfigPath("../")   // 如果从 cmd/server 运行
	v.AddConfigPath("./etc") // etc 文件夹

	SetDefaults(v)

	// 环境变量支持，server.port -> SERVER_PORT
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	cfg, err := Decode(v)
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

// Decode 从 viper 实例解析配置
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults 写入全部默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/storefront.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "sf")
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Cache-Control",
		"X-Requested-With",
		"X-Cart-Session",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.search_rate_limit.window_seconds", 60)
	v.SetDefault("security.search_rate_limit.max_attempts", 60)
	v.SetDefault("security.search_rate_limit.block_seconds", 60)
	v.SetDefault("security.cart_write_rate_limit.window_seconds", 60)
	v.SetDefault("security.cart_write_rate_limit.max_attempts", 120)
	v.SetDefault("security.cart_write_rate_limit.block_seconds", 0)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("catalog.base_url", "https://www.surfstationstore.com")
	v.SetDefault("catalog.timeout_seconds", 10)
	v.SetDefault("catalog.user_agent", "surf-station-storefront/1.0")
	v.SetDefault("catalog.product_cache_ttl_seconds", 300)
	v.SetDefault("catalog.collection_cache_ttl_seconds", 600)
	v.SetDefault("catalog.warm_interval_seconds", 300)
	v.SetDefault("cart.storage_key", "scrole-cart")
	v.SetDefault("cart.free_shipping_threshold", "75.00")
	v.SetDefault("cart.max_line_quantity", 10)
	v.SetDefault("cart.session_idle_minutes", 30)
	v.SetDefault("cart.snapshot_retention_days", 30)
	v.SetDefault("cart.persist_timeout_ms", 3000)
	v.SetDefault("cart.persistence.driver", PersistenceDriverDatabase)
	v.SetDefault("cart.persistence.redis_ttl_hours", 720)
	v.SetDefault("session.secret", "change-me-in-production")
	v.SetDefault("session.ttl_hours", 720)
	v.SetDefault("session.header", "X-Cart-Session")
	v.SetDefault("session.cookie", "cart_session")
}

func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
