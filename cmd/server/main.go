package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/surf-station/storefront/internal/app"
	"github.com/surf-station/storefront/internal/config"
	"github.com/surf-station/storefront/internal/logger"
	"github.com/surf-station/storefront/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
)

func main() {
	printStartupBanner()

	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := cfg.Validate(); err != nil {
		stdLog.Fatalf("配置校验失败: %v", err)
	}
	if cfg.Server.Mode == "release" {
		if isWeakSecret(cfg.Session.Secret) {
			stdLog.Fatalf("session secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
	} else if isWeakSecret(cfg.Session.Secret) {
		stdLog.Printf("警告: session secret 过弱或仍为默认值，建议在生产环境中更换")
	}

	// 内存后端不需要数据库
	if needsDatabase(cfg) {
		if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
			MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
			MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
		}); err != nil {
			stdLog.Fatalf("数据库初始化失败: %v", err)
		}
		if err := models.AutoMigrate(); err != nil {
			stdLog.Fatalf("数据库迁移失败: %v", err)
		}
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	runErr := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	})
	if err := models.Close(); err != nil {
		stdLog.Printf("警告: 关闭数据库失败: %v", err)
	}
	if runErr != nil {
		stdLog.Fatalf("服务运行失败: %v", runErr)
	}
}

func needsDatabase(cfg *config.Config) bool {
	driver := strings.ToLower(strings.TrimSpace(cfg.Cart.Persistence.Driver))
	return driver == "" || driver == config.PersistenceDriverDatabase
}

func printStartupBanner() {
	fmt.Println(ansiCyan + "╔══════════════════════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiCyan + "║               🏄 Surf Station Storefront API                 ║" + ansiReset)
	fmt.Println(ansiCyan + "╚══════════════════════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "catalog · cart sessions · snapshot persistence" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
