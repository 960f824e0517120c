package app

import (
	"errors"

	"github.com/surf-station/storefront/internal/config"
	"github.com/surf-station/storefront/internal/logger"
	"github.com/surf-station/storefront/internal/provider"
	"github.com/surf-station/storefront/internal/router"
	"github.com/surf-station/storefront/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, *provider.Container, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}

	container, err := provider.NewContainer(cfg)
	if err != nil {
		return nil, nil, err
	}

	var services []Service

	// 初始化 HTTP 服务及会话回收
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services,
			NewHTTPService(addr, engine),
			NewSessionSweeper(container.CartSessions, cfg.Cart.SessionIdle()),
		)
	}

	// 初始化 Worker 服务
	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			if mode == ModeWorker {
				_ = container.Close()
				return nil, nil, err
			}
			// all 模式下队列未启用时只运行 API
			logger.Warnw("app_worker_disabled", "error", err)
		} else {
			services = append(services, workerService)
		}
	}

	if len(services) == 0 {
		_ = container.Close()
		return nil, nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), container, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	if err := validateMode(opts.Mode); err != nil {
		return err
	}

	runner, container, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			opts.Logger.Warnw("app_container_close_failed", "error", err)
		}
	}()

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode, "cart_backend", container.CartPersistBackend)
	return RunWithOptions(runner, opts)
}
