package app

import (
	"context"
	"errors"
	"time"

	"github.com/surf-station/storefront/internal/service"
)

const minSweepInterval = 30 * time.Second

// SessionSweeper 定期回收空闲购物车会话
type SessionSweeper struct {
	name     string
	sessions *service.CartSessionService
	interval time.Duration
	now      func() time.Time
}

// NewSessionSweeper 扫描周期取空闲时长的一半
func NewSessionSweeper(sessions *service.CartSessionService, idle time.Duration) *SessionSweeper {
	interval := idle / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	return &SessionSweeper{
		name:     "cart_session_sweeper",
		sessions: sessions,
		interval: interval,
		now:      time.Now,
	}
}

// Name 服务名称
func (s *SessionSweeper) Name() string {
	if s == nil || s.name == "" {
		return "cart_session_sweeper"
	}
	return s.name
}

// Start 阻塞运行直到 ctx 结束
func (s *SessionSweeper) Start(ctx context.Context) error {
	if s == nil || s.sessions == nil {
		return errors.New("session sweeper not initialized")
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep()
		}
	}
}

// Stop 停止服务
func (s *SessionSweeper) Stop(ctx context.Context) error {
	return nil
}

func (s *SessionSweeper) sweep() int {
	return s.sessions.EvictIdle(s.now())
}
