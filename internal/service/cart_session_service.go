package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/surf-station/storefront/internal/cart"
	"github.com/surf-station/storefront/internal/metrics"

	"go.uber.org/zap"
)

const defaultRestoreTimeout = 3 * time.Second

// CartSessionOptions 会话注册表参数
type CartSessionOptions struct {
	StorageKey     string
	Backend        string
	IdleTimeout    time.Duration
	PersistTimeout time.Duration
	Clock          func() time.Time
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

type cartSession struct {
	store    *cart.Store
	lastSeen time.Time
	// ready 在恢复完成后关闭
	ready chan struct{}
}

// CartSessionService 按会话持有购物车实例
// 首次访问时创建并从持久化恢复一次，空闲超时后从内存移除（持久化记录保留）。
type CartSessionService struct {
	mu             sync.Mutex
	sessions       map[string]*cartSession
	persister      cart.Persister
	storageKey     string
	backend        string
	idleTimeout    time.Duration
	persistTimeout time.Duration
	clock          func() time.Time
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

// NewCartSessionService 创建会话注册表
func NewCartSessionService(persister cart.Persister, opts CartSessionOptions) *CartSessionService {
	storageKey := strings.TrimSpace(opts.StorageKey)
	if storageKey == "" {
		storageKey = "scrole-cart"
	}
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartSessionService{
		sessions:       make(map[string]*cartSession),
		persister:      persister,
		storageKey:     storageKey,
		backend:        opts.Backend,
		idleTimeout:    idle,
		persistTimeout: opts.PersistTimeout,
		clock:          clock,
		logger:         logger,
		metrics:        opts.Metrics,
	}
}

// StorageKey 会话对应的持久化键
func (s *CartSessionService) StorageKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.storageKey, sessionID)
}

// Acquire 获取会话购物车，不存在时创建并恢复
func (s *CartSessionService) Acquire(ctx context.Context, sessionID string) (*cart.Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionMissing
	}

	s.mu.Lock()
	now := s.clock()
	if session, ok := s.sessions[sessionID]; ok {
		session.lastSeen = now
		s.mu.Unlock()
		select {
		case <-session.ready:
			return session.store, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	session := &cartSession{store: s.newStore(sessionID), lastSeen: now, ready: make(chan struct{})}
	s.sessions[sessionID] = session
	s.metrics.SetActiveSessions(len(s.sessions))
	s.mu.Unlock()

	// 恢复在注册表锁外进行，同一会话的并发请求等待 ready
	defer close(session.ready)
	s.restore(ctx, sessionID, session.store)
	return session.store, nil
}

func (s *CartSessionService) restore(ctx context.Context, sessionID string, store *cart.Store) {
	if s.persister == nil {
		return
	}
	restoreCtx, cancel := context.WithTimeout(ctx, defaultRestoreTimeout)
	defer cancel()
	restored, err := cart.Restore(restoreCtx, s.persister, store, s.logger)
	if err != nil {
		// 后端不可用时以空购物车继续，内存状态为准
		s.logger.Warn("cart_session_restore_failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return
	}
	if restored {
		s.logger.Debug("cart_session_restored", zap.String("session_id", sessionID))
	}
}

// Peek 获取已在内存中且恢复完成的会话，不创建
func (s *CartSessionService) Peek(sessionID string) (*cart.Store, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || !isReady(session) {
		return nil, false
	}
	return session.store, true
}

// EvictIdle 移除空闲超时的会话，返回移除数量
func (s *CartSessionService) EvictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, session := range s.sessions {
		if !isReady(session) {
			continue
		}
		lastSeen := session.lastSeen
		if active := session.store.LastActivity(); active.After(lastSeen) {
			lastSeen = active
		}
		if now.Sub(lastSeen) >= s.idleTimeout {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("cart_sessions_evicted",
			zap.Int("evicted", evicted),
			zap.Int("remaining", len(s.sessions)),
		)
	}
	s.metrics.SetActiveSessions(len(s.sessions))
	return evicted
}

func isReady(session *cartSession) bool {
	select {
	case <-session.ready:
		return true
	default:
		return false
	}
}

// Len 内存中的会话数
func (s *CartSessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// IdleTimeout 空闲回收时长
func (s *CartSessionService) IdleTimeout() time.Duration {
	return s.idleTimeout
}

func (s *CartSessionService) newStore(sessionID string) *cart.Store {
	key := s.StorageKey(sessionID)
	observers := make([]cart.Observer, 0, 1)
	if s.persister != nil {
		observers = append(observers, cart.NewPersistObserver(s.persister, cart.PersistObserverOptions{
			Backend: s.backend,
			Timeout: s.persistTimeout,
			Logger:  s.logger,
			OnOutcome: func(outcome cart.PersistOutcome) {
				s.metrics.ObservePersist(outcome.Backend, outcome.Duration, outcome.Err)
			},
		}))
	}
	return cart.NewStore(cart.Options{
		Key:       key,
		Clock:     s.clock,
		Observers: observers,
		Logger:    s.logger.With(zap.String("session_id", sessionID)),
	})
}
