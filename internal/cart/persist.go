package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultPersistTimeout = 3 * time.Second

// Persister 快照持久化后端
// Load 返回 found=false 表示该键下没有记录。
type Persister interface {
	Save(ctx context.Context, key string, snapshot Snapshot) error
	Load(ctx context.Context, key string) (Snapshot, bool, error)
	Delete(ctx context.Context, key string) error
}

// PersistOutcome 单次写入结果，供日志与监控使用
type PersistOutcome struct {
	Key        string
	Backend    string
	Command    CommandKind
	Generation uint64
	Duration   time.Duration
	Err        error
}

// OK 是否写入成功
func (o PersistOutcome) OK() bool {
	return o.Err == nil
}

// PersistObserverOptions 持久化观察者参数
type PersistObserverOptions struct {
	Backend   string
	Timeout   time.Duration
	Logger    *zap.Logger
	OnOutcome func(PersistOutcome)
}

// PersistObserver 每次迁移后把当前快照整体写入后端
// 写入失败只记录，不影响内存中的状态。
type PersistObserver struct {
	persister Persister
	backend   string
	timeout   time.Duration
	logger    *zap.Logger
	onOutcome func(PersistOutcome)
}

// NewPersistObserver 创建持久化观察者
func NewPersistObserver(persister Persister, opts PersistObserverOptions) *PersistObserver {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	backend := opts.Backend
	if backend == "" {
		backend = "unknown"
	}
	return &PersistObserver{
		persister: persister,
		backend:   backend,
		timeout:   timeout,
		logger:    logger,
		onOutcome: opts.OnOutcome,
	}
}

// Observe 实现 Observer
func (o *PersistObserver) Observe(t Transition) {
	if o == nil || o.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	started := time.Now()
	err := o.persister.Save(ctx, t.Key, t.Current)
	outcome := PersistOutcome{
		Key:        t.Key,
		Backend:    o.backend,
		Generation: t.Generation,
		Duration:   time.Since(started),
		Err:        err,
	}
	if t.Command != nil {
		outcome.Command = t.Command.Kind()
	}
	if err != nil {
		o.logger.Warn("cart_persist_failed",
			zap.String("cart_key", t.Key),
			zap.String("backend", o.backend),
			zap.String("command", string(outcome.Command)),
			zap.Uint64("generation", t.Generation),
			zap.Error(err),
		)
	}
	if o.onOutcome != nil {
		o.onOutcome(outcome)
	}
}

// Restore 启动时从后端恢复快照到存储
// 记录损坏或版本不支持时丢弃并删除该记录，存储保持空购物车。
func Restore(ctx context.Context, persister Persister, store *Store, logger *zap.Logger) (bool, error) {
	if persister == nil || store == nil {
		return false, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	snapshot, found, err := persister.Load(ctx, store.Key())
	if err != nil {
		if errors.Is(err, ErrSnapshotCorrupt) || errors.Is(err, ErrSnapshotVersion) {
			logger.Warn("cart_snapshot_discarded",
				zap.String("cart_key", store.Key()),
				zap.Error(err),
			)
			if delErr := persister.Delete(ctx, store.Key()); delErr != nil {
				logger.Warn("cart_snapshot_delete_failed",
					zap.String("cart_key", store.Key()),
					zap.Error(delErr),
				)
			}
			return false, nil
		}
		logger.Warn("cart_snapshot_load_failed",
			zap.String("cart_key", store.Key()),
			zap.Error(err),
		)
		return false, err
	}
	if !found {
		return false, nil
	}
	store.Load(snapshot)
	return true, nil
}

// MemoryPersister 进程内后端，保存编码后的字节以保证与其他后端行为一致
type MemoryPersister struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryPersister 创建内存后端
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{records: make(map[string][]byte)}
}

// Save 实现 Persister
func (m *MemoryPersister) Save(ctx context.Context, key string, snapshot Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = payload
	return nil
}

// Load 实现 Persister
func (m *MemoryPersister) Load(ctx context.Context, key string) (Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, false, err
	}
	m.mu.RLock()
	payload, ok := m.records[key]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, false, nil
	}
	snapshot, err := DecodeSnapshot(payload)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snapshot, true, nil
}

// Delete 实现 Persister
func (m *MemoryPersister) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

// PutRaw 直接写入原始字节（迁移与测试用）
func (m *MemoryPersister) PutRaw(key string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), payload...)
}

// Len 记录数
func (m *MemoryPersister) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
