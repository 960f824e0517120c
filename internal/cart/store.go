package cart

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/surf-station/storefront/internal/catalog"

	"go.uber.org/zap"
)

// Transition 一次状态迁移，观察者在迁移完成后收到
type Transition struct {
	Key        string
	Command    Command
	Generation uint64
	Previous   Snapshot
	Current    Snapshot
}

// Observer 状态变化观察者（持久化等）
// 在存储锁内按迁移顺序同步调用，实现不应阻塞过久。
type Observer interface {
	Observe(Transition)
}

// ObserverFunc 函数适配器
type ObserverFunc func(Transition)

// Observe 实现 Observer
func (f ObserverFunc) Observe(t Transition) { f(t) }

// Options 存储初始化参数
type Options struct {
	Key       string
	Clock     func() time.Time
	Observers []Observer
	Logger    *zap.Logger
}

// Store 单个会话的购物车状态容器
// 所有命令在互斥锁下串行执行，读取方只能拿到深拷贝。
type Store struct {
	mu         sync.Mutex
	key        string
	clock      func() time.Time
	logger     *zap.Logger
	state      Snapshot
	generation uint64
	observers  []Observer
	// lastActivity 最近一次迁移时间（UnixNano），供空闲回收无锁读取
	lastActivity atomic.Int64
}

// NewStore 创建空购物车存储
func NewStore(opts Options) *Store {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		key:       opts.Key,
		clock:     clock,
		logger:    logger,
		state:     Empty(),
		observers: append([]Observer(nil), opts.Observers...),
	}
}

// Key 存储键
func (s *Store) Key() string {
	return s.key
}

// Snapshot 当前状态的深拷贝
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Generation 已执行的迁移次数
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// LastActivity 最近一次迁移的时间，从未迁移时为零值
func (s *Store) LastActivity() time.Time {
	nanos := s.lastActivity.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// Subscribe 注册观察者
func (s *Store) Subscribe(observer Observer) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Dispatch 执行命令并返回迁移后的快照
// Load 命令只替换状态，不通知观察者，避免把刚读出的数据再写回去。
func (s *Store) Dispatch(cmd Command) Snapshot {
	if cmd == nil {
		return s.Snapshot()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	previous := s.state
	next := Reduce(previous.Clone(), cmd, now)
	s.state = next
	s.generation++
	s.lastActivity.Store(now.UnixNano())

	s.logger.Debug("cart_command_applied",
		zap.String("cart_key", s.key),
		zap.String("command", string(cmd.Kind())),
		zap.Uint64("generation", s.generation),
		zap.Int("total_quantity", next.TotalQuantity),
		zap.String("total_price", next.TotalPrice.StringFixed(2)),
	)

	s.warnUnpriced(previous, next)

	if cmd.Kind() != KindLoad {
		transition := Transition{
			Key:        s.key,
			Command:    cmd,
			Generation: s.generation,
			Previous:   previous.Clone(),
			Current:    next.Clone(),
		}
		for _, observer := range s.observers {
			observer.Observe(transition)
		}
	}
	return next.Clone()
}

// warnUnpriced 新出现的无法解析价格的行项目按 0 计入总价，记录一次告警
func (s *Store) warnUnpriced(previous, next Snapshot) {
	unpriced := UnpricedItems(next.Items)
	if len(unpriced) == 0 {
		return
	}
	seen := make(map[string]string, len(previous.Items))
	for _, item := range UnpricedItems(previous.Items) {
		seen[item.ID] = item.Variant.Price
	}
	for _, item := range unpriced {
		if raw, ok := seen[item.ID]; ok && raw == item.Variant.Price {
			continue
		}
		s.logger.Warn("cart_price_unparsable",
			zap.String("cart_key", s.key),
			zap.String("item_id", item.ID),
			zap.String("raw_price", item.Variant.Price),
		)
	}
}

// AddItem 加入商品
func (s *Store) AddItem(product catalog.Product, variant catalog.Variant, quantity int) Snapshot {
	return s.Dispatch(AddItem{Product: product, Variant: variant, Quantity: quantity})
}

// RemoveItem 删除行项目，不存在时保持不变
func (s *Store) RemoveItem(itemID string) Snapshot {
	return s.Dispatch(RemoveItem{ItemID: itemID})
}

// UpdateQuantity 设置行项目数量
func (s *Store) UpdateQuantity(itemID string, quantity int) Snapshot {
	return s.Dispatch(UpdateQuantity{ItemID: itemID, Quantity: quantity})
}

// ClearCart 清空购物车，保留展开状态
func (s *Store) ClearCart() Snapshot {
	return s.Dispatch(ClearCart{})
}

// ToggleCart 切换展开状态
func (s *Store) ToggleCart() Snapshot {
	return s.Dispatch(ToggleCart{})
}

// OpenCart 展开
func (s *Store) OpenCart() Snapshot {
	return s.Dispatch(OpenCart{})
}

// CloseCart 收起
func (s *Store) CloseCart() Snapshot {
	return s.Dispatch(CloseCart{})
}

// Load 整体替换状态
func (s *Store) Load(snapshot Snapshot) Snapshot {
	return s.Dispatch(Load{Snapshot: snapshot.Clone()})
}
