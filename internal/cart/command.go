package cart

import "github.com/surf-station/storefront/internal/catalog"

// CommandKind 命令类型，用于日志与指标标签
type CommandKind string

const (
	KindAddItem        CommandKind = "add_item"
	KindRemoveItem     CommandKind = "remove_item"
	KindUpdateQuantity CommandKind = "update_quantity"
	KindClearCart      CommandKind = "clear_cart"
	KindToggleCart     CommandKind = "toggle_cart"
	KindOpenCart       CommandKind = "open_cart"
	KindCloseCart      CommandKind = "close_cart"
	KindLoad           CommandKind = "load"
)

// Command 购物车状态迁移命令
type Command interface {
	Kind() CommandKind
}

// AddItem 加入商品，已存在时累加数量
type AddItem struct {
	Product  catalog.Product
	Variant  catalog.Variant
	Quantity int
}

// RemoveItem 删除行项目
type RemoveItem struct {
	ItemID string
}

// UpdateQuantity 设置行项目数量（绝对值），<= 0 等同删除
type UpdateQuantity struct {
	ItemID   string
	Quantity int
}

// ClearCart 清空购物车
type ClearCart struct{}

// ToggleCart 切换展开状态
type ToggleCart struct{}

// OpenCart 展开购物车
type OpenCart struct{}

// CloseCart 收起购物车
type CloseCart struct{}

// Load 整体替换状态（启动时从持久化恢复）
type Load struct {
	Snapshot Snapshot
}

func (AddItem) Kind() CommandKind        { return KindAddItem }
func (RemoveItem) Kind() CommandKind     { return KindRemoveItem }
func (UpdateQuantity) Kind() CommandKind { return KindUpdateQuantity }
func (ClearCart) Kind() CommandKind      { return KindClearCart }
func (ToggleCart) Kind() CommandKind     { return KindToggleCart }
func (OpenCart) Kind() CommandKind       { return KindOpenCart }
func (CloseCart) Kind() CommandKind      { return KindCloseCart }
func (Load) Kind() CommandKind           { return KindLoad }
