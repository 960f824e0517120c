package models

import "time"

// CartSnapshot 购物车快照（每个会话一行，整体覆盖写入）
type CartSnapshot struct {
	StorageKey    string    `gorm:"primaryKey;type:varchar(191)" json:"storage_key"` // 存储键 <storage_key>:<session_id>
	Version       int       `gorm:"not null;default:1" json:"version"`               // 编码版本
	Payload       string    `gorm:"type:text;not null" json:"-"`                     // 编码后的快照
	TotalQuantity int       `gorm:"not null;default:0" json:"total_quantity"`        // 商品总数
	TotalPrice    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`
	IsOpen        bool      `gorm:"not null;default:false" json:"is_open"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"` // 用于过期清理
}

// TableName 指定表名
func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
