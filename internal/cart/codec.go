package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/surf-station/storefront/internal/catalog"

	"github.com/shopspring/decimal"
)

// SnapshotVersion 当前持久化格式版本
// 版本 0 指无版本号的旧格式（驼峰字段），读取时自动迁移。
const SnapshotVersion = 1

var (
	ErrSnapshotCorrupt = errors.New("cart snapshot corrupt")
	ErrSnapshotVersion = errors.New("cart snapshot version unsupported")
)

type snapshotRecord struct {
	Version       int             `json:"version"`
	Items         []LineItem      `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	IsOpen        bool            `json:"is_open"`
}

type legacyLineItem struct {
	ID       string          `json:"id"`
	Product  catalog.Product `json:"product"`
	Variant  catalog.Variant `json:"variant"`
	Quantity int             `json:"quantity"`
	AddedAt  time.Time       `json:"addedAt"`
}

type legacySnapshotRecord struct {
	Items         []legacyLineItem `json:"items"`
	TotalQuantity int              `json:"totalQuantity"`
	TotalPrice    decimal.Decimal  `json:"totalPrice"`
	IsOpen        bool             `json:"isOpen"`
}

// EncodeSnapshot 序列化快照（带版本号）
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	items := s.Items
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(snapshotRecord{
		Version:       SnapshotVersion,
		Items:         items,
		TotalQuantity: s.TotalQuantity,
		TotalPrice:    s.TotalPrice,
		IsOpen:        s.IsOpen,
	})
}

// DecodeSnapshot 反序列化快照，汇总字段一律按行项目重算
func DecodeSnapshot(data []byte) (Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Snapshot{}, fmt.Errorf("%w: empty payload", ErrSnapshotCorrupt)
	}
	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}

	version := 0
	if probe.Version != nil {
		version = *probe.Version
	}
	switch version {
	case 0:
		var legacy legacySnapshotRecord
		if err := json.Unmarshal(data, &legacy); err != nil {
			return Snapshot{}, fmt.Errorf("%w: legacy record: %v", ErrSnapshotCorrupt, err)
		}
		return migrateLegacy(legacy), nil
	case SnapshotVersion:
		var record snapshotRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
		}
		return Normalize(Snapshot{Items: record.Items, IsOpen: record.IsOpen}), nil
	default:
		return Snapshot{}, fmt.Errorf("%w: %d", ErrSnapshotVersion, version)
	}
}

func migrateLegacy(legacy legacySnapshotRecord) Snapshot {
	items := make([]LineItem, 0, len(legacy.Items))
	for _, item := range legacy.Items {
		items = append(items, LineItem{
			ID:       item.ID,
			Product:  item.Product,
			Variant:  item.Variant,
			Quantity: item.Quantity,
			AddedAt:  item.AddedAt,
		})
	}
	return Normalize(Snapshot{Items: items, IsOpen: legacy.IsOpen})
}
