package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/surf-station/storefront/internal/cart"
	"github.com/surf-station/storefront/internal/models"

	"gorm.io/gorm"
)

// CartSnapshotRepository 购物车快照数据访问接口
type CartSnapshotRepository interface {
	cart.Persister
	List(ctx context.Context, filter CartSnapshotListFilter) ([]models.CartSnapshot, int64, error)
	ListByPrefix(ctx context.Context, prefix string, limit int) ([]models.CartSnapshot, error)
	PruneBefore(ctx context.Context, before time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormCartSnapshotRepository
}

// GormCartSnapshotRepository GORM 实现
type GormCartSnapshotRepository struct {
	db *gorm.DB
}

// NewCartSnapshotRepository 创建购物车快照仓库
func NewCartSnapshotRepository(db *gorm.DB) *GormCartSnapshotRepository {
	return &GormCartSnapshotRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartSnapshotRepository) WithTx(tx *gorm.DB) *GormCartSnapshotRepository {
	if tx == nil {
		return r
	}
	return &GormCartSnapshotRepository{db: tx}
}

// Save 整体覆盖写入快照
func (r *GormCartSnapshotRepository) Save(ctx context.Context, key string, snapshot cart.Snapshot) error {
	payload, err := cart.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	row := models.CartSnapshot{
		StorageKey:    key,
		Version:       cart.SnapshotVersion,
		Payload:       string(payload),
		TotalQuantity: snapshot.TotalQuantity,
		TotalPrice:    models.NewMoneyFromDecimal(snapshot.TotalPrice),
		IsOpen:        snapshot.IsOpen,
	}
	db := r.db.WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		var existing models.CartSnapshot
		err := tx.Where("storage_key = ?", key).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}
		updates := map[string]interface{}{
			"version":        row.Version,
			"payload":        row.Payload,
			"total_quantity": row.TotalQuantity,
			"total_price":    row.TotalPrice,
			"is_open":        row.IsOpen,
			"updated_at":     time.Now(),
		}
		return tx.Model(&existing).Updates(updates).Error
	})
}

// Load 读取并解码快照
func (r *GormCartSnapshotRepository) Load(ctx context.Context, key string) (cart.Snapshot, bool, error) {
	var row models.CartSnapshot
	err := r.db.WithContext(ctx).Where("storage_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart.Snapshot{}, false, nil
	}
	if err != nil {
		return cart.Snapshot{}, false, err
	}
	snapshot, err := cart.DecodeSnapshot([]byte(row.Payload))
	if err != nil {
		return cart.Snapshot{}, false, err
	}
	return snapshot, true, nil
}

// Delete 删除快照
func (r *GormCartSnapshotRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&models.CartSnapshot{}).Error
}

// List 分页列出快照（最近更新在前），返回总数
func (r *GormCartSnapshotRepository) List(ctx context.Context, filter CartSnapshotListFilter) ([]models.CartSnapshot, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CartSnapshot{})
	if trimmed := strings.TrimSpace(filter.Prefix); trimmed != "" {
		query = query.Where(prefixCondition(r.db, "storage_key"), escapeLike(trimmed)+"%")
	}
	if filter.OnlyNonEmpty {
		query = query.Where("total_quantity > 0")
	}
	if !filter.UpdatedBefore.IsZero() {
		query = query.Where("updated_at < ?", filter.UpdatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CartSnapshot
	if err := applyPagination(query, filter.Page, filter.PageSize).Order("updated_at desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByPrefix 按存储键前缀列出快照，limit <= 0 时不限制
func (r *GormCartSnapshotRepository) ListByPrefix(ctx context.Context, prefix string, limit int) ([]models.CartSnapshot, error) {
	rows, _, err := r.List(ctx, CartSnapshotListFilter{Page: 1, PageSize: limit, Prefix: prefix})
	return rows, err
}

// PruneBefore 删除早于指定时间未更新的快照
func (r *GormCartSnapshotRepository) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("updated_at < ?", before).Delete(&models.CartSnapshot{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
