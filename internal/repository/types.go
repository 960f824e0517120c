package repository

import "time"

// CartSnapshotListFilter 查询购物车快照列表的过滤条件
type CartSnapshotListFilter struct {
	Page          int
	PageSize      int
	Prefix        string
	OnlyNonEmpty  bool
	UpdatedBefore time.Time
}
