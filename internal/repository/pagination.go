package repository

import "gorm.io/gorm"

const maxPageSize = 200

// applyPagination 应用分页参数，非法页码按第一页处理，页大小不超过 maxPageSize
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
