package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// prefixCondition 构建前缀匹配条件，兼容 sqlite 与 postgres。
func prefixCondition(db *gorm.DB, column string) string {
	return prefixConditionByDialect(dbDialectName(db), column)
}

func prefixConditionByDialect(dialect, column string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		// postgres 默认以反斜杠转义
		return fmt.Sprintf("%s LIKE ?", column)
	default:
		// sqlite 没有默认转义字符，需要显式声明
		return fmt.Sprintf("%s LIKE ? ESCAPE '\\'", column)
	}
}

// escapeLike 转义 LIKE 通配符。
func escapeLike(raw string) string {
	return likeEscaper.Replace(raw)
}
